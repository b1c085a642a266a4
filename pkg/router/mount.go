package router

import (
	werrors "github.com/vango-dev/waypoint/internal/errors"
)

// RouteMap is a declarative route table. Entries are mounted in order.
type RouteMap []RouteEntry

// RouteEntry is one key of a route map.
//
// A key naming a method (on, once, before, after, or one added with
// Extend) registers its handlers at the enclosing path. Any other key is
// a path fragment: its handlers are registered under MethodOn and its
// nested Routes are mounted below it.
type RouteEntry struct {
	Key string

	// Handlers run in order, followed by the named Resources.
	Handlers  []HandlerFunc
	Resources []string

	Routes RouteMap

	// File and Line locate the entry in a route map file, if any.
	File string
	Line int
}

// Mount registers every entry of routes. It stops at the first invalid
// entry; entries mounted before it stay registered.
func (r *Router) Mount(routes RouteMap) error {
	return r.mount(routes, "")
}

func (r *Router) mount(routes RouteMap, prefix string) error {
	delim := r.delimiter()

	for _, entry := range routes {
		handlers, err := r.resolve(entry)
		if err != nil {
			return err
		}

		if r.isMethod(Method(entry.Key)) {
			if len(entry.Routes) > 0 {
				return entryError(entry, "W104", "method key %q cannot hold nested routes", entry.Key)
			}
			pattern := prefix
			if pattern == "" {
				pattern = delim
			}
			if err := r.register(Method(entry.Key), pattern, handlers); err != nil {
				return err
			}
			continue
		}

		path := prefix + delim + entry.Key
		if len(handlers) > 0 && len(entry.Routes) > 0 {
			return entryError(entry, "W104", "path key %q has both handlers and nested routes; move the handlers under an \"on\" key", entry.Key)
		}
		if len(handlers) > 0 {
			if err := r.register(MethodOn, path, handlers); err != nil {
				return err
			}
			continue
		}
		if len(entry.Routes) == 0 {
			return entryError(entry, "W104", "path key %q has neither handlers nor nested routes", entry.Key)
		}
		if err := r.mount(entry.Routes, path); err != nil {
			return err
		}
	}
	return nil
}

// resolve returns the entry's handlers followed by its named resources.
func (r *Router) resolve(entry RouteEntry) ([]HandlerFunc, error) {
	if len(entry.Resources) == 0 {
		return entry.Handlers, nil
	}

	r.mu.RLock()
	resources := r.opts.resources
	r.mu.RUnlock()

	handlers := make([]HandlerFunc, 0, len(entry.Handlers)+len(entry.Resources))
	handlers = append(handlers, entry.Handlers...)
	for _, name := range entry.Resources {
		h, ok := resources[name]
		if !ok {
			return nil, entryError(entry, "W105", "no resource named %q", name)
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

func entryError(entry RouteEntry, code, format string, args ...any) error {
	err := werrors.New(code).WithDetailf(format, args...)
	if entry.File != "" {
		err = err.WithLocation(entry.File, entry.Line, 0)
	}
	return err
}
