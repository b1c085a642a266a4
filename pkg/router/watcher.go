package router

import (
	"context"
	"log/slog"
	"strings"

	"go.uber.org/atomic"

	werrors "github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/routepath"
)

// NavigationSource reports the current navigation value (a location hash
// or path) and notifies subscribers when it changes.
type NavigationSource interface {
	Current() string
	Subscribe(fn func(path string)) (unsubscribe func())
}

// Pusher is a NavigationSource that supports programmatic navigation.
type Pusher interface {
	Push(path string) error
}

// NavigationWatcher binds a router to one navigation source. It is created
// by Init and torn down by Destroy.
type NavigationWatcher struct {
	router  *Router
	src     NavigationSource
	history bool
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	current     *atomic.String
	unsubscribe func()
}

// Current returns the last path the watcher dispatched.
func (w *NavigationWatcher) Current() string {
	return w.current.Load()
}

// handle normalises a raw navigation value and dispatches it.
func (w *NavigationWatcher) handle(raw string) error {
	res, err := routepath.Normalize(raw, w.history)
	if err != nil {
		w.logger.Warn("router: rejected navigation", "value", raw, "error", err)
		return werrors.New("W201").WithDetailf("%q", raw).Wrap(err)
	}

	w.current.Store(res.Path)
	w.logger.Debug("router: navigation", "path", res.Path, "query", res.Query)

	_, err = w.router.Dispatch(w.ctx, MethodOn, res.Path, func(err error) {
		if err != nil {
			w.logger.Error("router: dispatch failed", "path", res.Path, "error", err)
		}
	})
	return err
}

// Init attaches the router to src and performs the initial dispatch.
//
// In hash mode, when the source has no route yet and initialPath is set,
// initialPath is pushed to the source (or dispatched directly when the
// source cannot push). Otherwise the current value is dispatched. In
// history mode the current path, or initialPath when it is empty, is
// dispatched unless WithRunInInit(false) was given.
//
// Calling Init again detaches the previous source first.
func (r *Router) Init(src NavigationSource, initialPath string) error {
	if src == nil {
		return werrors.New("W201").WithDetail("nil navigation source")
	}

	r.Destroy()

	r.mu.RLock()
	history := r.opts.history
	runInInit := r.opts.runInInit
	logger := r.logger
	r.mu.RUnlock()

	ctx, cancel := context.WithCancel(context.Background())
	w := &NavigationWatcher{
		router:  r,
		src:     src,
		history: history,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		current: atomic.NewString(""),
	}

	w.unsubscribe = src.Subscribe(func(path string) {
		_ = w.handle(path)
	})

	r.watcherMu.Lock()
	r.watcher = w
	r.watcherMu.Unlock()

	current := src.Current()
	logger.Debug("router: init", "current", current, "initial", initialPath, "history", history)

	if history {
		if !runInInit {
			return nil
		}
		if current == "" {
			current = initialPath
		}
		return w.handle(current)
	}

	if strings.TrimLeft(current, "#/") == "" && initialPath != "" {
		if p, ok := src.(Pusher); ok {
			if !strings.HasPrefix(initialPath, "#") {
				initialPath = "#" + initialPath
			}
			return p.Push(initialPath)
		}
		return w.handle(initialPath)
	}
	return w.handle(current)
}

// Destroy detaches the navigation source and stops the async dispatcher.
// Queued navigations are dropped. Destroy is idempotent.
func (r *Router) Destroy() {
	r.watcherMu.Lock()
	w := r.watcher
	r.watcher = nil
	r.watcherMu.Unlock()

	if w != nil {
		if w.unsubscribe != nil {
			w.unsubscribe()
		}
		w.cancel()
		w.logger.Debug("router: destroyed")
	}

	r.stopDispatcher()
	r.dropOwed()
	r.setState(StateIdle)
}

func (r *Router) currentWatcher() *NavigationWatcher {
	r.watcherMu.Lock()
	defer r.watcherMu.Unlock()
	return r.watcher
}

// push sends path to the attached source.
func (r *Router) push(path string) error {
	w := r.currentWatcher()
	if w == nil {
		return ErrNotInitialized
	}
	p, ok := w.src.(Pusher)
	if !ok {
		return ErrCannotPush
	}
	if w.history {
		return p.Push(path)
	}
	return p.Push("#" + path)
}

// SetRoute navigates to the path made of parts.
func (r *Router) SetRoute(parts ...string) error {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, r.delimiter())
		if part != "" {
			segments = append(segments, part)
		}
	}
	return r.push(routepath.Join(segments, r.delimiter()))
}

// SetRouteAt navigates to the current path with segment i replaced. An
// index past the end appends.
func (r *Router) SetRouteAt(i int, value string) error {
	return r.SpliceRoute(i, 1, value)
}

// SpliceRoute navigates to the current path with n segments removed at i
// and values inserted in their place. A negative n removes nothing.
func (r *Router) SpliceRoute(i, n int, values ...string) error {
	if r.currentWatcher() == nil {
		return ErrNotInitialized
	}
	segments := r.Explode()
	if i < 0 {
		i = 0
	}
	if i > len(segments) {
		i = len(segments)
	}
	n = max(n, 0)
	end := i + n
	if end > len(segments) {
		end = len(segments)
	}

	out := make([]string, 0, len(segments)-(end-i)+len(values))
	out = append(out, segments[:i]...)
	out = append(out, values...)
	out = append(out, segments[end:]...)
	return r.push(routepath.Join(out, r.delimiter()))
}

// GetRoute returns segment i of the current path, or "" when out of range.
func (r *Router) GetRoute(i int) string {
	segments := r.Explode()
	if i < 0 || i >= len(segments) {
		return ""
	}
	return segments[i]
}

// IndexOfRoute returns the index of segment in the current path, or -1.
func (r *Router) IndexOfRoute(segment string) int {
	for i, s := range r.Explode() {
		if s == segment {
			return i
		}
	}
	return -1
}

// Explode splits the current path into its segments.
func (r *Router) Explode() []string {
	w := r.currentWatcher()
	if w == nil {
		return nil
	}
	return routepath.Explode(w.Current(), r.delimiter())
}

// CurrentPath returns the last path dispatched from the navigation source.
func (r *Router) CurrentPath() string {
	w := r.currentWatcher()
	if w == nil {
		return ""
	}
	return w.Current()
}
