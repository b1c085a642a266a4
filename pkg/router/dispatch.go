package router

import (
	"context"
	"errors"
)

// Match resolves path against the route tree for method without running
// anything.
func (r *Router) Match(method Method, path string) *MatchResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.match(method, path)
}

func (r *Router) match(method Method, path string) *MatchResult {
	if path == "" {
		path = r.opts.delimiter
	}

	var tr *trail
	if path == r.opts.delimiter && len(r.root.handlers[method]) > 0 {
		tr = &trail{leaf: r.root}
		if level := r.root.level(method); len(level) > 0 {
			tr.levels = append(tr.levels, level)
		}
		tr.after = append(tr.after, r.root.handlers[MethodAfter]...)
	} else {
		t := &traversal{
			method:    method,
			path:      path,
			delimiter: r.opts.delimiter,
			strict:    r.opts.strict,
			recurse:   r.opts.recurse != RecurseOff,
			cache:     r.cache,
		}
		tr, _ = t.walk(r.root, "")
	}

	if tr == nil {
		return &MatchResult{}
	}

	levels := tr.levels
	if r.opts.recurse == RecurseForward {
		levels = make([][]HandlerFunc, len(tr.levels))
		for i, level := range tr.levels {
			levels[len(levels)-1-i] = level
		}
	}

	captures := tr.captures
	if captures == nil {
		captures = []string{}
	}

	return &MatchResult{
		Matched:  true,
		Pattern:  tr.leaf.pattern(r.opts.delimiter),
		Chain:    levels,
		Captures: captures,
		After:    tr.after,
	}
}

// Dispatch resolves path and runs the matching chain:
//
//	every.Before, owed after hooks, chain levels, every.On,
//	after hooks, every.After
//
// Each level is the node's before hooks followed by its handlers. Every
// handler receives the same captures. A handler returning ErrStop halts
// the rest of the navigation; any other error halts it and is returned
// as is.
//
// When nothing matches, owed after hooks are dropped and the not-found
// handler, if any, is called with path as its only capture. Dispatch
// reports whether a route matched.
//
// In sync mode the chain runs on the calling goroutine and done is called
// before Dispatch returns. In async mode the navigation is queued behind
// any in flight, Dispatch returns at once with a nil error and done
// receives the result.
func (r *Router) Dispatch(ctx context.Context, method Method, path string, done DoneFunc) (bool, error) {
	r.mu.RLock()
	opts := r.opts
	logger := r.logger
	mw := r.middleware
	match := r.match(method, path)
	r.mu.RUnlock()

	nav := &Navigation{Method: method, Path: path, Match: match}

	var run func(context.Context) error
	if match.Matched {
		logger.Debug("router: matched", "method", string(method), "path", path, "pattern", match.Pattern, "captures", match.Captures)
		run = func(ctx context.Context) error {
			return r.settle(ctx, opts, match)
		}
	} else {
		logger.Debug("router: no route", "method", string(method), "path", path, "notfound", opts.notFound != nil)
		run = func(ctx context.Context) error {
			r.dropOwed()
			if opts.notFound == nil {
				r.setState(StateSettled)
				return nil
			}
			r.setState(StateDispatching)
			err := runList(ctx, []HandlerFunc{opts.notFound}, []string{path})
			r.setState(StateSettled)
			return err
		}
	}

	// State moves only where the navigation runs, so a queued one never
	// overwrites the state of the one in flight.
	job := func(ctx context.Context) error {
		r.setState(StateResolving)
		if match.Matched {
			r.setState(StateMatched)
		} else {
			r.setState(StateUnmatched)
		}
		err := ComposeMiddleware(ctx, nav, mw, run)
		if errors.Is(err, ErrStop) {
			err = nil
		}
		return err
	}

	if opts.async {
		if err := r.enqueue(ctx, job, done, opts.queueSize); err != nil {
			return match.Matched, err
		}
		return match.Matched, nil
	}

	err := job(ctx)
	if done != nil {
		done(err)
	}
	return match.Matched, err
}

// settle runs a matched navigation and records its after hooks as owed
// when they are deferred.
func (r *Router) settle(ctx context.Context, opts options, match *MatchResult) error {
	r.setState(StateDispatching)

	owed, owedCaptures := r.takeOwed()
	captures := match.Captures

	err := r.runSteps(ctx, opts, match, owed, owedCaptures, captures)

	if opts.afterOnLeave {
		r.dispatchMu.Lock()
		r.owed = match.After
		r.owedCaptures = captures
		r.dispatchMu.Unlock()
	}

	r.setState(StateSettled)
	return err
}

func (r *Router) runSteps(ctx context.Context, opts options, match *MatchResult, owed []HandlerFunc, owedCaptures, captures []string) error {
	if err := runHook(ctx, opts.every.Before, captures); err != nil {
		return err
	}
	if err := runList(ctx, owed, owedCaptures); err != nil {
		return err
	}
	for _, level := range match.Chain {
		if err := runList(ctx, level, captures); err != nil {
			return err
		}
	}
	if err := runHook(ctx, opts.every.On, captures); err != nil {
		return err
	}
	if !opts.afterOnLeave {
		if err := runList(ctx, match.After, captures); err != nil {
			return err
		}
	}
	return runHook(ctx, opts.every.After, captures)
}

func runHook(ctx context.Context, h HandlerFunc, captures []string) error {
	if h == nil {
		return nil
	}
	return h(ctx, captures...)
}

// runList calls handlers in order, stopping at the first error.
func runList(ctx context.Context, handlers []HandlerFunc, captures []string) error {
	for _, h := range handlers {
		if err := h(ctx, captures...); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) takeOwed() ([]HandlerFunc, []string) {
	r.dispatchMu.Lock()
	defer r.dispatchMu.Unlock()
	owed, captures := r.owed, r.owedCaptures
	r.owed, r.owedCaptures = nil, nil
	return owed, captures
}

func (r *Router) dropOwed() {
	r.dispatchMu.Lock()
	r.owed, r.owedCaptures = nil, nil
	r.dispatchMu.Unlock()
}
