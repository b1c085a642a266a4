package router

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

// Router matches navigation paths against a tree of route patterns and
// dispatches the matching handler chain.
//
// Routes are meant to be registered once at startup. Dispatch may be
// called from any goroutine.
type Router struct {
	mu         sync.RWMutex
	opts       options
	root       *RouteNode
	params     map[string]string
	methods    map[Method]struct{}
	scope      []string
	cache      *regexpCache
	middleware []Middleware
	logger     *slog.Logger

	state *atomic.Int32

	// owed are after hooks of the previous navigation still to run,
	// with that navigation's captures
	dispatchMu   sync.Mutex
	owed         []HandlerFunc
	owedCaptures []string

	queueMu sync.Mutex
	queue   *dispatcher

	watcherMu sync.Mutex
	watcher   *NavigationWatcher
}

// New creates a router. Invalid options are logged and ignored, keeping
// the defaults; use Configure to get the error.
func New(opts ...Option) *Router {
	r := &Router{
		opts:    defaultOptions(),
		root:    newRouteNode(segment{}, nil),
		params:  make(map[string]string),
		methods: make(map[Method]struct{}),
		cache:   newRegexpCache(),
		logger:  slog.Default(),
		state:   atomic.NewInt32(int32(StateIdle)),
	}
	for _, m := range []Method{MethodOn, MethodOnce, MethodBefore, MethodAfter} {
		r.methods[m] = struct{}{}
	}

	if err := r.Configure(opts...); err != nil {
		r.logger.Error("router: invalid option", "error", err)
	}
	return r
}

// Configure applies options on top of the current configuration.
//
// It fails with a *ConfigurationError for an unknown recurse mode, an
// empty delimiter, a delimiter change once routes exist, a non-positive
// queue size, or an async toggle while a navigation source is attached.
// Nothing is applied when it fails.
func (r *Router) Configure(opts ...Option) error {
	r.watcherMu.Lock()
	attached := r.watcher != nil
	r.watcherMu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.opts
	next.resources = make(map[string]HandlerFunc, len(r.opts.resources))
	for name, h := range r.opts.resources {
		next.resources[name] = h
	}
	for _, opt := range opts {
		opt(&next)
	}

	if !next.recurse.valid() {
		return configError("recurse", "unknown mode %q", string(next.recurse))
	}
	if next.delimiter == "" {
		return configError("delimiter", "delimiter must not be empty")
	}
	if next.delimiter != r.opts.delimiter && r.hasRoutes() {
		return configError("delimiter", "cannot change delimiter from %q to %q after routes are registered", r.opts.delimiter, next.delimiter)
	}
	if next.queueSize <= 0 {
		return configError("queueSize", "queue size must be positive, got %d", next.queueSize)
	}
	if next.async != r.opts.async && attached {
		return configError("async", "cannot toggle async while a navigation source is attached")
	}

	if next.logger != nil {
		r.logger = next.logger
	}
	if r.hasRoutes() {
		if next.strict != r.opts.strict {
			r.logger.Debug("router: strict changed after registration", "strict", next.strict)
		}
		if next.recurse != r.opts.recurse {
			r.logger.Debug("router: recurse changed after registration", "recurse", next.recurse.String())
		}
	}

	stopQueue := r.opts.async && !next.async
	r.opts = next

	if stopQueue {
		r.stopDispatcher()
	}
	return nil
}

func (r *Router) hasRoutes() bool {
	return len(r.root.methods) > 0 || len(r.root.index) > 0
}

// On registers handlers under method for pattern. MethodOnce registers
// them as once handlers.
func (r *Router) On(method Method, pattern string, h ...HandlerFunc) error {
	return r.register(method, pattern, h)
}

// OnPatterns registers the same handlers under every pattern. It stops at
// the first pattern that fails to compile; earlier patterns stay
// registered.
func (r *Router) OnPatterns(method Method, patterns []string, h ...HandlerFunc) error {
	for _, pattern := range patterns {
		if err := r.register(method, pattern, h); err != nil {
			return err
		}
	}
	return nil
}

// OnRegexp registers handlers under a pattern given as a regular
// expression. Escaped delimiters are unescaped before splitting.
func (r *Router) OnRegexp(method Method, re *regexp.Regexp, h ...HandlerFunc) error {
	if re == nil {
		return routeError("W104", "nil regular expression")
	}
	source := strings.TrimSuffix(strings.TrimPrefix(re.String(), "^"), "$")
	source = strings.ReplaceAll(source, `\/`, "/")
	return r.register(method, source, h)
}

// Route registers handlers under MethodOn.
func (r *Router) Route(pattern string, h ...HandlerFunc) error {
	return r.register(MethodOn, pattern, h)
}

// Once registers handlers that fire on the first dispatch that reaches
// them and are skipped afterwards.
func (r *Router) Once(pattern string, h ...HandlerFunc) error {
	return r.register(MethodOnce, pattern, h)
}

// Before registers hooks run ahead of the route's handlers.
func (r *Router) Before(pattern string, h ...HandlerFunc) error {
	return r.register(MethodBefore, pattern, h)
}

// After registers hooks run once the route's chain has completed.
func (r *Router) After(pattern string, h ...HandlerFunc) error {
	return r.register(MethodAfter, pattern, h)
}

func (r *Router) register(method Method, pattern string, handlers []HandlerFunc) error {
	if len(handlers) == 0 {
		return routeError("W104", "no handlers for %q", pattern)
	}
	for i, h := range handlers {
		if h == nil {
			return routeError("W104", "handler %d for %q is nil", i, pattern)
		}
	}

	if method == MethodOnce {
		wrapped := make([]HandlerFunc, len(handlers))
		for i, h := range handlers {
			wrapped[i] = onceHandler(h)
		}
		handlers = wrapped
		method = MethodOn
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	full := r.scoped(pattern)
	segments, err := r.compilePattern(full)
	if err != nil {
		return err
	}

	r.root.insert(segments, method, handlers)
	r.logger.Debug("router: route registered", "method", string(method), "pattern", full, "handlers", len(handlers))
	return nil
}

// scoped prefixes pattern with the active Path scopes.
func (r *Router) scoped(pattern string) string {
	if len(r.scope) == 0 {
		return pattern
	}
	parts := make([]string, 0, len(r.scope)+1)
	parts = append(parts, r.scope...)
	parts = append(parts, pattern)
	return strings.Join(parts, r.opts.delimiter)
}

// onceHandler wraps h so that only its first call runs.
func onceHandler(h HandlerFunc) HandlerFunc {
	fired := atomic.NewBool(false)
	return func(ctx context.Context, captures ...string) error {
		if !fired.CompareAndSwap(false, true) {
			return nil
		}
		return h(ctx, captures...)
	}
}

// Path registers every route added by build under prefix. Scopes nest.
//
// Path is a setup-time helper and must not be called concurrently.
func (r *Router) Path(prefix string, build func(*Router) error) error {
	if _, err := splitPattern(prefix, r.delimiter()); err != nil {
		return err
	}

	r.mu.Lock()
	r.scope = append(r.scope, prefix)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.scope = r.scope[:len(r.scope)-1]
		r.mu.Unlock()
	}()

	return build(r)
}

// Param sets the expression used for :name in routes registered after
// the call. The expression must not contain capture groups; it is
// wrapped in one.
func (r *Router) Param(name, pattern string) error {
	name = strings.TrimPrefix(name, ":")
	if name == "" {
		return &PatternCompilationError{Pattern: pattern, Err: routeError("W103", "empty parameter name")}
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return &PatternCompilationError{Pattern: pattern, Err: routeError("W103", "invalid parameter name %q", name)}
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return &PatternCompilationError{Pattern: pattern, Err: routeError("W103", "%v", err)}
	}
	if re.NumSubexp() > 0 {
		return &PatternCompilationError{Pattern: pattern, Err: routeError("W103", "expression for :%s has %d capture group(s)", name, re.NumSubexp())}
	}

	r.mu.Lock()
	r.params[name] = pattern
	r.mu.Unlock()
	return nil
}

// Extend adds dispatch methods. Route maps treat their names as method
// keys instead of path fragments.
func (r *Router) Extend(methods ...Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range methods {
		r.methods[m] = struct{}{}
	}
}

// Use appends dispatch middleware.
func (r *Router) Use(mw ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, mw...)
}

// State returns the dispatch state.
func (r *Router) State() State {
	return State(r.state.Load())
}

func (r *Router) setState(s State) {
	r.state.Store(int32(s))
}

func (r *Router) isMethod(m Method) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.methods[m]
	return ok
}

func (r *Router) delimiter() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts.delimiter
}

func (r *Router) log() *slog.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}
