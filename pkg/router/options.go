package router

import (
	"log/slog"
)

// RecurseMode controls whether ancestor routes also run when a descendant
// route matches.
type RecurseMode string

const (
	// RecurseOff runs only the most specific route.
	RecurseOff RecurseMode = ""
	// RecurseForward runs ancestors first, root to leaf.
	RecurseForward RecurseMode = "forward"
	// RecurseBackward runs the leaf first, then its ancestors up to the root.
	RecurseBackward RecurseMode = "backward"
)

func (m RecurseMode) valid() bool {
	switch m {
	case RecurseOff, RecurseForward, RecurseBackward:
		return true
	default:
		return false
	}
}

// String returns the mode name.
func (m RecurseMode) String() string {
	if m == RecurseOff {
		return "off"
	}
	return string(m)
}

// Option configures a Router.
type Option func(*options)

type options struct {
	recurse      RecurseMode
	strict       bool
	async        bool
	afterOnLeave bool
	history      bool
	runInInit    bool
	delimiter    string
	notFound     HandlerFunc
	every        Hooks
	resources    map[string]HandlerFunc
	logger       *slog.Logger
	queueSize    int
}

func defaultOptions() options {
	return options{
		strict:    true,
		runInInit: true,
		delimiter: "/",
		queueSize: 64,
	}
}

// WithRecurse sets the recurse mode.
func WithRecurse(mode RecurseMode) Option {
	return func(o *options) {
		o.recurse = mode
	}
}

// WithStrict toggles strict matching. When false, a path may carry one
// trailing delimiter the pattern does not declare.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithAsync toggles queued dispatch: navigations run one at a time on a
// dispatcher goroutine, in arrival order.
func WithAsync(async bool) Option {
	return func(o *options) {
		o.async = async
	}
}

// WithAfterOnLeave defers a route's after hooks until the next
// navigation, where they run before the new route's handlers.
func WithAfterOnLeave(enabled bool) Option {
	return func(o *options) {
		o.afterOnLeave = enabled
	}
}

// WithNotFound sets the handler invoked when no route matches. It receives
// the unmatched path as its only capture.
func WithNotFound(h HandlerFunc) Option {
	return func(o *options) {
		o.notFound = h
	}
}

// WithEvery sets global hooks run around every matched dispatch.
func WithEvery(hooks Hooks) Option {
	return func(o *options) {
		o.every = hooks
	}
}

// WithDelimiter sets the segment delimiter (default "/").
func WithDelimiter(delimiter string) Option {
	return func(o *options) {
		o.delimiter = delimiter
	}
}

// WithResources registers named handlers that route maps may refer to.
func WithResources(resources map[string]HandlerFunc) Option {
	return func(o *options) {
		if o.resources == nil {
			o.resources = make(map[string]HandlerFunc, len(resources))
		}
		for name, h := range resources {
			o.resources[name] = h
		}
	}
}

// WithHistory follows location paths (pushState) instead of the hash.
func WithHistory(history bool) Option {
	return func(o *options) {
		o.history = history
	}
}

// WithRunInInit controls whether Init dispatches the current path in
// history mode. Defaults to true.
func WithRunInInit(run bool) Option {
	return func(o *options) {
		o.runInInit = run
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithQueueSize sets the capacity of the async navigation queue.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}
