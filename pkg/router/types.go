package router

import (
	"context"
	"errors"
)

// Method names a handler slot on a route node. Dispatch resolves handlers
// registered under the dispatched method; ancestors contribute MethodOn.
type Method string

const (
	MethodOn     Method = "on"
	MethodOnce   Method = "once"
	MethodBefore Method = "before"
	MethodAfter  Method = "after"
)

// HandlerFunc handles a navigation. captures holds the strings extracted
// from the path, left to right.
type HandlerFunc func(ctx context.Context, captures ...string) error

// DoneFunc receives the final result of a dispatch.
type DoneFunc func(err error)

// ErrStop may be returned by a handler to halt the remaining handlers of
// the current dispatch. It is not reported as an error.
var ErrStop = errors.New("router: stop dispatch")

// Hooks are global handlers wrapping every matched dispatch.
type Hooks struct {
	// Before runs first, ahead of any route handler.
	Before HandlerFunc

	// On runs after the matched chain.
	On HandlerFunc

	// After runs last, once the route's after hooks have run.
	After HandlerFunc
}

// State is the dispatch state of a router. A router is idle until its
// first navigation and after Destroy; between navigations it stays
// settled. In async mode the state follows the navigation being run, not
// the ones queued behind it.
type State int32

const (
	StateIdle State = iota
	StateResolving
	StateMatched
	StateUnmatched
	StateDispatching
	StateSettled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateMatched:
		return "matched"
	case StateUnmatched:
		return "unmatched"
	case StateDispatching:
		return "dispatching"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// MatchResult is the outcome of resolving a path against the route tree.
type MatchResult struct {
	// Matched reports whether a route was found.
	Matched bool

	// Pattern is the matched route pattern, rebuilt from its segments.
	Pattern string

	// Chain holds the handler levels to run, in run order. Each level is
	// the node's before hooks followed by its handlers.
	Chain [][]HandlerFunc

	// Captures are the strings extracted from the path, left to right.
	Captures []string

	// After holds the after hooks of the matched route, leaf to root.
	After []HandlerFunc
}

// Len returns the number of handlers in the chain.
func (m *MatchResult) Len() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, level := range m.Chain {
		n += len(level)
	}
	return n
}

// ErrDestroyed is passed to the done callback of queued navigations
// dropped by Destroy.
var ErrDestroyed = errors.New("router: destroyed")
