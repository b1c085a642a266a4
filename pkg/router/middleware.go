package router

import "context"

// Navigation describes the dispatch a middleware wraps.
type Navigation struct {
	Method Method
	Path   string
	Match  *MatchResult
}

// Middleware wraps a dispatch. next runs the rest of the chain and then
// the handlers; not calling it skips them.
type Middleware interface {
	Handle(ctx context.Context, nav *Navigation, next func(context.Context) error) error
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, nav *Navigation, next func(context.Context) error) error

// Handle calls f.
func (f MiddlewareFunc) Handle(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
	return f(ctx, nav, next)
}

// ComposeMiddleware builds a handler chain from middleware and a final handler.
// Middleware is executed in order (first to last), with the handler at the end.
func ComposeMiddleware(ctx context.Context, nav *Navigation, mw []Middleware, handler func(context.Context) error) error {
	if len(mw) == 0 {
		return handler(ctx)
	}

	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func(ctx context.Context) error {
			return m.Handle(ctx, nav, next)
		}
	}

	return chain(ctx)
}

// Chain creates a middleware that combines multiple middleware in order.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		return ComposeMiddleware(ctx, nav, middleware, next)
	})
}

// Skip bypasses mw when condition holds.
func Skip(condition func(nav *Navigation) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		if condition(nav) {
			return next(ctx)
		}
		return mw.Handle(ctx, nav, next)
	})
}

// Only runs mw only when condition holds.
func Only(condition func(nav *Navigation) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, nav *Navigation, next func(context.Context) error) error {
		if !condition(nav) {
			return next(ctx)
		}
		return mw.Handle(ctx, nav, next)
	})
}

// Matched reports whether the navigation resolved to a route. Handy as a
// Skip or Only condition.
func Matched(nav *Navigation) bool {
	return nav.Match != nil && nav.Match.Matched
}
