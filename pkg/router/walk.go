package router

// RouteInfo describes one registered route.
type RouteInfo struct {
	// Pattern is the route pattern, rebuilt from its segments.
	Pattern string

	// Kind is the kind of the last segment: literal, param or wildcard.
	Kind string

	// Methods lists the registered methods in registration order with
	// their handler counts.
	Methods []MethodInfo
}

// MethodInfo is a method registered on a route.
type MethodInfo struct {
	Method   Method
	Handlers int
}

// WalkFunc is called for every route by Walk. Returning an error stops
// the walk.
type WalkFunc func(info RouteInfo) error

// Walk visits every route holding handlers, depth first, children in
// match order. fn must not register routes.
func (r *Router) Walk(fn WalkFunc) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.root.walkRoutes(func(n *RouteNode) error {
		info := RouteInfo{
			Pattern: n.pattern(r.opts.delimiter),
			Kind:    n.seg.kind.String(),
		}
		for _, m := range n.methods {
			info.Methods = append(info.Methods, MethodInfo{Method: m, Handlers: len(n.handlers[m])})
		}
		return fn(info)
	})
}
