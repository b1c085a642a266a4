// Package router implements a hash/path router for single-page front-ends.
//
// The router provides:
//   - Route patterns with literal, named (:name) and wildcard segments
//   - A prefix tree matched literal-first, then named, then wildcard
//   - Before/after hooks per subtree and global hooks around every dispatch
//   - Recursive dispatch through ancestor routes (forward or backward)
//   - Synchronous or queued (async) dispatch
//   - Attachment to a navigation source (location hash, history, websocket)
//
// # Patterns
//
//	/blog                     literal
//	/:channel/:category       named captures, one string each
//	/files/*                  wildcard capture
//	/:channel/(.*\.html)      regular-expression group, passed through
//
// Named captures match [._a-zA-Z0-9-%()]+ unless a custom pattern is
// registered with Param.
//
// # Usage
//
//	r := router.New(router.WithRecurse(router.RecurseForward))
//
//	r.Route("/", site.Show)
//	r.Path("/blog", func(r *router.Router) error {
//	    return r.Route("/:category", blog.Category)
//	})
//
//	// dispatch directly...
//	matched, err := r.Dispatch(ctx, router.MethodOn, "/blog/tech", nil)
//
//	// ...or follow a navigation source
//	err = r.Init(source, "/")
//	defer r.Destroy()
//
// Handlers receive the captures of the matched route as trailing
// arguments:
//
//	func Category(ctx context.Context, captures ...string) error
//
// A handler returning ErrStop halts the rest of the dispatch without
// reporting an error. Any other error is returned unchanged by Dispatch;
// panics are not recovered.
package router
