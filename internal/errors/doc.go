// Package errors provides coded, actionable errors for waypoint.
//
// Every error raised at setup time (bad route patterns, conflicting
// configuration, malformed route map files) carries a registered code that
// maps to a short message, a longer explanation and a documentation link.
//
// # Error Categories
//
//   - route: pattern compilation and registration (W1xx)
//   - navigation: navigation sources and watchers (W2xx)
//   - content: blog content stores (W3xx)
//   - config: configuration files and options (W4xx)
//
// # Usage
//
//	err := errors.New("W101").
//	    WithLocation("routes.yaml", 12, 3).
//	    WithSuggestion("Close the group opened in (.*\\.html")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR W101: Malformed route pattern
//	//
//	//   routes.yaml:12:3
//	//   ...
package errors
