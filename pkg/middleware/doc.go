// Package middleware provides dispatch middleware for waypoint routers.
//
// This package includes:
//   - OpenTelemetry tracing of every navigation
//   - Prometheus metrics for navigations and navigation sockets
//
// # OpenTelemetry Middleware
//
// The OpenTelemetry middleware starts a span per navigation with the
// method, path, matched pattern and capture count. Handlers receive the
// span's context.
//
//	r := router.New()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("blog"),
//	    middleware.WithNavigationFilter(func(nav *router.Navigation) bool {
//	        return nav.Path != "/healthz"
//	    }),
//	))
//
// # Prometheus Metrics
//
// The Prometheus middleware collects:
//   - waypoint_navigations_total: navigations by pattern and status
//   - waypoint_navigation_duration_seconds: dispatch duration by pattern
//   - waypoint_navigation_errors_total: failed navigations by error type
//   - waypoint_active_sockets: connected navigation sockets
//   - waypoint_renders_total: fragments pushed to pages
//
//	r.Use(middleware.Prometheus(middleware.WithNamespace("blog")))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
package middleware
