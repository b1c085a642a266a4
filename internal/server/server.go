// Package server serves the blog: the page shell, the navigation socket
// each page routes over, the content API and the operational endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/content"
	"github.com/vango-dev/waypoint/internal/view"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/navsocket"
	"github.com/vango-dev/waypoint/pkg/router"
)

// Server serves one blog.
type Server struct {
	cfg      *config.Config
	store    *content.Store
	routes   router.RouteMap
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  router.Middleware

	upgrader *navsocket.Upgrader
	handler  http.Handler

	mu    sync.Mutex
	pages map[*page]struct{}
	wg    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRoutes replaces the built-in blog routes with a route map. Its
// resource names resolve against the blog's resources.
func WithRoutes(routes router.RouteMap) Option {
	return func(s *Server) {
		s.routes = routes
	}
}

// WithRegistry registers metrics with registry instead of the default
// registerer and serves it on the metrics path.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// New creates a Server. The configuration must be valid.
func New(cfg *config.Config, store *content.Store, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: slog.Default(),
		pages:  make(map[*page]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Metrics.Enabled {
		metricOpts := []middleware.MetricsOption{middleware.WithNamespace(cfg.Metrics.Namespace)}
		if s.registry != nil {
			metricOpts = append(metricOpts, middleware.WithRegistry(s.registry))
		}
		s.metrics = middleware.Prometheus(metricOpts...)
	}

	s.upgrader = navsocket.NewUpgrader(s.checkOrigin,
		navsocket.WithLogger(s.logger),
		navsocket.WithWriteTimeout(cfg.Server.WriteTimeout),
	)
	s.handler = s.routesHandler()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routesHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if s.cfg.Metrics.Enabled {
		var h http.Handler = promhttp.Handler()
		if s.registry != nil {
			h = promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
		}
		r.Handle(s.cfg.Metrics.Path, h)
	}

	r.Get("/ws", s.serveSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.NoCache)
		r.Get("/settings", s.apiSettings)
		r.Get("/categories", s.apiCategories)
		r.Get("/posts", s.apiPosts)
	})
	r.Get("/articles/*", s.serveArticle)

	r.Get("/", s.servePage)
	if s.cfg.Router.History {
		// deep links load the shell; the socket routes them
		r.Get("/*", s.servePage)
	}
	return r
}

// requestLogger logs each request at debug level, and failures at warn.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelDebug
		if status >= 500 {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// checkOrigin accepts same-origin requests and the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(s.cfg.Server.AllowedOrigins, origin) {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Page(settings.Site, s.cfg.Router.History).Render(r.Context(), w); err != nil {
		s.logger.Error("server: render page", "error", err)
	}
}

// ContentChanged drops the selection of every connected page so the next
// navigation renders fresh content.
func (s *Server) ContentChanged(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := range s.pages {
		p.blog.Reset()
		if name == content.CategoriesFile {
			p.blog.Nav.Reload()
		}
	}
	s.logger.Info("server: content changed", "name", name, "pages", len(s.pages))
}

// Pages returns the number of connected pages.
func (s *Server) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// ListenAndServe serves on the configured address until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.logger.Info("server: shutting down")
	err := srv.Shutdown(shutdownCtx)
	s.closePages()
	s.wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) closePages() {
	s.mu.Lock()
	pages := make([]*page, 0, len(s.pages))
	for p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	for _, p := range pages {
		_ = p.src.Close()
	}
}
