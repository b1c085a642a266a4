package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/vango-dev/waypoint/internal/blog"
	"github.com/vango-dev/waypoint/internal/view"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/navsocket"
	"github.com/vango-dev/waypoint/pkg/router"
)

// page is one connected browser tab.
type page struct {
	src    *navsocket.Source
	blog   *blog.Blog
	router *router.Router
}

// countingRenderer records every fragment pushed to the page.
type countingRenderer struct {
	src *navsocket.Source
}

func (r countingRenderer) Render(target, html string) error {
	if err := r.src.Render(target, html); err != nil {
		middleware.RecordSocketError("render")
		return err
	}
	middleware.RecordRender(1)
	return nil
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request) {
	src, err := s.upgrader.Upgrade(w, r)
	if err != nil {
		// the upgrader has already written the response
		s.logger.Warn("server: upgrade failed", "error", err)
		middleware.RecordSocketError("upgrade")
		return
	}

	p, err := s.newPage(src, r.RemoteAddr)
	if err != nil {
		s.logger.Error("server: build page router", "error", err)
		_ = src.SendError(err.Error())
		_ = src.Close()
		return
	}

	s.mu.Lock()
	s.pages[p] = struct{}{}
	s.mu.Unlock()
	s.wg.Add(1)
	middleware.RecordSocketOpen()

	// the request context ends with the handler; the page outlives it
	ctx := context.WithoutCancel(r.Context())
	go func() {
		defer s.wg.Done()
		defer middleware.RecordSocketClose()
		defer func() {
			s.mu.Lock()
			delete(s.pages, p)
			s.mu.Unlock()
		}()
		s.runPage(ctx, p)
	}()
}

// newPage builds the blog and the router for one connection.
func (s *Server) newPage(src *navsocket.Source, remote string) (*page, error) {
	logger := s.logger.With("remote", remote)
	b := blog.New(s.store, countingRenderer{src: src},
		blog.WithLinks(view.Links{History: s.cfg.Router.History}),
		blog.WithLogger(logger),
	)

	opts, err := s.cfg.Router.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		router.WithLogger(logger),
		router.WithResources(b.Resources()),
		router.WithNotFound(func(_ context.Context, captures ...string) error {
			path := ""
			if len(captures) > 0 {
				path = captures[0]
			}
			return src.SendError("Page not found: " + path)
		}),
	)
	rt := router.New()
	if err := rt.Configure(opts...); err != nil {
		return nil, err
	}

	var mw []router.Middleware
	if s.metrics != nil {
		mw = append(mw, s.metrics)
	}
	mw = append(mw, middleware.OpenTelemetry(), reportErrors(src))
	rt.Use(mw...)

	routes := s.routes
	if routes == nil {
		routes = b.Routes()
	}
	if err := rt.Mount(routes); err != nil {
		return nil, err
	}
	return &page{src: src, blog: b, router: rt}, nil
}

// runPage serves the page until the browser goes away.
func (s *Server) runPage(ctx context.Context, p *page) {
	done := make(chan error, 1)
	go func() {
		done <- p.src.Run(ctx)
	}()
	defer p.router.Destroy()

	if err := p.src.WaitReady(ctx); err != nil {
		s.logger.Debug("server: page closed before hello", "error", err)
		<-done
		return
	}

	if err := p.blog.Site.Load(ctx); err != nil {
		s.logger.Error("server: load site", "error", err)
		_ = p.src.SendError(err.Error())
	}
	if err := p.router.Init(p.src, "/"); err != nil {
		s.logger.Error("server: init router", "error", err)
		_ = p.src.SendError(err.Error())
	}

	if err := <-done; err != nil {
		s.logger.Debug("server: page closed", "error", err)
		middleware.RecordSocketError("read")
	}
}

// reportErrors shows navigation errors in the page.
func reportErrors(src *navsocket.Source) router.Middleware {
	return router.MiddlewareFunc(func(ctx context.Context, nav *router.Navigation, next func(context.Context) error) error {
		err := next(ctx)
		if err != nil && !errors.Is(err, router.ErrStop) {
			_ = src.SendError(err.Error())
		}
		return err
	})
}
