package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/waypoint/internal/content"
	werrors "github.com/vango-dev/waypoint/internal/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) apiSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.Settings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) apiCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// apiPosts lists the post index, optionally filtered by ?category=.
func (s *Server) apiPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.Posts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := make([]content.Post, 0, len(posts))
		for _, p := range posts {
			if p.Categories == category {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}
	writeJSON(w, http.StatusOK, posts)
}

// serveArticle serves an article body as stored, for the markdown
// sources the page links to.
func (s *Server) serveArticle(w http.ResponseWriter, r *http.Request) {
	link := path.Join("articles", chi.URLParam(r, "*"))
	if !strings.HasPrefix(link, "articles/") {
		http.NotFound(w, r)
		return
	}
	body, err := s.store.Article(r.Context(), link)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctype := mime.TypeByExtension(path.Ext(link))
	switch path.Ext(link) {
	case ".md", ".markdown":
		ctype = "text/markdown; charset=utf-8"
	}
	if ctype == "" {
		ctype = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Error: "internal error"}

	var we *werrors.WaypointError
	if errors.As(err, &we) {
		resp.Code = we.Code
	}
	switch {
	case content.IsNotFound(err):
		status = http.StatusNotFound
		resp.Error = "not found"
	case resp.Code == "W302":
		resp.Error = "malformed content"
	}

	s.logger.Warn("server: request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err,
		"request_id", chimw.GetReqID(r.Context()),
	)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
