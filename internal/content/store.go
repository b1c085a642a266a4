package content

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	werrors "github.com/vango-dev/waypoint/internal/errors"
)

// Store caches documents read from a Backend. Concurrent reads of the
// same document share one backend call.
type Store struct {
	backend Backend
	logger  *slog.Logger

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string][]byte

	// gen counts invalidations; a read that spans one is not cached.
	gen uint64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store reading from backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		cache:   make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Reader = (*Store)(nil)

// Settings returns the decoded settings.json.
func (s *Store) Settings(ctx context.Context) (*Settings, error) {
	var settings Settings
	if err := s.decode(ctx, SettingsFile, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Categories returns the channels of categories.json in file order.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	var channels []Category
	if err := s.decode(ctx, CategoriesFile, &channels); err != nil {
		return nil, err
	}

	out := channels[:0]
	for _, c := range channels {
		if c.Name != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

// Posts returns the posts of posts.json in file order. Posts without a
// link are skipped.
func (s *Store) Posts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := s.decode(ctx, PostsFile, &posts); err != nil {
		return nil, err
	}

	out := posts[:0]
	for _, p := range posts {
		if p.Link != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Article returns the raw body of the article at link.
func (s *Store) Article(ctx context.Context, link string) ([]byte, error) {
	name, err := Clean(link)
	if err != nil {
		return nil, err
	}
	return s.Read(ctx, name)
}

// Read returns the raw document name, from cache when possible.
func (s *Store) Read(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return data, nil
	}

	// the read is shared, so one caller giving up must not fail the rest
	readCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(name, func() (any, error) {
		s.mu.RLock()
		gen := s.gen
		s.mu.RUnlock()

		data, err := s.backend.Read(readCtx, name)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.gen == gen {
			s.cache[name] = data
		}
		s.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("content: loaded", "name", name, "bytes", len(v.([]byte)), "shared", shared)
	return v.([]byte), nil
}

// Invalidate drops the named documents from the cache, or every document
// when called without names.
func (s *Store) Invalidate(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if len(names) == 0 {
		s.cache = make(map[string][]byte)
		return
	}
	for _, name := range names {
		delete(s.cache, name)
		s.group.Forget(name)
	}
}

// InvalidateTree drops dir and every document below it.
func (s *Store) InvalidateTree(dir string) {
	dir = strings.TrimSuffix(dir, "/")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for name := range s.cache {
		if name == dir || strings.HasPrefix(name, dir+"/") {
			delete(s.cache, name)
			s.group.Forget(name)
		}
	}
}

func (s *Store) decode(ctx context.Context, name string, v any) error {
	data, err := s.Read(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return werrors.New("W302").WithDetailf("%s: %v", name, err).Wrap(err)
	}
	return nil
}

// Clean validates a document name taken from a URL and returns it in
// canonical form. Absolute names and names escaping the root are
// rejected.
func Clean(name string) (string, error) {
	name = strings.TrimPrefix(name, "./")
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return "", werrors.New("W301").WithDetailf("invalid document name %q", name)
	}
	cleaned := path.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", werrors.New("W301").WithDetailf("invalid document name %q", name)
	}
	return cleaned, nil
}

func notFound(name string, err error) error {
	we := werrors.New("W301").WithDetailf("no document %q", name)
	if err != nil {
		we = we.Wrap(err)
	}
	return we
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	var we *werrors.WaypointError
	return errors.As(err, &we) && we.Code == "W301"
}
