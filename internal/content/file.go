package content

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	werrors "github.com/vango-dev/waypoint/internal/errors"
)

// FileBackend reads documents from a directory.
type FileBackend struct {
	root string
}

// NewFileBackend creates a backend rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{root: dir}
}

// Root returns the directory documents are read from.
func (b *FileBackend) Root() string {
	return b.root
}

// Read implements Backend.
func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return nil, notFound(name, nil)
	}

	data, err := os.ReadFile(filepath.Join(b.root, filepath.FromSlash(name)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(name, err)
		}
		return nil, werrors.New("W302").WithDetailf("read %s", name).Wrap(err)
	}
	return data, nil
}

// Watcher invalidates a Store when files under a FileBackend change.
type Watcher struct {
	store   *Store
	root    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// OnChange, if set, is called with each invalidated document name.
	OnChange func(name string)
}

// NewWatcher watches root and every directory below it.
func NewWatcher(store *Store, root string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{store: store, root: root, watcher: fw, logger: logger}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// Run handles file events until ctx is cancelled, then closes the
// watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("content: watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("content: watch directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	name := filepath.ToSlash(rel)

	start := time.Now()
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// a vanished directory cannot be told from a file
		w.store.InvalidateTree(name)
	} else {
		w.store.Invalidate(name)
	}
	w.logger.Debug("content: invalidated", "name", name, "op", event.Op.String(), "took", time.Since(start))

	if w.OnChange != nil {
		w.OnChange(name)
	}
}
