// Package navsocket carries navigation over a websocket: the browser
// reports hashchange and popstate events, the server pushes navigations
// and HTML fragment updates back.
//
// A Source implements the router's NavigationSource and Pusher
// interfaces, so one router can follow one connected page.
package navsocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	werrors "github.com/vango-dev/waypoint/internal/errors"
)

// MessageType is the type of a socket message.
type MessageType string

const (
	// sent by the browser
	TypeHello      MessageType = "hello"
	TypeHashChange MessageType = "hashchange"
	TypePopState   MessageType = "popstate"

	// sent by the server
	TypeNavigate MessageType = "navigate"
	TypeRender   MessageType = "render"
	TypeError    MessageType = "error"
)

// Message is the JSON frame exchanged with the browser.
type Message struct {
	Type   MessageType `json:"type"`
	Path   string      `json:"path,omitempty"`
	Target string      `json:"target,omitempty"`
	HTML   string      `json:"html,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// ErrClosed is returned by writes on a closed source.
var ErrClosed error = werrors.New("W204")

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithWriteTimeout bounds every write. Zero disables the deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.writeTimeout = d
	}
}

// Source is one connected page.
type Source struct {
	conn         *websocket.Conn
	logger       *slog.Logger
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	current string
	subs    map[int]func(string)
	nextID  int

	ready     chan struct{}
	readyOnce sync.Once
	closed    chan struct{}
	closeOnce sync.Once
}

// NewSource wraps an established connection. Call Run to start reading.
func NewSource(conn *websocket.Conn, opts ...Option) *Source {
	s := &Source{
		conn:         conn,
		logger:       slog.Default(),
		writeTimeout: 10 * time.Second,
		subs:         make(map[int]func(string)),
		ready:        make(chan struct{}),
		closed:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads messages until the connection closes or ctx is done. Subscribers
// are called on the reading goroutine, in arrival order.
func (s *Source) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.Close()
	})
	defer stop()
	defer s.Close()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closed:
				return nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return werrors.New("W204").Wrap(err)
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Warn("navsocket: malformed message", "error", err)
			continue
		}
		s.handle(msg)
	}
}

func (s *Source) handle(msg Message) {
	switch msg.Type {
	case TypeHello:
		s.mu.Lock()
		s.current = msg.Path
		s.mu.Unlock()
		s.readyOnce.Do(func() { close(s.ready) })

	case TypeHashChange, TypePopState:
		s.mu.Lock()
		s.current = msg.Path
		subs := make([]func(string), 0, len(s.subs))
		for id := 0; id < s.nextID; id++ {
			if fn, ok := s.subs[id]; ok {
				subs = append(subs, fn)
			}
		}
		s.mu.Unlock()

		s.logger.Debug("navsocket: navigation", "type", string(msg.Type), "path", msg.Path)
		for _, fn := range subs {
			fn(msg.Path)
		}

	default:
		s.logger.Warn("navsocket: unknown message type", "type", string(msg.Type))
	}
}

// Ready is closed once the browser has reported its location.
func (s *Source) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until the browser has reported its location, the
// connection closes or ctx is done.
func (s *Source) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the last location reported by the browser.
func (s *Source) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe registers fn for location changes reported by the browser.
func (s *Source) Subscribe(fn func(path string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Push asks the browser to navigate. The resulting hashchange or popstate
// message notifies subscribers.
func (s *Source) Push(path string) error {
	return s.send(Message{Type: TypeNavigate, Path: path})
}

// Render replaces the contents of the element matched by target.
func (s *Source) Render(target, html string) error {
	return s.send(Message{Type: TypeRender, Target: target, HTML: html})
}

// SendError shows an error message in the page.
func (s *Source) SendError(msg string) error {
	return s.send(Message{Type: TypeError, Error: msg})
}

func (s *Source) send(msg Message) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return werrors.New("W204").Wrap(err)
	}
	return nil
}

// Close closes the connection. It is safe to call more than once.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// Done is closed when the source is closed.
func (s *Source) Done() <-chan struct{} {
	return s.closed
}

// Upgrader turns HTTP requests into Sources.
type Upgrader struct {
	upgrader websocket.Upgrader
	opts     []Option
}

// NewUpgrader creates an upgrader. checkOrigin may be nil to accept same
// origin requests only.
func NewUpgrader(checkOrigin func(r *http.Request) bool, opts ...Option) *Upgrader {
	return &Upgrader{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		opts: opts,
	}
}

// Upgrade upgrades the request and wraps the connection.
func (u *Upgrader) Upgrade(w http.ResponseWriter, r *http.Request) (*Source, error) {
	conn, err := u.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewSource(conn, u.opts...), nil
}
