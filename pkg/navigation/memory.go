// Package navigation provides in-process navigation sources for the
// router: a history stack that behaves like a browser's location hash or
// pushState history, without a browser.
package navigation

import (
	"fmt"
	"sync"

	"github.com/vango-dev/waypoint/pkg/routepath"
)

// NavigateOptions configures one navigation.
type NavigateOptions struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Silent updates the entry without notifying subscribers.
	Silent bool
}

// NavigateOption is a functional option for Navigate.
type NavigateOption func(*NavigateOptions)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() NavigateOption {
	return func(o *NavigateOptions) {
		o.Replace = true
	}
}

// WithSilent suppresses the change notification.
func WithSilent() NavigateOption {
	return func(o *NavigateOptions) {
		o.Silent = true
	}
}

// Option configures a Memory source.
type Option func(*Memory)

// UseFragment selects hash mode: entries are stored and reported as
// location hashes ("#/blog"). It is on by default.
func UseFragment(enabled bool) Option {
	return func(m *Memory) {
		m.fragment = enabled
	}
}

// WithInitial sets the first history entry.
func WithInitial(value string) Option {
	return func(m *Memory) {
		m.initial = value
	}
}

// Memory is an in-memory navigation history. It implements the router's
// NavigationSource and Pusher interfaces.
//
// As in a browser, navigating to the current entry pushes nothing and
// notifies nobody.
type Memory struct {
	mu       sync.Mutex
	fragment bool
	initial  string
	entries  []string
	index    int
	subs     map[int]func(string)
	nextID   int
}

// NewMemory creates a history holding one entry (empty unless
// WithInitial is given).
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		fragment: true,
		subs:     make(map[int]func(string)),
	}
	for _, opt := range opts {
		opt(m)
	}

	first := ""
	if m.initial != "" {
		if v, err := m.encode(m.initial); err == nil {
			first = v
		}
	}
	m.entries = []string{first}
	return m
}

// encode normalises value into the stored form.
func (m *Memory) encode(value string) (string, error) {
	res, err := routepath.Normalize(value, !m.fragment)
	if err != nil {
		return "", fmt.Errorf("navigation: %q: %w", value, err)
	}
	out := res.Path
	if res.Query != "" {
		out += "?" + res.Query
	}
	if m.fragment {
		return "#" + out, nil
	}
	return out, nil
}

// Current returns the current entry.
func (m *Memory) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Subscribe registers fn to be called with the new entry after every
// change. The returned function removes it.
func (m *Memory) Subscribe(fn func(path string)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Push navigates to value, dropping any forward entries.
func (m *Memory) Push(value string) error {
	return m.Navigate(value)
}

// Replace navigates to value in place of the current entry.
func (m *Memory) Replace(value string) error {
	return m.Navigate(value, WithReplace())
}

// Navigate moves to value.
func (m *Memory) Navigate(value string, opts ...NavigateOption) error {
	var options NavigateOptions
	for _, opt := range opts {
		opt(&options)
	}

	encoded, err := m.encode(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.entries[m.index] == encoded {
		m.mu.Unlock()
		return nil
	}
	if options.Replace {
		m.entries[m.index] = encoded
	} else {
		m.entries = append(m.entries[:m.index+1], encoded)
		m.index++
	}
	subs := m.subscribersLocked()
	m.mu.Unlock()

	if !options.Silent {
		notify(subs, encoded)
	}
	return nil
}

// Back moves one entry back. It reports false at the first entry.
func (m *Memory) Back() bool {
	return m.Go(-1)
}

// Forward moves one entry forward. It reports false at the last entry.
func (m *Memory) Forward() bool {
	return m.Go(1)
}

// Go moves delta entries through the history. It reports false, and does
// nothing, when the target is out of range.
func (m *Memory) Go(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = target
	value := m.entries[target]
	subs := m.subscribersLocked()
	m.mu.Unlock()

	notify(subs, value)
	return true
}

// Len returns the number of history entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries returns a copy of the history and the current index.
func (m *Memory) Entries() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...), m.index
}

func (m *Memory) subscribersLocked() []func(string) {
	subs := make([]func(string), 0, len(m.subs))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

// notify runs outside the lock so subscribers may navigate again.
func notify(subs []func(string), value string) {
	for _, fn := range subs {
		fn(value)
	}
}
