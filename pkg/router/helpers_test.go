package router

import (
	"context"
	"strings"
	"sync"
)

// recorder records handler calls as name or name(capture,...).
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (rec *recorder) handler(name string) HandlerFunc {
	return rec.returning(name, nil)
}

func (rec *recorder) returning(name string, err error) HandlerFunc {
	return func(ctx context.Context, captures ...string) error {
		rec.record(name, captures)
		return err
	}
}

func (rec *recorder) record(name string, captures []string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(captures) > 0 {
		name += "(" + strings.Join(captures, ",") + ")"
	}
	rec.calls = append(rec.calls, name)
}

func (rec *recorder) got() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]string(nil), rec.calls...)
}

func (rec *recorder) reset() {
	rec.mu.Lock()
	rec.calls = nil
	rec.mu.Unlock()
}

// fakeSource is an in-memory navigation source.
type fakeSource struct {
	mu      sync.Mutex
	current string
	subs    map[int]func(string)
	next    int
	pushed  []string
}

func newFakeSource(current string) *fakeSource {
	return &fakeSource{current: current, subs: make(map[int]func(string))}
}

func (s *fakeSource) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *fakeSource) Subscribe(fn func(string)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// emit changes the current value and notifies subscribers.
func (s *fakeSource) emit(value string) {
	s.mu.Lock()
	s.current = value
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

func (s *fakeSource) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// pushSource is a fakeSource that supports Push.
type pushSource struct {
	*fakeSource
}

func (s pushSource) Push(path string) error {
	s.mu.Lock()
	s.pushed = append(s.pushed, path)
	s.mu.Unlock()
	s.emit(path)
	return nil
}
