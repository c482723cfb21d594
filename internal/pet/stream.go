package pet

import (
	"log/slog"
	"sync"
)

// Stream fans values out to any number of subscribers without ever blocking
// the publisher. Each subscriber owns a small buffered channel.
//
// A replaying stream behaves like a state cell: new subscribers receive the
// latest value immediately and a slow subscriber only ever misses
// intermediate values, never the newest one. A non-replaying stream is an
// event feed; when a subscriber's buffer is full the event is dropped for
// that subscriber and logged.
type Stream[T any] struct {
	name   string
	replay bool
	buf    int

	mu      sync.Mutex
	latest  T
	version uint64
	subs    map[chan T]struct{}
	closed  bool
}

func newStateStream[T any](name string, initial T) *Stream[T] {
	return &Stream[T]{
		name:   name,
		replay: true,
		buf:    1,
		latest: initial,
		subs:   make(map[chan T]struct{}),
	}
}

func newEventStream[T any](name string, buf int) *Stream[T] {
	if buf < 1 {
		buf = 1
	}
	return &Stream[T]{
		name: name,
		buf:  buf,
		subs: make(map[chan T]struct{}),
	}
}

// Value returns the most recently published value.
func (s *Stream[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once. Subscribing
// to a closed stream yields an already-closed channel.
func (s *Stream[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, s.buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}
	if s.replay {
		ch <- s.latest
	}
	s.subs[ch] = struct{}{}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
	}
}

// publish delivers v to every subscriber. A non-zero version older than or
// equal to the last published one is discarded so that out-of-order
// publishes from concurrent writers cannot regress a replaying stream.
func (s *Stream[T]) publish(version uint64, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if version != 0 {
		if version <= s.version {
			return
		}
		s.version = version
	}
	s.latest = v

	for ch := range s.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		if !s.replay {
			slog.Warn("engine: subscriber too slow, dropping event", "stream", s.name)
			continue
		}
		// Conflate: make room by discarding the stale value.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// close closes every subscriber channel. Later publishes are ignored.
func (s *Stream[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subs {
		close(ch)
	}
	s.subs = nil
}
