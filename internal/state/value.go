// Package state holds observable values shared between a single writer and any
// number of readers.
package state

import "sync"

// Value is an observable container. One component owns each Value and is the
// only caller of Set; readers call Get or Subscribe.
type Value[T any] struct {
	mu     sync.RWMutex
	v      T
	clone  func(T) T
	nextID int
	subs   map[int]chan T
}

type Option[T any] func(*Value[T])

// WithClone makes every subscriber receive its own copy, so a reader that
// modifies what it received cannot change the stored value.
func WithClone[T any](clone func(T) T) Option[T] {
	return func(s *Value[T]) { s.clone = clone }
}

func NewValue[T any](initial T, opts ...Option[T]) *Value[T] {
	s := &Value[T]{
		v:    initial,
		subs: make(map[int]chan T),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the latest value.
func (s *Value[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

// Set replaces the value and publishes it. Subscribers that have not consumed
// the previous publication only see the newest one.
func (s *Value[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
	for _, ch := range s.subs {
		publish(ch, s.copyOf(v))
	}
}

// Subscribe returns a channel primed with the current value and a cancel func.
// Cancel closes the channel and may be called more than once.
func (s *Value[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, 1)
	ch <- s.copyOf(s.v)
	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Value[T]) copyOf(v T) T {
	if s.clone == nil {
		return v
	}
	return s.clone(v)
}

func publish[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		// drop the stale value nobody read yet
		select {
		case <-ch:
		default:
		}
	}
}
