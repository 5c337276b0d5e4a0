// Package feed implements a synchronous one-to-many value feed.
package feed

import "sync"

// Feed delivers every sent value to the subscribers registered at the time of
// Send, synchronously and in subscription order. Subscribers registered later
// only see later values. The zero value is ready to use.
type Feed[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (f *Feed[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	id := f.nextID
	f.subs = append(f.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, s := range f.subs {
			if s.id == id {
				f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
				return
			}
		}
	}
}

// Send calls every current subscriber with v and returns how many were called.
// Subscribers may subscribe or unsubscribe from within their callback.
func (f *Feed[T]) Send(v T) int {
	f.mu.Lock()
	subs := make([]subscriber[T], len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
	return len(subs)
}

// Len returns the number of current subscribers.
func (f *Feed[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
