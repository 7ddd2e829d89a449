// Package observable provides a list whose replacement is pushed to subscribers.
package observable

import "sync"

// List holds the latest snapshot of a sequence and notifies subscribers when it is replaced.
// Subscribers are called synchronously, in subscription order, on the goroutine calling Replace.
type List[T any] struct {
	mu sync.RWMutex

	items       []T
	fetched     bool
	nextID      int
	subscribers map[int]func([]T)
	order       []int
}

// NewList creates an empty, unfetched list.
func NewList[T any]() *List[T] {
	return &List[T]{
		subscribers: make(map[int]func([]T)),
	}
}

// Subscribe registers fn to receive each replacement. The returned func removes it.
func (l *List[T]) Subscribe(fn func([]T)) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextID
	l.nextID++
	l.subscribers[id] = fn
	l.order = append(l.order, id)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()

		delete(l.subscribers, id)
		for i, v := range l.order {
			if v == id {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
}

// Replace swaps in a new snapshot, marks the list fetched and notifies subscribers.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	l.items = append([]T(nil), items...)
	l.fetched = true

	fns := make([]func([]T), 0, len(l.order))
	for _, id := range l.order {
		fns = append(fns, l.subscribers[id])
	}
	snapshot := l.items
	l.mu.Unlock()

	// outside the lock so subscribers may read the list
	for _, fn := range fns {
		fn(append([]T(nil), snapshot...))
	}
}

// Items returns a copy of the current snapshot.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]T(nil), l.items...)
}

// Len returns the number of items in the current snapshot.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.items)
}

// Fetched reports whether Replace has been called at least once.
func (l *List[T]) Fetched() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.fetched
}
