// Package boundedlist provides a most-recent-first list with a fixed capacity.
// Pushing to the front and trimming to the cap happen as one operation, so the
// list can never be observed above its capacity.
package boundedlist

import "sync"

// List is a thread-safe, bounded, most-recent-first list.
type List[T any] struct {
	mu    sync.RWMutex
	cap   int
	items []T
}

// New creates an empty list with the given capacity. A capacity below 1 is
// treated as 1.
func New[T any](capacity int) *List[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &List[T]{cap: capacity}
}

// PushFront prepends item and drops the oldest entries beyond the capacity.
func (l *List[T]) PushFront(item T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]T{item}, l.items...)
	if len(l.items) > l.cap {
		l.items = l.items[:l.cap]
	}
}

// PushFrontAll prepends items in order (items[0] ends up newest) and trims.
func (l *List[T]) PushFrontAll(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(append([]T{}, items...), l.items...)
	if len(l.items) > l.cap {
		l.items = l.items[:l.cap]
	}
}

// Items returns a snapshot of the list, newest first.
func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// First returns up to n entries from the front, newest first.
func (l *List[T]) First(n int) []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n > len(l.items) {
		n = len(l.items)
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, n)
	copy(out, l.items[:n])
	return out
}

// Len returns the current number of entries.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Cap returns the capacity.
func (l *List[T]) Cap() int {
	return l.cap
}
