// Package queue buffers records between the goroutine that produces them
// and the periodic writer that stores them.
package queue

import (
	"sync"
)

// Queue is a thread-safe FIFO with an optional bound. When full, the
// oldest items are dropped to make room.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped uint64
}

// New creates an empty queue holding at most limit items. A limit of zero
// or less means unbounded.
func New[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: limit}
}

// Push appends items and returns how many old items were dropped.
func (q *Queue[T]) Push(items ...T) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
	return q.trim()
}

// Requeue puts items back at the front, ahead of anything pushed since
// they were drained. It returns how many items were dropped.
func (q *Queue[T]) Requeue(items []T) int {
	if len(items) == 0 {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	merged := make([]T, 0, len(items)+len(q.items))
	merged = append(merged, items...)
	q.items = append(merged, q.items...)
	return q.trim()
}

// trim drops the oldest items over the limit. Callers hold mu.
func (q *Queue[T]) trim() int {
	if q.limit <= 0 || len(q.items) <= q.limit {
		return 0
	}
	n := len(q.items) - q.limit
	var zero T
	for i := 0; i < n; i++ {
		q.items[i] = zero
	}
	q.items = q.items[n:]
	q.dropped += uint64(n)
	return n
}

// Drain removes and returns up to max of the oldest items. A max of zero
// or less drains everything.
func (q *Queue[T]) Drain(max int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max <= 0 || max >= len(q.items) {
		out := q.items
		q.items = nil
		return out
	}
	out := make([]T, max)
	copy(out, q.items[:max])
	q.items = q.items[max:]
	return out
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many items have been dropped since creation.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
