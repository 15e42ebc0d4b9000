package queue

import (
	"sync"
)

// Queue is a mutex-guarded FIFO shared between the recorder and the
// background writer of a storage backend.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items to the queue.
func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Pop removes and returns the first item. ok is false if the queue is empty.
func (q *Queue[T]) Pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return item, false
	}
	item = q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Drain removes and returns up to limit items from the front of the queue,
// in order. A limit <= 0 drains everything.
func (q *Queue[T]) Drain(limit int) []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if limit <= 0 || limit >= len(q.items) {
		result := q.items
		q.items = make([]T, 0, cap(q.items))
		return result
	}
	result := make([]T, limit)
	copy(result, q.items[:limit])
	q.items = q.items[limit:]
	return result
}

// Requeue puts items back at the front of the queue, ahead of anything
// pushed since they were drained. Used after a failed write.
func (q *Queue[T]) Requeue(items []T) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append(make([]T, 0, len(items)+len(q.items)), items...), q.items...)
}
