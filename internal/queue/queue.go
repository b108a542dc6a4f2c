// Package queue provides a bounded priority queue used for top-k selection.
package queue

import "errors"

// ErrFull is returned by Offer when the queue already holds Cap elements.
// The caller must Poll (evict) before offering a replacement.
var ErrFull = errors.New("queue: at capacity")

// Bounded is a fixed-capacity binary heap with value-based storage.
//
// The ordering is defined by the less function supplied at construction:
// less(a, b) reports whether a must sit closer to the top of the heap
// than b. For top-k selection over distances, pass a "greater distance
// first" comparator so that Peek always exposes the current worst entry.
type Bounded[T any] struct {
	less     func(a, b T) bool
	capacity int
	items    []T
}

// NewBounded creates a bounded heap with the given capacity and ordering.
func NewBounded[T any](capacity int, less func(a, b T) bool) *Bounded[T] {
	return &Bounded[T]{
		less:     less,
		capacity: capacity,
		items:    make([]T, 0, capacity),
	}
}

// Len returns the number of elements currently held.
func (q *Bounded[T]) Len() int { return len(q.items) }

// Cap returns the fixed capacity of the queue.
func (q *Bounded[T]) Cap() int { return q.capacity }

// Full reports whether the queue holds Cap elements.
func (q *Bounded[T]) Full() bool { return len(q.items) >= q.capacity }

// Peek returns the top element without removing it.
func (q *Bounded[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	return q.items[0], true
}

// Offer inserts an item while maintaining the heap invariant.
// It returns ErrFull if the queue is at capacity.
func (q *Bounded[T]) Offer(item T) error {
	if q.Full() {
		return ErrFull
	}

	q.items = append(q.items, item)
	q.siftUp(len(q.items) - 1)

	return nil
}

// Poll removes and returns the top element while maintaining the heap invariant.
func (q *Bounded[T]) Poll() (T, bool) {
	n := len(q.items)
	if n == 0 {
		var zero T
		return zero, false
	}

	root := q.items[0]
	last := q.items[n-1]

	var zero T
	q.items[n-1] = zero // Zero out for GC
	q.items = q.items[:n-1]

	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}

	return root, true
}

// Reset clears the queue for reuse. Held elements are dropped, not released;
// callers owning pooled entries must drain via Poll first.
func (q *Bounded[T]) Reset() {
	var zero T
	for i := range q.items {
		q.items[i] = zero
	}
	q.items = q.items[:0]
}

func (q *Bounded[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(q.items[i], q.items[p]) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *Bounded[T]) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(q.items[r], q.items[l]) {
			best = r
		}
		if !q.less(q.items[best], q.items[i]) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
