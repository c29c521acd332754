// Package pqueue provides an indexable binary max-heap.
//
// Items carry their own slot index, so membership tests are O(1) and an
// item whose priority changed after insertion can be re-sifted in O(log n)
// without a search. Ordering is supplied by the caller as a "higher"
// function rather than embedded in the item type; a min-queue is simply a
// max-queue whose higher function prefers smaller keys.
package pqueue

import "errors"

// ErrEmptyQueue is returned when popping or peeking an empty queue
var ErrEmptyQueue = errors.New("pqueue: empty queue")

// Item is implemented by values stored in a Queue.
// Items are tracked by identity, so T is normally a pointer type.
type Item interface {
	comparable
	HeapIndex() int
	SetHeapIndex(int)
}

// Queue is an indexable binary max-heap under a caller-supplied ordering.
// It is not safe for concurrent use.
type Queue[T Item] struct {
	items  []T
	higher func(a, b T) bool
}

// New creates a queue that pops the item for which higher(item, other)
// holds against every other item. capacity is a sizing hint; the queue grows
// as needed.
func New[T Item](higher func(a, b T) bool, capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[T]{
		items:  make([]T, 0, capacity),
		higher: higher,
	}
}

// Count returns the number of enqueued items
func (q *Queue[T]) Count() int {
	return len(q.items)
}

// Add inserts item and sifts it up into place
func (q *Queue[T]) Add(item T) {
	item.SetHeapIndex(len(q.items))
	q.items = append(q.items, item)
	q.siftUp(item.HeapIndex())
}

// Pop removes and returns the highest item
func (q *Queue[T]) Pop() (T, error) {
	var zero T
	if len(q.items) == 0 {
		return zero, ErrEmptyQueue
	}

	first := q.items[0]
	last := len(q.items) - 1
	q.items[0] = q.items[last]
	q.items[0].SetHeapIndex(0)
	q.items[last] = zero
	q.items = q.items[:last]

	if len(q.items) > 0 {
		q.siftDown(0)
	}
	first.SetHeapIndex(-1)
	return first, nil
}

// Contains reports whether item is currently enqueued in this queue
func (q *Queue[T]) Contains(item T) bool {
	i := item.HeapIndex()
	return i >= 0 && i < len(q.items) && q.items[i] == item
}

// Update restores heap order after item's priority changed.
// It is a no-op if item is not enqueued.
func (q *Queue[T]) Update(item T) {
	if !q.Contains(item) {
		return
	}
	i := item.HeapIndex()
	if i > 0 && q.higher(item, q.items[(i-1)/2]) {
		q.siftUp(i)
		return
	}
	q.siftDown(i)
}

// Clear empties the queue and marks every removed item as not enqueued
func (q *Queue[T]) Clear() {
	var zero T
	for i, item := range q.items {
		item.SetHeapIndex(-1)
		q.items[i] = zero
	}
	q.items = q.items[:0]
}

func (q *Queue[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.higher(q.items[i], q.items[parent]) {
			return
		}
		q.swap(i, parent)
		i = parent
	}
}

func (q *Queue[T]) siftDown(i int) {
	n := len(q.items)
	for {
		left := 2*i + 1
		if left >= n {
			return
		}
		// Left child wins ties
		child := left
		if right := left + 1; right < n && q.higher(q.items[right], q.items[left]) {
			child = right
		}
		if !q.higher(q.items[child], q.items[i]) {
			return
		}
		q.swap(i, child)
		i = child
	}
}

func (q *Queue[T]) swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].SetHeapIndex(i)
	q.items[j].SetHeapIndex(j)
}
