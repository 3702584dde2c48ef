// Package pq implements the binary min-heap used as the A* open set.
package pq

import "container/heap"

// Entry is one element of the queue: an opaque payload ordered by Priority,
// with ties broken by insertion order (seq), matching the teacher's
// NodePriorityQueue semantics where equal-F nodes keep heap-insertion order.
type Entry struct {
	Value    interface{}
	Priority float64
	seq      int
	index    int
}

// innerHeap is the container/heap.Interface implementation; Queue wraps it
// so callers never see raw heap.Push/heap.Pop semantics.
type innerHeap []*Entry

func (h innerHeap) Len() int { return len(h) }

func (h innerHeap) Less(i, j int) bool {
	if h[i].Priority == h[j].Priority {
		return h[i].seq < h[j].seq
	}
	return h[i].Priority < h[j].Priority
}

func (h innerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *innerHeap) Push(x interface{}) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *innerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue is a binary min-heap over values ordered by an ascending priority.
type Queue struct {
	h   innerHeap
	seq int
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{}
}

// Count returns the number of queued entries.
func (q *Queue) Count() int { return q.h.Len() }

// Enqueue pushes value with the given priority in O(log n).
func (q *Queue) Enqueue(value interface{}, priority float64) *Entry {
	e := &Entry{Value: value, Priority: priority, seq: q.seq}
	q.seq++
	heap.Push(&q.h, e)
	return e
}

// Dequeue removes and returns the minimum-priority entry's value in
// O(log n). ok is false when the queue is empty.
func (q *Queue) Dequeue() (value interface{}, ok bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	e := heap.Pop(&q.h).(*Entry)
	return e.Value, true
}

// Peek returns the minimum-priority value without removing it.
func (q *Queue) Peek() (value interface{}, ok bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	return q.h[0].Value, true
}

// Update changes an already-queued entry's priority and re-establishes the
// heap invariant, mirroring the teacher's NodePriorityQueue.Update.
func (q *Queue) Update(e *Entry, priority float64) {
	e.Priority = priority
	heap.Fix(&q.h, e.index)
}
