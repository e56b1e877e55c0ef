/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package priority_queue provides a keyed min-priority queue.
package priority_queue

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

type entry[K comparable, P constraints.Ordered] struct {
	key      K
	priority P
	index    int
}

type entries[K comparable, P constraints.Ordered] []*entry[K, P]

func (e entries[K, P]) Len() int           { return len(e) }
func (e entries[K, P]) Less(i, j int) bool { return e[i].priority < e[j].priority }

func (e entries[K, P]) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
	e[i].index = i
	e[j].index = j
}

func (e *entries[K, P]) Push(x any) {
	it := x.(*entry[K, P])
	it.index = len(*e)
	*e = append(*e, it)
}

func (e *entries[K, P]) Pop() any {
	old := *e
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*e = old[:n-1]
	return it
}

// Queue is a min-priority queue holding at most one entry per key.
// It is not safe for concurrent use.
type Queue[K comparable, P constraints.Ordered] struct {
	heap  entries[K, P]
	index map[K]*entry[K, P]
}

// New creates an empty queue.
func New[K comparable, P constraints.Ordered]() *Queue[K, P] {
	return &Queue[K, P]{index: make(map[K]*entry[K, P])}
}

// Len returns the number of keys in the queue.
func (q *Queue[K, P]) Len() int {
	return len(q.heap)
}

// Set inserts key with priority, or moves an existing key to the new priority.
func (q *Queue[K, P]) Set(key K, priority P) {
	if it, ok := q.index[key]; ok {
		it.priority = priority
		heap.Fix(&q.heap, it.index)
		return
	}
	it := &entry[K, P]{key: key, priority: priority}
	q.index[key] = it
	heap.Push(&q.heap, it)
}

// Remove drops key from the queue. It reports whether key was present.
func (q *Queue[K, P]) Remove(key K) bool {
	it, ok := q.index[key]
	if !ok {
		return false
	}
	heap.Remove(&q.heap, it.index)
	delete(q.index, key)
	return true
}

// Peek returns the key with the minimum priority without removing it.
func (q *Queue[K, P]) Peek() (key K, priority P, ok bool) {
	if len(q.heap) == 0 {
		return key, priority, false
	}
	return q.heap[0].key, q.heap[0].priority, true
}

// Pop removes and returns the key with the minimum priority.
func (q *Queue[K, P]) Pop() (key K, priority P, ok bool) {
	if len(q.heap) == 0 {
		return key, priority, false
	}
	it := heap.Pop(&q.heap).(*entry[K, P])
	delete(q.index, it.key)
	return it.key, it.priority, true
}

// PopUntil removes and returns, in priority order, every key whose priority
// is not greater than limit.
func (q *Queue[K, P]) PopUntil(limit P) []K {
	var keys []K
	for len(q.heap) > 0 && q.heap[0].priority <= limit {
		k, _, _ := q.Pop()
		keys = append(keys, k)
	}
	return keys
}
