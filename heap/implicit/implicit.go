// Package implicit implements the implicit d-ary heap: a contiguous
// array indexed 0-based with branching factor D.
//
// Nodes are boxed (one *Node per element, held in the array rather than
// the array holding values directly) so that a Handle returned by
// Insert stays valid and dereferenceable across every subsequent sift:
// siftUp/siftDown move *pointers* between array slots and update each
// node's own idx field, never the node's address.
package implicit

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// Node is the boxed element type implicit heaps allocate through an
// Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key  K
	item V
	idx  int // current position in Heap.arr
}

// Heap is an implicit d-ary addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	d     int
	arr   []*Node[K, V]
	alloc allocator.Allocator[Node[K, V]]
	size  int
}

// New constructs an implicit heap with branching factor d (conventionally
// 2, 4, 8, or 16, though any d >= 2 works) backed by alloc.
func New[K cmp.Ordered, V any](d int, alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	if d < 2 {
		d = 2
	}
	return &Heap[K, V]{d: d, alloc: alloc}
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	n.idx = len(h.arr)
	h.arr = append(h.arr, n)
	h.size++
	h.siftUp(n.idx)
	return n
}

func (h *Heap[K, V]) siftUp(i int) {
	node := h.arr[i]
	for i > 0 {
		parent := (i - 1) / h.d
		if !(node.key < h.arr[parent].key) {
			break
		}
		h.arr[i] = h.arr[parent]
		h.arr[i].idx = i
		i = parent
	}
	h.arr[i] = node
	node.idx = i
}

func (h *Heap[K, V]) siftDown(i int) {
	node := h.arr[i]
	n := len(h.arr)
	for {
		first := h.d*i + 1
		if first >= n {
			break
		}
		best := first
		last := first + h.d
		if last > n {
			last = n
		}
		for c := first + 1; c < last; c++ {
			if h.arr[c].key < h.arr[best].key {
				best = c
			}
		}
		if !(h.arr[best].key < node.key) {
			break
		}
		h.arr[i] = h.arr[best]
		h.arr[i].idx = i
		i = best
	}
	h.arr[i] = node
	node.idx = i
}

func (h *Heap[K, V]) FindMin() (pqueue.Handle, bool) {
	if h.size == 0 {
		return nil, false
	}
	return h.arr[0], true
}

func (h *Heap[K, V]) DeleteMin() K {
	min := h.arr[0]
	key := min.key
	last := h.arr[len(h.arr)-1]
	h.arr = h.arr[:len(h.arr)-1]
	h.size--
	if len(h.arr) > 0 {
		h.arr[0] = last
		last.idx = 0
		h.siftDown(0)
	}
	h.alloc.Free(min)
	return key
}

// Delete does not support arbitrary-node deletion in the implicit
// representation and reports (0, false) instead. Callers needing
// arbitrary delete should use a pointer-linked variant (explicit,
// binomial, pairing, ...).
func (h *Heap[K, V]) Delete(pqueue.Handle) (K, bool) {
	var zero K
	return zero, false
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	h.siftUp(n.idx)
}

func (h *Heap[K, V]) GetKey(handle pqueue.Handle) K {
	return handle.(*Node[K, V]).key
}

func (h *Heap[K, V]) GetItem(handle pqueue.Handle) *V {
	return &handle.(*Node[K, V]).item
}

func (h *Heap[K, V]) Size() int { return h.size }

func (h *Heap[K, V]) Empty() bool { return h.size == 0 }

func (h *Heap[K, V]) Clear() {
	for _, n := range h.arr {
		h.alloc.Free(n)
	}
	h.arr = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
