// Package pairing implements a pairing heap: a single multiary tree
// whose children form a doubly-linked sibling list. The
// previous-sibling pointer of a first child points at its parent
// instead of a sibling, giving an O(1) "am I a first child" test used
// by cut.
//
// Delete's two-pass child-list collapse is iterative (an explicit
// slice of intermediate pairs, not recursion) to bound stack depth on
// heaps with very wide child lists.
package pairing

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// Node is the sibling-linked node type pairing heaps allocate through
// an Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key   K
	item  V
	child *Node[K, V]
	next  *Node[K, V] // next sibling, nil if last
	prev  *Node[K, V] // previous sibling, or parent if this is the first child
}

func isFirstChild[K cmp.Ordered, V any](n *Node[K, V]) bool {
	return n.prev != nil && n.prev.child == n
}

// Heap is a pairing-heap addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc allocator.Allocator[Node[K, V]]
	root  *Node[K, V]
	size  int
}

// New constructs an empty pairing heap backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	return &Heap[K, V]{alloc: alloc}
}

// merge makes the greater-key root the new first child of the other.
func merge[K cmp.Ordered, V any](a, b *Node[K, V]) *Node[K, V] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.key < a.key {
		a, b = b, a
	}
	b.prev = a
	b.next = a.child
	if a.child != nil {
		a.child.prev = b
	}
	a.child = b
	return a
}

// cut detaches n from whatever sibling list currently holds it,
// leaving n.child intact.
func cut[K cmp.Ordered, V any](n *Node[K, V]) {
	if isFirstChild(n) {
		parent := n.prev
		parent.child = n.next
	} else if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.next = nil
	n.prev = nil
}

// twoPassCollapse merges a sibling list (headed by first) into a
// single tree using the iterative two-pass method: left-to-right,
// consecutive pairs are merged into a temporary list; right-to-left,
// that list is folded into one tree.
func twoPassCollapse[K cmp.Ordered, V any](first *Node[K, V]) *Node[K, V] {
	if first == nil {
		return nil
	}
	var pairs []*Node[K, V]
	cur := first
	for cur != nil {
		a := cur
		b := a.next
		if b != nil {
			cur = b.next
			a.next, a.prev = nil, nil
			b.next, b.prev = nil, nil
			pairs = append(pairs, merge(a, b))
		} else {
			a.next, a.prev = nil, nil
			pairs = append(pairs, a)
			cur = nil
		}
	}
	result := pairs[len(pairs)-1]
	for i := len(pairs) - 2; i >= 0; i-- {
		result = merge(pairs[i], result)
	}
	return result
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	h.root = merge(h.root, n)
	h.size++
	return n
}

func (h *Heap[K, V]) FindMin() (pqueue.Handle, bool) {
	if h.size == 0 {
		return nil, false
	}
	return h.root, true
}

func (h *Heap[K, V]) DeleteMin() K {
	old := h.root
	key := old.key
	h.root = twoPassCollapse(old.child)
	h.alloc.Free(old)
	h.size--
	return key
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	n := handle.(*Node[K, V])
	if n == h.root {
		return h.DeleteMin(), true
	}
	key := n.key
	cut(n)
	collapsed := twoPassCollapse(n.child)
	n.child = nil
	h.root = merge(h.root, collapsed)
	h.alloc.Free(n)
	h.size--
	return key, true
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	if n == h.root {
		return
	}
	cut(n)
	h.root = merge(h.root, n)
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
	if h.root == nil {
		return
	}
	stack := []*Node[K, V]{h.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for c := n.child; c != nil; c = c.next {
			stack = append(stack, c)
		}
		h.alloc.Free(n)
	}
	h.root = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
