// Package explicit implements the explicit d-ary heap: the same
// algorithm as the implicit variant, but nodes are pointer-linked
// (parent, children[D]), so arbitrary Delete is supported and handles
// are ordinary node pointers rather than boxed array slots.
//
// Locating the n-th node of a complete d-ary tree in level order walks
// from the root using the base-D digits of n (see locate below).
// Restructuring a sift step swaps two nodes' structural positions
// (parent/children links), never their key/item contents, which is
// what lets a Handle keep pointing at the same (key, item) pair no
// matter how the tree is rearranged underneath it.
package explicit

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// Node is the pointer-linked node type explicit heaps allocate through
// an Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key      K
	item     V
	parent   *Node[K, V]
	children []*Node[K, V] // length d, nil entries are empty slots
}

// Heap is an explicit d-ary addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	d     int
	root  *Node[K, V]
	alloc allocator.Allocator[Node[K, V]]
	size  int
}

// New constructs an explicit heap with branching factor d backed by
// alloc.
func New[K cmp.Ordered, V any](d int, alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	if d < 2 {
		d = 2
	}
	return &Heap[K, V]{d: d, alloc: alloc}
}

func (h *Heap[K, V]) newNode() *Node[K, V] {
	n := h.alloc.Alloc()
	n.children = make([]*Node[K, V], h.d)
	return n
}

// locate walks from the root to the 0-indexed level-order position idx
// using idx's base-d digits, most significant first.
func (h *Heap[K, V]) locate(idx int) *Node[K, V] {
	if idx == 0 {
		return h.root
	}
	var digits []int
	n := idx
	for n > 0 {
		digits = append(digits, (n-1)%h.d)
		n = (n - 1) / h.d
	}
	node := h.root
	for i := len(digits) - 1; i >= 0; i-- {
		node = node.children[digits[i]]
	}
	return node
}

func childSlot[K cmp.Ordered, V any](parent, node *Node[K, V]) int {
	if parent == nil {
		return -1
	}
	for i, c := range parent.children {
		if c == node {
			return i
		}
	}
	return -1
}

// swapParentChild exchanges the structural positions of an adjacent
// parent/child pair without touching their key/item contents.
func (h *Heap[K, V]) swapParentChild(parent, child *Node[K, V]) {
	grandparent := parent.parent
	gSlot := childSlot(grandparent, parent)
	pSlot := childSlot(parent, child)

	childChildren := child.children
	parentChildren := parent.children

	child.parent = grandparent
	if grandparent == nil {
		h.root = child
	} else {
		grandparent.children[gSlot] = child
	}
	child.children = parentChildren
	child.children[pSlot] = parent
	for i, c := range child.children {
		if i == pSlot || c == nil {
			continue
		}
		c.parent = child
	}

	parent.parent = child
	parent.children = childChildren
	for _, c := range parent.children {
		if c != nil {
			c.parent = parent
		}
	}
}

// swapNodes exchanges the structural positions of any two nodes in the
// tree: same node (no-op), adjacent parent/child, or disconnected.
func (h *Heap[K, V]) swapNodes(a, b *Node[K, V]) {
	if a == b {
		return
	}
	if b.parent == a {
		a, b = b, a
	}
	if a.parent == b {
		h.swapParentChild(b, a)
		return
	}

	aParent, bParent := a.parent, b.parent
	aSlot, bSlot := childSlot(aParent, a), childSlot(bParent, b)
	aChildren, bChildren := a.children, b.children

	a.parent, b.parent = bParent, aParent
	a.children, b.children = bChildren, aChildren

	if aParent == nil {
		h.root = b
	} else {
		aParent.children[aSlot] = b
	}
	if bParent == nil {
		h.root = a
	} else {
		bParent.children[bSlot] = a
	}

	for _, c := range a.children {
		if c != nil {
			c.parent = a
		}
	}
	for _, c := range b.children {
		if c != nil {
			c.parent = b
		}
	}
}

func (h *Heap[K, V]) siftUp(n *Node[K, V]) {
	for n.parent != nil && n.key < n.parent.key {
		h.swapParentChild(n.parent, n)
	}
}

func (h *Heap[K, V]) siftDown(n *Node[K, V]) {
	for {
		best := n
		for _, c := range n.children {
			if c != nil && c.key < best.key {
				best = c
			}
		}
		if best == n {
			return
		}
		h.swapParentChild(n, best)
	}
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.newNode()
	n.key = key
	n.item = item
	idx := h.size
	h.size++
	if idx == 0 {
		h.root = n
		return n
	}
	parentIdx := (idx - 1) / h.d
	slot := (idx - 1) % h.d
	parent := h.locate(parentIdx)
	parent.children[slot] = n
	n.parent = parent
	h.siftUp(n)
	return n
}

func (h *Heap[K, V]) FindMin() (pqueue.Handle, bool) {
	if h.size == 0 {
		return nil, false
	}
	return h.root, true
}

// detach removes n, which must currently be the last node in level
// order, from its parent's child slot.
func (h *Heap[K, V]) detach(n *Node[K, V]) {
	if n.parent == nil {
		h.root = nil
		return
	}
	slot := childSlot(n.parent, n)
	n.parent.children[slot] = nil
}

func (h *Heap[K, V]) DeleteMin() K {
	key := h.root.key
	target := h.root
	last := h.locate(h.size - 1)
	if last != target {
		h.swapNodes(target, last)
	}
	h.detach(target)
	h.size--
	h.alloc.Free(target)
	if h.size > 0 {
		h.siftDown(h.root)
	}
	return key
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	target := handle.(*Node[K, V])
	key := target.key
	last := h.locate(h.size - 1)
	var replacement *Node[K, V]
	if last != target {
		h.swapNodes(target, last)
		replacement = last
	}
	h.detach(target)
	h.size--
	h.alloc.Free(target)
	if replacement != nil {
		h.siftUp(replacement)
		h.siftDown(replacement)
	}
	return key, true
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	h.siftUp(n)
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
	h.walk(h.root, func(n *Node[K, V]) { h.alloc.Free(n) })
	h.root = nil
	h.size = 0
}

func (h *Heap[K, V]) walk(n *Node[K, V], fn func(*Node[K, V])) {
	if n == nil {
		return
	}
	for _, c := range n.children {
		h.walk(c, fn)
	}
	fn(n)
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
