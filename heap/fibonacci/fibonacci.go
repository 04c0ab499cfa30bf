// Package fibonacci implements a Fibonacci heap: a doubly-linked
// circular root list of standard Fibonacci trees.
// decrease_key cuts a node, makes it a root, and cascades cuts
// upward (a non-root node loses at most one child before being cut
// itself). delete_min makes the min's children roots, then
// consolidates by rank until no two roots share a rank, rebuilding the
// circular list and picking the new minimum.
package fibonacci

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// MaxRank bounds the supported tree rank, enough for ~2^64 elements.
const MaxRank = 64

// Node is the doubly-linked node type Fibonacci heaps allocate through
// an Allocator[Node[K,V]]. next/prev serve double duty: among a node's
// siblings while it is a child, or among the heap's roots while it is
// a root.
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key        K
	item       V
	parent     *Node[K, V]
	firstChild *Node[K, V]
	next       *Node[K, V]
	prev       *Node[K, V]
	rank       int
	marked     bool
}

// Heap is a Fibonacci-heap addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc allocator.Allocator[Node[K, V]]
	min   *Node[K, V]
	size  int
}

// New constructs an empty Fibonacci heap backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	return &Heap[K, V]{alloc: alloc}
}

// listMerge splices two circular doubly-linked lists together in O(1)
// and returns whichever head has the lesser key. Used for the root
// list and for folding freed children back into it.
func listMerge[K cmp.Ordered, V any](a, b *Node[K, V]) *Node[K, V] {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	aNext, bNext := a.next, b.next
	a.next, bNext.prev = bNext, a
	b.next, aNext.prev = aNext, b
	if b.key < a.key {
		return b
	}
	return a
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	n.next, n.prev = n, n
	h.min = listMerge(h.min, n)
	h.size++
	return n
}

func (h *Heap[K, V]) FindMin() (pqueue.Handle, bool) {
	if h.size == 0 {
		return nil, false
	}
	return h.min, true
}

// cutFromParent detaches n from p's child list and folds it into the
// root list as an unmarked root.
func (h *Heap[K, V]) cutFromParent(n, p *Node[K, V]) {
	if n.next == n {
		p.firstChild = nil
	} else {
		n.prev.next = n.next
		n.next.prev = n.prev
		if p.firstChild == n {
			p.firstChild = n.next
		}
	}
	p.rank--
	n.parent = nil
	n.marked = false
	n.next, n.prev = n, n
	h.min = listMerge(h.min, n)
}

// cascadingCut walks parents upward: the first unmarked parent is
// marked and the walk stops; a marked parent is cut itself and the
// walk continues from its parent.
func (h *Heap[K, V]) cascadingCut(p *Node[K, V]) {
	for p.parent != nil {
		if !p.marked {
			p.marked = true
			return
		}
		gp := p.parent
		h.cutFromParent(p, gp)
		p = gp
	}
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	if p := n.parent; p != nil && n.key < p.key {
		h.cutFromParent(n, p)
		h.cascadingCut(p)
	}
	if h.min == nil || n.key < h.min.key {
		h.min = n
	}
}

// removeRoot detaches root n from the root list, folding both n's
// children and the remainder of the root list back together, and
// updates h.min if it pointed at n.
func (h *Heap[K, V]) removeRoot(n *Node[K, V]) {
	if n.firstChild != nil {
		c := n.firstChild
		for {
			next := c.next
			c.parent = nil
			c = next
			if c == n.firstChild {
				break
			}
		}
	}
	if n.next == n {
		if h.min == n {
			h.min = nil
		}
	} else {
		n.prev.next = n.next
		n.next.prev = n.prev
		if h.min == n {
			h.min = n.next
		}
	}
	n.next, n.prev = n, n
	if n.firstChild != nil {
		h.min = listMerge(h.min, n.firstChild)
	}
	n.firstChild = nil
}

// linkTrees links two equal-rank trees: the lesser-key root wins and
// the other becomes its new child, with its marked bit cleared.
func linkTrees[K cmp.Ordered, V any](a, b *Node[K, V]) *Node[K, V] {
	if b.key < a.key {
		a, b = b, a
	}
	b.parent = a
	b.marked = false
	b.next, b.prev = b, b
	if a.firstChild == nil {
		a.firstChild = b
	} else {
		first := a.firstChild
		b.next = first
		b.prev = first.prev
		first.prev.next = b
		first.prev = b
	}
	a.rank++
	return a
}

func (h *Heap[K, V]) consolidate() {
	var table [MaxRank]*Node[K, V]
	var roots []*Node[K, V]
	if h.min != nil {
		start := h.min
		c := start
		for {
			roots = append(roots, c)
			c = c.next
			if c == start {
				break
			}
		}
	}
	for _, r := range roots {
		r.next, r.prev = r, r
	}
	for _, x := range roots {
		cur := x
		rank := cur.rank
		for table[rank] != nil {
			other := table[rank]
			table[rank] = nil
			cur = linkTrees(cur, other)
			rank = cur.rank
		}
		table[rank] = cur
	}
	h.min = nil
	for _, r := range table {
		if r == nil {
			continue
		}
		r.next, r.prev = r, r
		h.min = listMerge(h.min, r)
	}
}

func (h *Heap[K, V]) DeleteMin() K {
	old := h.min
	key := old.key
	h.removeRoot(old)
	h.alloc.Free(old)
	h.size--
	if h.size > 0 {
		h.consolidate()
	} else {
		h.min = nil
	}
	return key
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	n := handle.(*Node[K, V])
	key := n.key
	if p := n.parent; p != nil {
		h.cutFromParent(n, p)
		h.cascadingCut(p)
	}
	h.removeRoot(n)
	h.alloc.Free(n)
	h.size--
	if h.size > 0 {
		h.consolidate()
	} else {
		h.min = nil
	}
	return key, true
}

func (h *Heap[K, V]) GetKey(handle pqueue.Handle) K {
	return handle.(*Node[K, V]).key
}

func (h *Heap[K, V]) GetItem(handle pqueue.Handle) *V {
	return &handle.(*Node[K, V]).item
}

func (h *Heap[K, V]) Size() int { return h.size }

func (h *Heap[K, V]) Empty() bool { return h.size == 0 }

func (h *Heap[K, V]) freeTree(n *Node[K, V]) {
	if n.firstChild != nil {
		c := n.firstChild
		for {
			next := c.next
			h.freeTree(c)
			c = next
			if c == n.firstChild {
				break
			}
		}
	}
	h.alloc.Free(n)
}

func (h *Heap[K, V]) Clear() {
	if h.min == nil {
		return
	}
	start := h.min
	c := start
	for {
		next := c.next
		h.freeTree(c)
		c = next
		if c == start {
			break
		}
	}
	h.min = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
