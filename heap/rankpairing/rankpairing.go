// Package rankpairing implements a rank-pairing heap: a half-tree
// forest indexed by rank. left is a node's first child and right is
// its next sibling; for a root, right instead links around a
// singly-linked circular list of roots.
//
// decrease_key detaches the node together with its right spine (the
// chain of younger siblings still hanging off its former parent's
// child list) and reinserts each as its own root, then walks the path
// to the original parent applying the type-1 rank rule (the two
// highest child ranks: equal means the new rank is one more than
// either of them, unequal means the new rank is just the larger one).
// delete and delete_min peel the right spines of both of the deleted
// node's half-tree "subtrees" (its children, and, for a non-root
// node, its own right siblings) into fresh roots, then relink
// equal-rank roots in one pass.
package rankpairing

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// MaxRank bounds the supported tree rank, enough for ~2^64 elements.
const MaxRank = 64

// Node is the half-tree node type rank-pairing heaps allocate through
// an Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key    K
	item   V
	parent *Node[K, V]
	left   *Node[K, V] // first child
	right  *Node[K, V] // next sibling, or next root when this node is a root
	rank   int
}

// Heap is a rank-pairing-heap addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc allocator.Allocator[Node[K, V]]
	head  *Node[K, V] // an arbitrary root in the circular root list, nil iff empty
	min   *Node[K, V]
	size  int
}

// New constructs an empty rank-pairing heap backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	return &Heap[K, V]{alloc: alloc}
}

func rankOf[K cmp.Ordered, V any](n *Node[K, V]) int {
	if n == nil {
		return -1
	}
	return n.rank
}

// topTwoChildRanks returns the two highest ranks among p's children
// (sentinel -1 for a missing slot), the inputs to the type-1 rank rule.
func topTwoChildRanks[K cmp.Ordered, V any](p *Node[K, V]) (int, int) {
	best1, best2 := -1, -1
	for c := p.left; c != nil; c = c.right {
		switch {
		case c.rank > best1:
			best1, best2 = c.rank, best1
		case c.rank > best2:
			best2 = c.rank
		}
	}
	return best1, best2
}

// rankRuleType1 is the type-1 rank rule: equal child ranks bump the
// rank by one past them; unequal child ranks leave it at the larger.
func rankRuleType1(u, v int) int {
	if u == v {
		return u + 1
	}
	if u < v {
		u = v
	}
	return u
}

func (h *Heap[K, V]) spliceRootIn(n *Node[K, V]) {
	n.parent = nil
	if h.head == nil {
		n.right = n
		h.head = n
		return
	}
	n.right = h.head.right
	h.head.right = n
}

func (h *Heap[K, V]) removeRootFromList(n *Node[K, V]) {
	if n.right == n {
		h.head = nil
		return
	}
	pred := h.head
	for pred.right != n {
		pred = pred.right
	}
	pred.right = n.right
	if h.head == n {
		h.head = n.right
	}
}

// detachAllRoots empties the root list and returns every root it held.
func (h *Heap[K, V]) detachAllRoots() []*Node[K, V] {
	if h.head == nil {
		return nil
	}
	var out []*Node[K, V]
	cur := h.head
	for {
		next := cur.right
		out = append(out, cur)
		cur = next
		if cur == h.head {
			break
		}
	}
	h.head = nil
	return out
}

// linkRank joins two equal-rank trees: the lesser-key root becomes the
// parent and the other is prepended as its new first child.
func linkRank[K cmp.Ordered, V any](a, b *Node[K, V]) *Node[K, V] {
	if b.key < a.key {
		a, b = b, a
	}
	b.parent = a
	b.right = a.left
	a.left = b
	a.rank++
	return a
}

// consolidate runs the one-pass linking scan over roots (already
// detached from the root list), then rebuilds the root list and min.
func (h *Heap[K, V]) consolidate(roots []*Node[K, V]) {
	var table [MaxRank]*Node[K, V]
	for _, r := range roots {
		r.parent = nil
		cur := r
		for table[cur.rank] != nil {
			other := table[cur.rank]
			table[cur.rank] = nil
			cur = linkRank(cur, other)
		}
		table[cur.rank] = cur
	}
	h.head = nil
	h.min = nil
	for _, r := range table {
		if r == nil {
			continue
		}
		h.spliceRootIn(r)
		if h.min == nil || r.key < h.min.key {
			h.min = r
		}
	}
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	h.spliceRootIn(n)
	h.size++
	if h.min == nil || n.key < h.min.key {
		h.min = n
	}
	return n
}

func (h *Heap[K, V]) FindMin() (pqueue.Handle, bool) {
	if h.size == 0 {
		return nil, false
	}
	return h.min, true
}

func (h *Heap[K, V]) recomputeMin() {
	h.min = nil
	if h.head == nil {
		return
	}
	cur := h.head
	for {
		if h.min == nil || cur.key < h.min.key {
			h.min = cur
		}
		cur = cur.right
		if cur == h.head {
			break
		}
	}
}

// detachFromParent removes n, and everything after it in p's child
// list, from that list: the "right spine" the node carries with it
// when it is cut.
func detachFromParent[K cmp.Ordered, V any](p, n *Node[K, V]) {
	if p.left == n {
		p.left = nil
		return
	}
	pred := p.left
	for pred.right != n {
		pred = pred.right
	}
	pred.right = nil
}

// fixRanks walks from p upward, recomputing each ancestor's rank via
// the type-1 rule and stopping as soon as a rank is unchanged (the
// standard rank-pairing amortization argument: an unchanged rank can't
// force its own parent's rank to change either).
func (h *Heap[K, V]) fixRanks(p *Node[K, V]) {
	for p != nil {
		u, v := topTwoChildRanks(p)
		newRank := rankRuleType1(u, v)
		if newRank == p.rank {
			return
		}
		p.rank = newRank
		p = p.parent
	}
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	if p := n.parent; p != nil && n.key < p.key {
		detachFromParent(p, n)
		for cur := n; cur != nil; {
			next := cur.right
			h.spliceRootIn(cur)
			cur = next
		}
		h.fixRanks(p)
	}
	if h.min == nil || n.key < h.min.key {
		h.min = n
	}
}

// peelChildren turns n's child list into a slice of independent roots
// (n itself is left with no children).
func peelChildren[K cmp.Ordered, V any](n *Node[K, V]) []*Node[K, V] {
	var out []*Node[K, V]
	for cur := n.left; cur != nil; {
		next := cur.right
		cur.parent = nil
		cur.right = nil
		out = append(out, cur)
		cur = next
	}
	n.left = nil
	return out
}

func (h *Heap[K, V]) DeleteMin() K {
	old := h.min
	key := old.key
	h.removeRootFromList(old)
	for _, r := range peelChildren(old) {
		h.spliceRootIn(r)
	}
	h.alloc.Free(old)
	h.size--
	h.consolidate(h.detachAllRoots())
	return key
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	n := handle.(*Node[K, V])
	if n == h.min {
		return h.DeleteMin(), true
	}
	key := n.key
	if p := n.parent; p != nil {
		detachFromParent(p, n)
		for cur := n.right; cur != nil; {
			next := cur.right
			h.spliceRootIn(cur)
			cur = next
		}
		h.fixRanks(p)
	} else {
		h.removeRootFromList(n)
	}
	for _, r := range peelChildren(n) {
		h.spliceRootIn(r)
	}
	h.alloc.Free(n)
	h.size--
	h.recomputeMin()
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

func (h *Heap[K, V]) freeSubtree(n *Node[K, V]) {
	for c := n.left; c != nil; {
		next := c.right
		h.freeSubtree(c)
		c = next
	}
	h.alloc.Free(n)
}

func (h *Heap[K, V]) Clear() {
	for _, r := range h.detachAllRoots() {
		h.freeSubtree(r)
	}
	h.min = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
