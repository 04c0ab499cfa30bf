// Package violation implements a violation heap: a forest whose root
// registry holds up to two trees per rank. A
// third same-rank root triggers a triple-join (the lowest-key tree
// becomes parent of the other two, rank+1). Each node keeps a
// doubly-linked child list (first/last plus per-child prev/next); a
// child is "active" iff it is one of the two rightmost entries in that
// list, an O(1) check via the parent's last-child pointer and that
// child's prev.
//
// decrease_key on a violating node n promotes n's higher-ranked active
// child into n's old slot under n's parent, then relocates n itself
// (keeping its remaining children) to the root registry; it does not
// walk up repeatedly the way Fibonacci-style cuts do. Rank correction
// still propagates upward from the old parent using the two-active-
// child rank formula.
package violation

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// MaxRank bounds the supported tree rank, enough for ~2^64 elements.
const MaxRank = 64

// Node is the doubly-linked-child-list node type violation heaps
// allocate through an Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key        K
	item       V
	parent     *Node[K, V]
	firstChild *Node[K, V]
	lastChild  *Node[K, V]
	prev       *Node[K, V] // previous sibling
	next       *Node[K, V] // next sibling
	rank       int
}

type rootSlot[K cmp.Ordered, V any] struct {
	nodes [2]*Node[K, V]
	count int
}

// Heap is a violation-heap addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc allocator.Allocator[Node[K, V]]
	roots [MaxRank]rootSlot[K, V]
	min   *Node[K, V]
	size  int
}

// New constructs an empty violation heap backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	return &Heap[K, V]{alloc: alloc}
}

// addChild appends c as p's new last (most recently added) child.
func addChild[K cmp.Ordered, V any](p, c *Node[K, V]) {
	c.parent = p
	c.prev = p.lastChild
	c.next = nil
	if p.lastChild != nil {
		p.lastChild.next = c
	} else {
		p.firstChild = c
	}
	p.lastChild = c
}

// removeChild unlinks c from p's child list, wherever in it c sits.
func removeChild[K cmp.Ordered, V any](p, c *Node[K, V]) {
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		p.firstChild = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		p.lastChild = c.prev
	}
	c.prev, c.next = nil, nil
}

// activeChildren returns p's two rightmost children (rightmost first),
// the nodes eligible for decrease_key's promotion and for the rank
// formula below.
func activeChildren[K cmp.Ordered, V any](p *Node[K, V]) []*Node[K, V] {
	var out []*Node[K, V]
	if p.lastChild != nil {
		out = append(out, p.lastChild)
		if p.lastChild.prev != nil {
			out = append(out, p.lastChild.prev)
		}
	}
	return out
}

func nth[K cmp.Ordered, V any](s []*Node[K, V], i int) *Node[K, V] {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func rankOrSentinel[K cmp.Ordered, V any](n *Node[K, V]) int {
	if n == nil {
		return -1
	}
	return n.rank
}

// rankFormula is the rank-propagation rule: new_rank =
// (rank1+rank2)/2 + (rank1+rank2)%2 + 1, with the two missing-child
// totals (-2, -1) special-cased.
func rankFormula(r1, r2 int) int {
	total := r1 + r2
	switch total {
	case -2:
		return 0
	case -1:
		return 1
	default:
		return total/2 + total%2 + 1
	}
}

// fixRankChain recomputes p's rank (and its ancestors', while they
// keep changing) from its current two active children. A root whose
// rank changes must move registry slots, which can itself trigger a
// triple-join.
func (h *Heap[K, V]) fixRankChain(p *Node[K, V]) {
	for p != nil {
		ac := activeChildren(p)
		newRank := rankFormula(rankOrSentinel(nth(ac, 0)), rankOrSentinel(nth(ac, 1)))
		if newRank == p.rank {
			return
		}
		if p.parent == nil {
			h.removeRoot(p)
			p.rank = newRank
			h.insertRoot(p)
			return
		}
		p.rank = newRank
		p = p.parent
	}
}

// insertRoot adds n (a rank-r tree) to the registry, triple-joining
// whenever a third rank-r root would otherwise coexist: the lowest-key
// tree among the three becomes parent of the other two.
func (h *Heap[K, V]) insertRoot(n *Node[K, V]) {
	n.parent = nil
	slot := &h.roots[n.rank]
	if slot.count < 2 {
		slot.nodes[slot.count] = n
		slot.count++
		return
	}
	a, b := slot.nodes[0], slot.nodes[1]
	slot.nodes[0], slot.nodes[1] = nil, nil
	slot.count = 0
	winner := a
	if b.key < winner.key {
		winner = b
	}
	if n.key < winner.key {
		winner = n
	}
	for _, x := range [3]*Node[K, V]{a, b, n} {
		if x != winner {
			addChild(winner, x)
		}
	}
	winner.rank++
	h.insertRoot(winner)
}

func (h *Heap[K, V]) removeRoot(n *Node[K, V]) {
	slot := &h.roots[n.rank]
	for i := 0; i < slot.count; i++ {
		if slot.nodes[i] == n {
			slot.nodes[i] = slot.nodes[slot.count-1]
			slot.nodes[slot.count-1] = nil
			slot.count--
			return
		}
	}
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	h.insertRoot(n)
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
	for r := 0; r < MaxRank; r++ {
		slot := &h.roots[r]
		for i := 0; i < slot.count; i++ {
			if h.min == nil || slot.nodes[i].key < h.min.key {
				h.min = slot.nodes[i]
			}
		}
	}
}

// promoteToRoot cuts n out from under its parent p in O(1): n's
// higher-ranked active child (if any) takes n's old slot as a child of
// p, n itself is left detached (its remaining children untouched), and
// rank correction propagates upward from p. It does not add n to the
// root registry; callers do that, or harvest n's remaining children
// instead, depending on whether n survives as a root or is being
// deleted.
func (h *Heap[K, V]) promoteToRoot(n, p *Node[K, V]) {
	removeChild(p, n)
	ac := activeChildren(n)
	if len(ac) > 0 {
		z := ac[0]
		if len(ac) == 2 && ac[1].rank > z.rank {
			z = ac[1]
		}
		removeChild(n, z)
		addChild(p, z)
	}
	n.parent = nil
	h.fixRankChain(p)
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	if p := n.parent; p != nil && n.key < p.key {
		h.promoteToRoot(n, p)
		h.insertRoot(n)
	}
	if h.min == nil || n.key < h.min.key {
		h.min = n
	}
}

func (h *Heap[K, V]) DeleteMin() K {
	old := h.min
	key := old.key
	h.removeRoot(old)
	for c := old.firstChild; c != nil; {
		next := c.next
		c.prev, c.next = nil, nil
		h.insertRoot(c)
		c = next
	}
	h.alloc.Free(old)
	h.size--
	h.recomputeMin()
	return key
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	n := handle.(*Node[K, V])
	if n == h.min {
		return h.DeleteMin(), true
	}
	key := n.key
	if p := n.parent; p != nil {
		h.promoteToRoot(n, p)
	} else {
		h.removeRoot(n)
	}
	for c := n.firstChild; c != nil; {
		next := c.next
		c.prev, c.next = nil, nil
		h.insertRoot(c)
		c = next
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
	for c := n.firstChild; c != nil; {
		next := c.next
		h.freeSubtree(c)
		c = next
	}
	h.alloc.Free(n)
}

func (h *Heap[K, V]) Clear() {
	for r := 0; r < MaxRank; r++ {
		slot := &h.roots[r]
		for i := 0; i < slot.count; i++ {
			h.freeSubtree(slot.nodes[i])
			slot.nodes[i] = nil
		}
		slot.count = 0
	}
	h.min = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
