// Package rankrelaxedweak implements a rank-relaxed weak queue: a
// half-tree forest with two per-rank registries (roots and marked
// nodes), each a 64-bit-bitmask-indexed slot.
//
// Four invariants hold between operations: no two roots of equal rank,
// no two marked nodes of equal rank, no marked node is a left (first)
// child, and no marked node has a marked parent. A mark records that a
// non-root node has lost a child; violations introduced by
// decrease_key and delete are resolved by cascadeMark with cut-based
// moves in the spirit of a Fibonacci heap's cascading cut rather than
// the literature's five local rotations: amortized rather than
// worst-case O(1) decrease_key, same observable behavior; see
// DESIGN.md for the tradeoff.
package rankrelaxedweak

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// MaxRank bounds the supported tree rank, enough for ~2^64 elements.
const MaxRank = 64

// Node is the half-tree node type rank-relaxed weak queues allocate
// through an Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key    K
	item   V
	parent *Node[K, V]
	left   *Node[K, V] // first child
	right  *Node[K, V] // next sibling; unused while the node is a root (roots live in Heap.roots)
	rank   int
	marked bool
}

// Heap is a rank-relaxed-weak-queue addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc    allocator.Allocator[Node[K, V]]
	roots    [MaxRank]*Node[K, V]
	rootMask uint64
	marks    [MaxRank]*Node[K, V]
	markMask uint64
	min      *Node[K, V]
	size     int
}

// New constructs an empty rank-relaxed weak queue backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	return &Heap[K, V]{alloc: alloc}
}

func (h *Heap[K, V]) hasRoot(r int) bool { return h.rootMask&(1<<uint(r)) != 0 }

func (h *Heap[K, V]) setRoot(r int, n *Node[K, V]) {
	h.roots[r] = n
	n.parent = nil
	n.rank = r
	h.rootMask |= 1 << uint(r)
}

func (h *Heap[K, V]) clearRoot(r int) {
	h.roots[r] = nil
	h.rootMask &^= 1 << uint(r)
}

func (h *Heap[K, V]) hasMark(r int) bool { return h.markMask&(1<<uint(r)) != 0 }

func (h *Heap[K, V]) setMark(r int, n *Node[K, V]) {
	h.marks[r] = n
	h.markMask |= 1 << uint(r)
}

func (h *Heap[K, V]) clearMark(r int) {
	h.marks[r] = nil
	h.markMask &^= 1 << uint(r)
}

// join links two equal-rank trees: the lesser-key root becomes the
// parent, the other is prepended as its new first child.
func join[K cmp.Ordered, V any](a, b *Node[K, V]) *Node[K, V] {
	if b.key < a.key {
		a, b = b, a
	}
	b.parent = a
	b.right = a.left
	a.left = b
	a.rank++
	return a
}

// cascadeMergeRoot inserts n into the root registry, key-ordered-
// joining repeatedly while the target rank is occupied. This preserves
// invariant 1.
func (h *Heap[K, V]) cascadeMergeRoot(n *Node[K, V]) {
	cur := n
	r := cur.rank
	for h.hasRoot(r) {
		other := h.roots[r]
		h.clearRoot(r)
		cur = join(cur, other)
		r = cur.rank
	}
	h.setRoot(r, cur)
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	h.cascadeMergeRoot(n)
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
		if !h.hasRoot(r) {
			continue
		}
		if h.min == nil || h.roots[r].key < h.min.key {
			h.min = h.roots[r]
		}
	}
}

// detachFromParent splices n (and only n) out of p's child list.
func detachFromParent[K cmp.Ordered, V any](p, n *Node[K, V]) {
	if p.left == n {
		p.left = n.right
		return
	}
	pred := p.left
	for pred.right != n {
		pred = pred.right
	}
	pred.right = n.right
}

// unmark clears n's marked flag and its mark-registry entry, if any.
func (h *Heap[K, V]) unmark(n *Node[K, V]) {
	if !n.marked {
		return
	}
	if h.marks[n.rank] == n {
		h.clearMark(n.rank)
	}
	n.marked = false
}

// cutToRoot splices p out of its parent's child list and re-merges it
// into the root registry, returning the old parent (which has now lost
// a child and must continue the cascade).
func (h *Heap[K, V]) cutToRoot(p *Node[K, V]) *Node[K, V] {
	gp := p.parent
	detachFromParent(gp, p)
	p.parent = nil
	h.unmark(p)
	h.cascadeMergeRoot(p)
	return gp
}

// cascadeMark records that p lost a child, preserving the four
// invariants as it goes. A second loss on an already-marked node always
// forces a cut (the weak-queue analogue of Fibonacci's cascading cut).
// If another node of p's rank is already marked, the two are joined
// under the lesser key (the survivor's rank increments, per the "pair"
// rule's rank bump) and the walk continues from the survivor. The
// "cleaning" configuration (a marked node promoted into first-child
// position by the detach) and the "parent" configuration (a mark on p
// adjacent to a mark on p's parent or on one of p's children) resolve
// by cutting, so invariants 3 and 4 hold on return.
func (h *Heap[K, V]) cascadeMark(p *Node[K, V]) {
	for p != nil {
		// The detach that brought the walk here may have promoted a
		// marked sibling into first position under p.
		for lc := p.left; lc != nil && lc.marked; lc = p.left {
			detachFromParent(p, lc)
			lc.parent = nil
			h.unmark(lc)
			h.cascadeMergeRoot(lc)
		}
		if p.parent == nil {
			return
		}
		if p.marked {
			p = h.cutToRoot(p)
			continue
		}
		if h.hasMark(p.rank) {
			other := h.marks[p.rank]
			if other != p && other.marked {
				h.clearMark(p.rank)
				winner, loser := p, other
				if other.key < p.key {
					winner, loser = other, p
				}
				// Equal keys can pick a descendant as winner over its
				// own ancestor; linking would then form a cycle.
				for a := winner.parent; a != nil; a = a.parent {
					if a == loser {
						winner, loser = loser, winner
						break
					}
				}
				lp := loser.parent
				if lp != nil {
					detachFromParent(lp, loser)
				}
				loser.parent = winner
				loser.right = winner.left
				winner.left = loser
				winner.rank++
				loser.marked = false
				// The surviving mark belongs at the bumped rank; drop
				// it here and let the walk below re-register winner
				// there (or cut it, if marking would violate an
				// invariant).
				winner.marked = false
				if lp != nil && lp != winner {
					// lp lost a child too.
					h.cascadeMark(lp)
				}
				p = winner
				continue
			}
			if other != p {
				h.clearMark(p.rank) // stale entry
			}
		}
		markedChild := false
		for c := p.left; c != nil; c = c.right {
			if c.marked {
				markedChild = true
				break
			}
		}
		if p.parent.left == p || p.parent.marked || markedChild {
			p = h.cutToRoot(p)
			continue
		}
		h.setMark(p.rank, p)
		p.marked = true
		return
	}
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	if p := n.parent; p != nil && n.key < p.key {
		detachFromParent(p, n)
		h.unmark(n)
		n.parent = nil
		h.cascadeMergeRoot(n)
		h.cascadeMark(p)
	}
	if h.min == nil || n.key < h.min.key {
		h.min = n
	}
}

// harvestChildren detaches n's children and re-merges each into the
// root registry (clearing any mark-registry entry a promoted child
// held), the step both DeleteMin and Delete use to absorb a removed
// node's subtree back into the forest.
func (h *Heap[K, V]) harvestChildren(n *Node[K, V]) {
	for c := n.left; c != nil; {
		next := c.right
		c.parent = nil
		c.right = nil
		h.unmark(c)
		h.cascadeMergeRoot(c)
		c = next
	}
	n.left = nil
}

func (h *Heap[K, V]) DeleteMin() K {
	old := h.min
	key := old.key
	h.clearRoot(old.rank)
	h.harvestChildren(old)
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
		// n is already out of the forest once detached; harvest and
		// free it before cascadeMark touches the root registry.
		detachFromParent(p, n)
		h.unmark(n)
		n.parent = nil
		h.harvestChildren(n)
		h.alloc.Free(n)
		h.cascadeMark(p)
	} else {
		h.clearRoot(n.rank)
		h.harvestChildren(n)
		h.alloc.Free(n)
	}
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
	for r := 0; r < MaxRank; r++ {
		if h.hasRoot(r) {
			h.freeSubtree(h.roots[r])
			h.clearRoot(r)
		}
	}
	h.markMask = 0
	h.marks = [MaxRank]*Node[K, V]{}
	h.min = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
