// Package binomial implements a binomial queue: a forest holding at
// most one perfect binomial tree per rank, indexed by a rank-to-root
// array with a 64-bit occupancy bitmask.
//
// Trees use the half-tree representation (parent, left = first child,
// right = next sibling). Roots are reached only through the rank array;
// a root's right field does not link it to other roots.
// decrease_key and delete restructure by exchanging whole subtrees
// between an out-of-order node and its parent, never by moving
// key/item payloads between fixed node slots, which is what keeps a
// Handle pointing at the same (key, item) no matter how the forest is
// rearranged.
package binomial

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// MaxRank bounds the supported tree rank, enough for ~2^64 elements.
const MaxRank = 64

// Node is the half-tree node type binomial queues allocate through an
// Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key    K
	item   V
	parent *Node[K, V]
	left   *Node[K, V] // first child
	right  *Node[K, V] // next sibling; unused while the node is a root
	rank   int
}

// Heap is a binomial-queue addressable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc allocator.Allocator[Node[K, V]]
	roots [MaxRank]*Node[K, V]
	mask  uint64
	min   *Node[K, V]
	size  int
}

// New constructs an empty binomial queue backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	return &Heap[K, V]{alloc: alloc}
}

func (h *Heap[K, V]) hasRoot(r int) bool { return h.mask&(1<<uint(r)) != 0 }

func (h *Heap[K, V]) setRoot(r int, n *Node[K, V]) {
	h.roots[r] = n
	n.parent = nil
	n.rank = r
	h.mask |= 1 << uint(r)
}

func (h *Heap[K, V]) clearRoot(r int) {
	h.roots[r] = nil
	h.mask &^= 1 << uint(r)
}

// join links two rank-r trees into one rank-(r+1) tree: the lesser-key
// root becomes the parent, and the other is prepended as its new first
// child.
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

// cascadeMerge inserts n (a tree whose rank is n.rank) into the root
// registry, joining repeatedly while the target rank is occupied. It
// implements both ordinary insert (n.rank==0) and delete_min's
// re-insertion of the removed node's former children.
func (h *Heap[K, V]) cascadeMerge(n *Node[K, V]) {
	cur := n
	r := n.rank
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
	h.cascadeMerge(n)
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

func (h *Heap[K, V]) DeleteMin() K {
	old := h.min
	key := old.key
	h.clearRoot(old.rank)
	for c := old.left; c != nil; {
		next := c.right
		c.parent = nil
		c.right = nil
		h.cascadeMerge(c)
		c = next
	}
	h.alloc.Free(old)
	h.size--
	h.recomputeMin()
	return key
}

func childrenSlice[K cmp.Ordered, V any](n *Node[K, V]) []*Node[K, V] {
	var out []*Node[K, V]
	for c := n.left; c != nil; c = c.right {
		out = append(out, c)
	}
	return out
}

func linkChildren[K cmp.Ordered, V any](n *Node[K, V], children []*Node[K, V]) {
	if len(children) == 0 {
		n.left = nil
		return
	}
	n.left = children[0]
	for i, c := range children {
		c.parent = n
		if i+1 < len(children) {
			c.right = children[i+1]
		} else {
			c.right = nil
		}
	}
}

func indexOf[K cmp.Ordered, V any](s []*Node[K, V], n *Node[K, V]) int {
	for i, c := range s {
		if c == n {
			return i
		}
	}
	return -1
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	for n.parent != nil && n.key < n.parent.key {
		h.swapAdjacent(n.parent, n)
	}
	if h.min == nil || n.key < h.min.key {
		h.min = n
	}
}

// swapAdjacent exchanges the structural positions of an adjacent
// parent/child pair, preserving rank semantics: c inherits p's rank and
// p's other children (with p inserted at c's former slot among them),
// and p inherits c's former children and rank.
func (h *Heap[K, V]) swapAdjacent(p, c *Node[K, V]) {
	gp := p.parent
	pChildrenFull := childrenSlice(p)
	slot := indexOf(pChildrenFull, c)
	pChildrenExcl := make([]*Node[K, V], 0, len(pChildrenFull)-1)
	pChildrenExcl = append(pChildrenExcl, pChildrenFull[:slot]...)
	pChildrenExcl = append(pChildrenExcl, pChildrenFull[slot+1:]...)
	cChildren := childrenSlice(c)

	origPRank, origCRank := p.rank, c.rank

	c.parent = gp
	c.rank = origPRank
	if gp == nil {
		h.roots[origPRank] = c
	} else {
		gpChildren := childrenSlice(gp)
		gpChildren[indexOf(gpChildren, p)] = c
		linkChildren(gp, gpChildren)
	}

	newCChildren := make([]*Node[K, V], 0, len(pChildrenExcl)+1)
	newCChildren = append(newCChildren, pChildrenExcl[:slot]...)
	newCChildren = append(newCChildren, p)
	newCChildren = append(newCChildren, pChildrenExcl[slot:]...)
	linkChildren(c, newCChildren)

	p.parent = c
	p.rank = origCRank
	linkChildren(p, cChildren)
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	n := handle.(*Node[K, V])
	key := n.key
	if n == h.min {
		return h.DeleteMin(), true
	}
	// Swap the node to the top of its tree as if decreased to a
	// sentinel minimum, then remove it the way DeleteMin would.
	for n.parent != nil {
		h.swapAdjacent(n.parent, n)
	}
	h.clearRoot(n.rank)
	for c := n.left; c != nil; {
		next := c.right
		c.parent = nil
		c.right = nil
		h.cascadeMerge(c)
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
	if n == nil {
		return
	}
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
	h.min = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

var _ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
