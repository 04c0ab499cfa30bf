// Package quake implements a quake heap: a forest of binary tournament
// trees indexed by height. A node's left child, when present, is a
// duplicate of that same node one height lower (the winner's own entry
// in the earlier round); its right child is the tree it beat. join
// clones the winning root so the winner's own
// handle keeps representing the same key one height higher, while the
// clone takes over its old internal structure.
//
// delete discards the deleted node's entire left spine (all
// duplicates) and promotes every right subtree hanging off that spine
// to a new root, then recombines equal-height roots. fix_decay then
// checks the per-height node-count invariant and prunes any tree whose
// height grew disproportionately to its sibling heights.
package quake

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// MaxRank bounds the supported tree height, enough for ~2^64 elements.
const MaxRank = 64

// Decay selects the heap's decay constant alpha: for all heights i,
// nodes[i] must not exceed floor(alpha*nodes[i-1]). Only the two
// literature values are selectable; the default is three quarters.
type Decay int

const (
	DecayThreeQuarters Decay = iota // alpha = 0.75
	DecaySevenEighths               // alpha = 0.875
)

func (d Decay) alpha() float64 {
	if d == DecaySevenEighths {
		return 0.875
	}
	return 0.75
}

type config struct {
	decay Decay
}

// Option configures a Heap at construction.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithDecay selects the decay constant checked after every delete.
func WithDecay(d Decay) Option {
	return optionFunc(func(c *config) { c.decay = d })
}

// Node is the tournament-tree node type quake heaps allocate through
// an Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key    K
	item   V
	parent *Node[K, V]
	left   *Node[K, V] // duplicate of this node one height lower, or nil
	right  *Node[K, V] // the tree this node beat, or nil
	height int
}

// Heap is a quake-heap addressable, meldable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc         allocator.Allocator[Node[K, V]]
	roots         [MaxRank]*Node[K, V]
	mask          uint64
	nodesAtHeight [MaxRank]int
	min           *Node[K, V]
	size          int
	alpha         float64
}

// New constructs an empty quake heap backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]], opts ...Option) *Heap[K, V] {
	var cfg config
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return &Heap[K, V]{alloc: alloc, alpha: cfg.decay.alpha()}
}

func (h *Heap[K, V]) hasRoot(ht int) bool { return h.mask&(1<<uint(ht)) != 0 }

func (h *Heap[K, V]) setRoot(ht int, n *Node[K, V]) {
	h.roots[ht] = n
	n.parent = nil
	n.height = ht
	h.mask |= 1 << uint(ht)
}

func (h *Heap[K, V]) clearRoot(ht int) {
	h.roots[ht] = nil
	h.mask &^= 1 << uint(ht)
}

// join combines two equal-height trees: the lesser-key root (a, after
// the swap below) clones its own old structure into a fresh node that
// becomes its new left child, while the other tree (b) becomes its new
// right child. a's own node identity is preserved and promoted one
// height, so any handle into a still refers to the same key.
func (h *Heap[K, V]) join(a, b *Node[K, V]) *Node[K, V] {
	if b.key < a.key {
		a, b = b, a
	}
	oldHeight := a.height
	clone := h.alloc.Alloc()
	clone.key = a.key
	clone.item = a.item
	clone.height = oldHeight
	clone.left = a.left
	clone.right = a.right
	if clone.left != nil {
		clone.left.parent = clone
	}
	if clone.right != nil {
		clone.right.parent = clone
	}

	b.parent = a
	a.left = clone
	a.right = b
	a.height = oldHeight + 1
	clone.parent = a
	h.nodesAtHeight[a.height]++
	return a
}

// cascadeMerge inserts n (a tree whose height is n.height) into the
// root registry, joining repeatedly while the target height is
// occupied. Used by insert and by every operation that hands a freed
// or demoted subtree back to the forest.
func (h *Heap[K, V]) cascadeMerge(n *Node[K, V]) {
	cur := n
	ht := cur.height
	for h.hasRoot(ht) {
		other := h.roots[ht]
		h.clearRoot(ht)
		cur = h.join(cur, other)
		ht = cur.height
	}
	h.setRoot(ht, cur)
}

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	h.nodesAtHeight[0]++
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

// cut discards n's entire left spine (n itself and every duplicate
// reachable via .left), freeing each, and collects every right
// subtree hanging off that spine as a new, independent root-to-be.
func (h *Heap[K, V]) cut(n *Node[K, V]) []*Node[K, V] {
	var newRoots []*Node[K, V]
	for cur := n; cur != nil; {
		next := cur.left
		if cur.right != nil {
			r := cur.right
			r.parent = nil
			newRoots = append(newRoots, r)
		}
		h.nodesAtHeight[cur.height]--
		h.alloc.Free(cur)
		cur = next
	}
	return newRoots
}

func (h *Heap[K, V]) fixRoots(newRoots []*Node[K, V]) {
	for _, r := range newRoots {
		h.cascadeMerge(r)
	}
}

// pruneRoot strips the top duplicate off the root at height ht,
// letting the root take over the duplicate's old children one height
// lower, then re-merges it (it may now collide with an existing root
// at the lower height).
func (h *Heap[K, V]) pruneRoot(ht int) {
	r := h.roots[ht]
	if r.left == nil {
		return
	}
	clone := r.left
	h.clearRoot(ht)
	r.left = clone.left
	r.right = clone.right
	if r.left != nil {
		r.left.parent = r
	}
	if r.right != nil {
		r.right.parent = r
	}
	h.nodesAtHeight[clone.height]--
	h.alloc.Free(clone)
	r.height--
	h.cascadeMerge(r)
}

// fixDecay repeatedly finds the lowest height violating the decay
// invariant and prunes every root at or above it, until none remains.
func (h *Heap[K, V]) fixDecay() {
	for {
		violator := -1
		for i := 1; i < MaxRank; i++ {
			if h.nodesAtHeight[i] > int(h.alpha*float64(h.nodesAtHeight[i-1])) {
				violator = i
				break
			}
		}
		if violator == -1 {
			return
		}
		pruned := false
		for ht := violator; ht < MaxRank; ht++ {
			if h.hasRoot(ht) {
				h.pruneRoot(ht)
				pruned = true
			}
		}
		if !pruned {
			return
		}
	}
}

func (h *Heap[K, V]) DeleteMin() K {
	old := h.min
	key := old.key
	h.clearRoot(old.height)
	h.fixRoots(h.cut(old))
	h.size--
	h.recomputeMin()
	h.fixDecay()
	return key
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	n := handle.(*Node[K, V])
	key := n.key
	if n.parent == nil {
		h.clearRoot(n.height)
	} else if n.parent.left == n {
		n.parent.left = nil
	} else {
		n.parent.right = nil
	}
	h.fixRoots(h.cut(n))
	h.size--
	h.recomputeMin()
	h.fixDecay()
	return key, true
}

// swapAdjacent exchanges the structural positions of an adjacent
// parent/child pair, preserving which slot (left or right) the child
// occupied and swapping each side's own subtree and height along with
// it.
func (h *Heap[K, V]) swapAdjacent(p, c *Node[K, V]) {
	gp := p.parent
	isLeft := p.left == c
	var sibling *Node[K, V]
	if isLeft {
		sibling = p.right
	} else {
		sibling = p.left
	}
	origPHeight, origCHeight := p.height, c.height
	cLeft, cRight := c.left, c.right

	c.parent = gp
	c.height = origPHeight
	if gp == nil {
		h.roots[origPHeight] = c
	} else if gp.left == p {
		gp.left = c
	} else {
		gp.right = c
	}

	if isLeft {
		c.left, c.right = p, sibling
	} else {
		c.left, c.right = sibling, p
	}
	if sibling != nil {
		sibling.parent = c
	}

	p.parent = c
	p.height = origCHeight
	p.left, p.right = cLeft, cRight
	if cLeft != nil {
		cLeft.parent = p
	}
	if cRight != nil {
		cRight.parent = p
	}
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
	h.freeSubtree(n.left)
	h.freeSubtree(n.right)
	h.alloc.Free(n)
}

func (h *Heap[K, V]) Clear() {
	for r := 0; r < MaxRank; r++ {
		if h.hasRoot(r) {
			h.freeSubtree(h.roots[r])
			h.clearRoot(r)
		}
	}
	h.nodesAtHeight = [MaxRank]int{}
	h.min = nil
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

// Meld absorbs other's trees into h by splicing its roots into h's
// registry (joining on height collisions) and summing per-height
// counters. other is left empty, as Clear would leave it.
func (h *Heap[K, V]) Meld(otherI pqueue.Interface[K, V]) error {
	other, ok := otherI.(*Heap[K, V])
	if !ok || !allocatorsEqual(h.alloc, other.alloc) {
		return pqueue.ErrMeldMismatchedAllocator
	}
	for r := 0; r < MaxRank; r++ {
		if other.hasRoot(r) {
			root := other.roots[r]
			other.clearRoot(r)
			h.cascadeMerge(root)
		}
	}
	h.size += other.size
	for i := range h.nodesAtHeight {
		h.nodesAtHeight[i] += other.nodesAtHeight[i]
		other.nodesAtHeight[i] = 0
	}
	h.recomputeMin()
	other.min = nil
	other.size = 0
	return nil
}

func allocatorsEqual[T any](a, b allocator.Allocator[T]) bool {
	return a == b
}

var (
	_ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
	_ pqueue.Meldable[int, string]  = (*Heap[int, string])(nil)
)
