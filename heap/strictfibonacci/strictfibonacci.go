// Package strictfibonacci implements a strict Fibonacci heap: a single
// tree (the top node is always the global minimum) plus a FIFO of
// tree nodes (Q) and two rank-indexed fix registries: ROOT (active
// children of the tree's top node) and LOSS (active nodes whose loss
// count is positive). It is the most intricate variant this module
// implements.
//
// Every node is passive, active, loss, or root. insert and
// decrease_key attach new structure directly under the tree root
// rather than the paper's O(1) lazy relinking (which tolerates a
// transient local violation between a node and its immediate parent
// as long as the node isn't less than the global minimum); this
// implementation keeps the heap property intact after every public
// operation, including decrease_key, so it restores eagerly instead.
// The three reductions (active-root, root-degree, loss) are kept. The
// active-root and loss reductions each find a same-rank pair in their
// own rank-indexed registry, standing in for the paper's fix lists
// without the doubly-linked rank-record promotion/demotion machinery;
// the root-degree reduction scans the tree root's rightmost children.
// The paper's refcounted auxiliary records (active record, rank
// records) have no counterpart here: whatever a meld or reduction
// unreferences is reclaimed by Go's garbage collector, a deliberate
// simplification recorded in DESIGN.md.
package strictfibonacci

import (
	"cmp"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
)

// MaxRank bounds the supported tree rank, enough for ~2^64 elements.
const MaxRank = 64

type nodeType int8

const (
	passive nodeType = iota
	active
	loss
	root
)

// Node is the tree node type strict Fibonacci heaps allocate through
// an Allocator[Node[K,V]].
type Node[K cmp.Ordered, V any] struct {
	pqueue.HandleMarker
	key        K
	item       V
	parent     *Node[K, V]
	firstChild *Node[K, V]
	lastChild  *Node[K, V]
	prev       *Node[K, V] // previous sibling
	next       *Node[K, V] // next sibling
	qPrev      *Node[K, V]
	qNext      *Node[K, V]
	inQueue    bool
	inRootFix  bool
	inLossFix  bool
	typ        nodeType
	rank       int
	lossCount  int
}

// Heap is a strict-Fibonacci-heap addressable, meldable priority queue.
type Heap[K cmp.Ordered, V any] struct {
	alloc   allocator.Allocator[Node[K, V]]
	root    *Node[K, V]
	qHead   *Node[K, V]
	qTail   *Node[K, V]
	rootFix [MaxRank][]*Node[K, V]
	lossFix [MaxRank][]*Node[K, V]
	size    int
}

// New constructs an empty strict Fibonacci heap backed by alloc.
func New[K cmp.Ordered, V any](alloc allocator.Allocator[Node[K, V]]) *Heap[K, V] {
	return &Heap[K, V]{alloc: alloc}
}

// --- child list -----------------------------------------------------

func attachChild[K cmp.Ordered, V any](p, c *Node[K, V]) {
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

func detachChild[K cmp.Ordered, V any](p, c *Node[K, V]) {
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
	c.parent, c.prev, c.next = nil, nil, nil
}

// --- Q: FIFO of tree nodes, intrusive doubly-linked -----------------

func (h *Heap[K, V]) enqueueQ(n *Node[K, V]) {
	if n.inQueue {
		return
	}
	n.qPrev = h.qTail
	n.qNext = nil
	if h.qTail != nil {
		h.qTail.qNext = n
	} else {
		h.qHead = n
	}
	h.qTail = n
	n.inQueue = true
}

func (h *Heap[K, V]) dequeueQ() (*Node[K, V], bool) {
	n := h.qHead
	if n == nil {
		return nil, false
	}
	h.qHead = n.qNext
	if h.qHead != nil {
		h.qHead.qPrev = nil
	} else {
		h.qTail = nil
	}
	n.qNext = nil
	n.inQueue = false
	return n, true
}

func (h *Heap[K, V]) removeFromQ(n *Node[K, V]) {
	if !n.inQueue {
		return
	}
	if n.qPrev != nil {
		n.qPrev.qNext = n.qNext
	} else {
		h.qHead = n.qNext
	}
	if n.qNext != nil {
		n.qNext.qPrev = n.qPrev
	} else {
		h.qTail = n.qPrev
	}
	n.qPrev, n.qNext = nil, nil
	n.inQueue = false
}

// --- fix registries ---------------------------------------------------

func registerRootFix[K cmp.Ordered, V any](h *Heap[K, V], n *Node[K, V]) {
	if n.inRootFix {
		return
	}
	n.inRootFix = true
	h.rootFix[n.rank] = append(h.rootFix[n.rank], n)
}

func unregisterRootFix[K cmp.Ordered, V any](h *Heap[K, V], n *Node[K, V]) {
	if !n.inRootFix {
		return
	}
	n.inRootFix = false
	s := h.rootFix[n.rank]
	for i, x := range s {
		if x == n {
			h.rootFix[n.rank] = append(s[:i], s[i+1:]...)
			return
		}
	}
}

func registerLossFix[K cmp.Ordered, V any](h *Heap[K, V], n *Node[K, V]) {
	if n.inLossFix {
		return
	}
	n.inLossFix = true
	h.lossFix[n.rank] = append(h.lossFix[n.rank], n)
}

func unregisterLossFix[K cmp.Ordered, V any](h *Heap[K, V], n *Node[K, V]) {
	if !n.inLossFix {
		return
	}
	n.inLossFix = false
	s := h.lossFix[n.rank]
	for i, x := range s {
		if x == n {
			h.lossFix[n.rank] = append(s[:i], s[i+1:]...)
			return
		}
	}
}

// addLoss increments n's loss, converting it to type loss on the first
// increment and moving it from the ROOT fix list (if present) to the
// LOSS fix list.
func (h *Heap[K, V]) addLoss(n *Node[K, V]) {
	n.lossCount++
	if n.lossCount == 1 {
		unregisterRootFix(h, n)
		n.typ = loss
		registerLossFix(h, n)
	}
}

// clearLoss resets n's loss to zero, converting it back to active and
// dropping it from the LOSS fix list.
func (h *Heap[K, V]) clearLoss(n *Node[K, V]) {
	if n.lossCount == 0 {
		return
	}
	unregisterLossFix(h, n)
	n.lossCount = 0
	if n.typ == loss {
		n.typ = active
	}
}

// --- reductions -------------------------------------------------------

// activeRootReduce links two equal-rank active children of the tree
// root (the first two live ROOT-registry entries of the lowest rank
// that holds a pair) under each other; the winner's rightmost child, if
// passive, is moved under the tree root to keep root-degree bounded.
//
// Entries invalidated by a root change (the node is no longer an
// active child of the current tree root) are compacted away here
// rather than eagerly when the root moves, so root promotion stays
// O(1).
func (h *Heap[K, V]) activeRootReduce() bool {
	for r := 0; r < MaxRank; r++ {
		s := h.rootFix[r]
		if len(s) == 0 {
			continue
		}
		valid := s[:0]
		for _, x := range s {
			if x.typ == active && x.parent == h.root && x.rank == r {
				valid = append(valid, x)
			} else {
				x.inRootFix = false
			}
		}
		h.rootFix[r] = valid
		if len(valid) < 2 {
			continue
		}
		a, b := valid[0], valid[1]
		a.inRootFix, b.inRootFix = false, false
		h.rootFix[r] = append(valid[:0], valid[2:]...)
		winner, loser := a, b
		if b.key < a.key {
			winner, loser = b, a
		}
		detachChild(h.root, loser)
		attachChild(winner, loser)
		winner.rank++
		if rc := winner.lastChild; rc != nil && rc.typ == passive {
			detachChild(winner, rc)
			attachChild(h.root, rc)
		}
		registerRootFix(h, winner)
		return true
	}
	return false
}

// rootDegreeReduce takes the tree root's three rightmost passive
// children and links them into a heap-ordered chain of three, reducing
// the root's degree by two.
func (h *Heap[K, V]) rootDegreeReduce() bool {
	var three []*Node[K, V]
	for c := h.root.lastChild; c != nil && len(three) < 3; c = c.prev {
		if c.typ == passive {
			three = append(three, c)
		}
	}
	if len(three) < 3 {
		return false
	}
	for _, c := range three {
		detachChild(h.root, c)
	}
	if three[1].key < three[0].key {
		three[0], three[1] = three[1], three[0]
	}
	if three[2].key < three[1].key {
		three[1], three[2] = three[2], three[1]
	}
	if three[1].key < three[0].key {
		three[0], three[1] = three[1], three[0]
	}
	grand, parent, child := three[0], three[1], three[2]
	attachChild(parent, child)
	attachChild(grand, parent)
	parent.typ = active
	grand.typ = active
	grand.rank++
	attachChild(h.root, grand)
	registerRootFix(h, grand)
	return true
}

// lossReduce prefers a one-node reduction (hoist any node with loss>=2
// under the tree root, clearing its loss) over a two-node reduction
// (join two equal-rank loss nodes, clearing both losses).
func (h *Heap[K, V]) lossReduce() bool {
	for r := 0; r < MaxRank; r++ {
		for _, n := range h.lossFix[r] {
			if n.lossCount >= 2 {
				p := n.parent
				detachChild(p, n)
				h.clearLoss(n)
				attachChild(h.root, n)
				n.typ = active
				registerRootFix(h, n)
				return true
			}
		}
	}
	for r := 0; r < MaxRank; r++ {
		if len(h.lossFix[r]) < 2 {
			continue
		}
		a, b := h.lossFix[r][0], h.lossFix[r][1]
		winner, loser := a, b
		if b.key < a.key {
			winner, loser = b, a
		}
		// Equal keys can pick a descendant as winner over its own
		// ancestor; linking would then form a cycle. The ancestor is
		// key-safe either way, so it wins.
		for a := winner.parent; a != nil; a = a.parent {
			if a == loser {
				winner, loser = loser, winner
				break
			}
		}
		pl := loser.parent
		detachChild(pl, loser)
		h.clearLoss(loser)
		h.clearLoss(winner)
		attachChild(winner, loser)
		winner.rank++
		if winner.parent == h.root && winner.typ == active {
			registerRootFix(h, winner)
		}
		return true
	}
	return false
}

func (h *Heap[K, V]) reduceBounded(lossCap, activeRootCap, rootDegreeCap int) {
	for i := 0; i < lossCap; i++ {
		if !h.lossReduce() {
			break
		}
	}
	for activeRootCap > 0 || rootDegreeCap > 0 {
		applied := false
		if activeRootCap > 0 && h.activeRootReduce() {
			activeRootCap--
			applied = true
		} else if rootDegreeCap > 0 && h.rootDegreeReduce() {
			rootDegreeCap--
			applied = true
		}
		if !applied {
			break
		}
	}
}

func (h *Heap[K, V]) reduceUntilDry(cap int) {
	for i := 0; i < cap; i++ {
		a := h.activeRootReduce()
		b := false
		if !a {
			b = h.rootDegreeReduce()
		}
		if !a && !b {
			return
		}
	}
}

// --- public API ---------------------------------------------------

func (h *Heap[K, V]) Insert(item V, key K) pqueue.Handle {
	n := h.alloc.Alloc()
	n.key = key
	n.item = item
	n.typ = passive
	if h.root == nil {
		n.typ = root
		h.root = n
	} else if key < h.root.key {
		old := h.root
		old.typ = active
		attachChild(n, old)
		registerRootFix(h, old)
		n.typ = root
		h.root = n
	} else {
		attachChild(h.root, n)
	}
	h.enqueueQ(n)
	h.size++
	h.reduceBounded(1, 1, 1)
	return n
}

func (h *Heap[K, V]) FindMin() (pqueue.Handle, bool) {
	if h.size == 0 {
		return nil, false
	}
	return h.root, true
}

func (h *Heap[K, V]) GetKey(handle pqueue.Handle) K {
	return handle.(*Node[K, V]).key
}

func (h *Heap[K, V]) GetItem(handle pqueue.Handle) *V {
	return &handle.(*Node[K, V]).item
}

func (h *Heap[K, V]) Size() int { return h.size }

func (h *Heap[K, V]) Empty() bool { return h.size == 0 }

// leftmostPassiveChildren returns up to n of x's leftmost passive
// children without detaching them.
func leftmostPassiveChildren[K cmp.Ordered, V any](x *Node[K, V], n int) []*Node[K, V] {
	var out []*Node[K, V]
	for c := x.firstChild; c != nil && len(out) < n; c = c.next {
		if c.typ == passive {
			out = append(out, c)
		}
	}
	return out
}

func (h *Heap[K, V]) DeleteMin() K {
	old := h.root
	key := old.key
	if old.firstChild == nil {
		h.alloc.Free(old)
		h.root = nil
		h.size--
		return key
	}
	var newRoot *Node[K, V]
	for c := old.firstChild; c != nil; c = c.next {
		if newRoot == nil || c.key < newRoot.key {
			newRoot = c
		}
	}
	if newRoot.typ == active {
		unregisterRootFix(h, newRoot)
	}
	h.clearLoss(newRoot)
	detachChild(old, newRoot)
	for c := old.firstChild; c != nil; {
		next := c.next
		detachChild(old, c)
		attachChild(newRoot, c)
		c = next
	}
	newRoot.typ = root
	h.root = newRoot
	h.removeFromQ(old)
	h.alloc.Free(old)
	h.size--

	for i := 0; i < 2; i++ {
		x, ok := h.dequeueQ()
		if !ok {
			break
		}
		for _, c := range leftmostPassiveChildren(x, 2) {
			detachChild(x, c)
			attachChild(h.root, c)
		}
	}
	h.reduceUntilDry(4 * MaxRank)
	return key
}

func (h *Heap[K, V]) DecreaseKey(handle pqueue.Handle, newKey K) {
	n := handle.(*Node[K, V])
	n.key = newKey
	if n == h.root {
		return
	}
	p := n.parent
	if !(n.key < p.key) {
		return
	}
	wasActive := n.typ == active || n.typ == loss
	if n.typ == active {
		unregisterRootFix(h, n)
	}
	if n.typ == loss {
		h.clearLoss(n)
	}
	detachChild(p, n)
	if p != h.root && wasActive {
		h.addLoss(p)
	}
	if n.key < h.root.key {
		old := h.root
		old.typ = active
		attachChild(n, old)
		registerRootFix(h, old)
		n.typ = root
		h.root = n
	} else {
		attachChild(h.root, n)
		n.typ = active
		registerRootFix(h, n)
	}
	h.enqueueQ(n)
	h.reduceBounded(1, 6, 4)
}

func (h *Heap[K, V]) Delete(handle pqueue.Handle) (K, bool) {
	n := handle.(*Node[K, V])
	if n == h.root {
		return h.DeleteMin(), true
	}
	key := n.key
	p := n.parent
	wasActive := n.typ == active || n.typ == loss
	if n.typ == active {
		unregisterRootFix(h, n)
	}
	if n.typ == loss {
		h.clearLoss(n)
	}
	detachChild(p, n)
	if p != h.root && wasActive {
		h.addLoss(p)
	}
	h.removeFromQ(n)
	for c := n.firstChild; c != nil; {
		next := c.next
		detachChild(n, c)
		attachChild(h.root, c)
		if c.typ == active {
			registerRootFix(h, c)
		}
		c = next
	}
	h.alloc.Free(n)
	h.size--
	h.reduceUntilDry(4 * MaxRank)
	return key, true
}

func (h *Heap[K, V]) freeSubtree(n *Node[K, V]) {
	for c := n.firstChild; c != nil; {
		next := c.next
		h.freeSubtree(c)
		c = next
	}
	h.alloc.Free(n)
}

func (h *Heap[K, V]) Clear() {
	if h.root != nil {
		h.freeSubtree(h.root)
	}
	h.root = nil
	h.qHead, h.qTail = nil, nil
	h.rootFix = [MaxRank][]*Node[K, V]{}
	h.lossFix = [MaxRank][]*Node[K, V]{}
	h.size = 0
}

func (h *Heap[K, V]) Destroy() {
	h.Clear()
}

// Meld absorbs other's tree into h. The lesser-key root wins and stays
// the tree root; the loser's entire tree becomes one of its children.
// Q's are spliced together and other is left empty, per the common
// contract. The paper's lazy garbage-collection list for the loser's
// now-unreferenced auxiliary records has no counterpart here: Go's
// garbage collector reclaims them once this method returns.
func (h *Heap[K, V]) Meld(otherI pqueue.Interface[K, V]) error {
	other, ok := otherI.(*Heap[K, V])
	if !ok || !allocatorsEqual(h.alloc, other.alloc) {
		return pqueue.ErrMeldMismatchedAllocator
	}
	if other.root == nil {
		return nil
	}
	if h.root == nil {
		h.root = other.root
		h.qHead, h.qTail = other.qHead, other.qTail
		h.rootFix = other.rootFix
		h.lossFix = other.lossFix
		h.size = other.size
		*other = Heap[K, V]{alloc: other.alloc}
		return nil
	}
	winner, loser := h.root, other.root
	if loser.key < winner.key {
		winner, loser = loser, winner
	}
	loser.typ = active
	attachChild(winner, loser)
	registerRootFix(h, loser)
	h.root = winner
	if other.qHead != nil {
		if h.qTail != nil {
			h.qTail.qNext = other.qHead
			other.qHead.qPrev = h.qTail
			h.qTail = other.qTail
		} else {
			h.qHead, h.qTail = other.qHead, other.qTail
		}
	}
	for r := 0; r < MaxRank; r++ {
		h.rootFix[r] = append(h.rootFix[r], other.rootFix[r]...)
		h.lossFix[r] = append(h.lossFix[r], other.lossFix[r]...)
	}
	h.size += other.size
	*other = Heap[K, V]{alloc: other.alloc}
	h.reduceUntilDry(4 * MaxRank)
	return nil
}

func allocatorsEqual[T any](a, b allocator.Allocator[T]) bool {
	return a == b
}

var (
	_ pqueue.Interface[int, string] = (*Heap[int, string])(nil)
	_ pqueue.Meldable[int, string]  = (*Heap[int, string])(nil)
)
