// Package pqueue defines the operational contract every heap variant in
// this module implements: Interface[K,V] is the common API (insert,
// find_min, delete_min, delete, decrease_key, clear, destroy, ...) and
// Meldable is the subset of variants that additionally support meld.
//
// A benchmark driver written against Interface is generic over which
// variant it exercises; "build-time selection" of the heap algorithm
// becomes ordinary Go construction (binomial.New(alloc) vs
// pairing.New(alloc)) instead of conditional compilation into one
// pq_type alias.
package pqueue

import "cmp"

// Handle is the opaque token returned by Insert and consumed by
// GetKey, GetItem, Delete, and DecreaseKey. Each variant's node pointer
// type implements Handle by embedding HandleMarker; Handle's single
// method is unexported, so embedding HandleMarker is the only way to
// satisfy it. Callers see an opaque Handle the way a C void* handle hid
// its real layout, while each variant keeps Go's static type safety by
// asserting it back to its own *Node type, whose fields are unexported.
//
// A Handle's lifetime runs from the Insert that created it to the
// first of: Delete of that handle, DeleteMin removing that node,
// Clear, or Destroy of its owning queue. Using a handle after its node
// has been freed, or against a queue other than the one that produced
// it, is a contract violation: undefined, not detected.
type Handle interface {
	pqueueHandle()
}

// HandleMarker is embedded (by value) in every variant's node struct so
// that *Node implements Handle. It is exported only so variant packages
// outside this one can embed it; it carries no state.
type HandleMarker struct{}

func (HandleMarker) pqueueHandle() {}

// Interface is the common addressable priority queue API every variant
// implements. K is compared with < only (cmp.Ordered supplies that);
// ties are broken in favor of the incumbent, never the newcomer.
type Interface[K cmp.Ordered, V any] interface {
	// Insert adds (item, key) and returns a handle for later
	// DecreaseKey/Delete. Size increases by one; Minimum is updated if
	// key is strictly less than the current minimum's key.
	Insert(item V, key K) Handle

	// FindMin returns a handle to a node of globally least key, or
	// (nil, false) iff the queue is empty.
	FindMin() (Handle, bool)

	// DeleteMin removes a node of least key and returns its key.
	// Undefined on an empty queue.
	DeleteMin() K

	// Delete removes an arbitrary node and returns its key. Some
	// variants (implicit d-ary) do not support arbitrary delete and
	// return (0, false); see that package's doc comment.
	Delete(h Handle) (K, bool)

	// DecreaseKey lowers h's key to newKey, which must be <= h's
	// current key (the contract violation of an increasing key is
	// undefined, not detected).
	DecreaseKey(h Handle, newKey K)

	// GetKey returns h's current key in O(1).
	GetKey(h Handle) K

	// GetItem returns a pointer to h's item in O(1). The pointer is
	// valid for the handle's lifetime.
	GetItem(h Handle) *V

	// Size returns the number of live handles.
	Size() int

	// Empty reports whether Size() == 0.
	Empty() bool

	// Clear removes every node (returning storage to the allocator)
	// and resets Size/Minimum/roots to empty.
	Clear()

	// Destroy clears the queue and releases the queue object itself.
	// The queue must not be used afterward.
	Destroy()
}

// Meldable is implemented by variants that support sublinear-time
// merge: quake and strict Fibonacci. Meld absorbs other's nodes into
// the receiver; other is left empty (as if Clear had been called on
// it) and must share the receiver's allocator.
type Meldable[K cmp.Ordered, V any] interface {
	Interface[K, V]
	Meld(other Interface[K, V]) error
}
