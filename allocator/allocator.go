// Package allocator implements the node-allocation substrate the heap
// variants are built on: fixed-size typed node storage, decoupled from
// heap logic, so that benchmarks comparing priority-queue variants
// measure the algorithms rather than the allocator underneath them.
//
// Each heap variant is generic over a single node struct type T and is
// constructed with one Allocator[T]; every variant here, strict
// Fibonacci included, keeps all of its per-node bookkeeping in that one
// node type. This is the per-type arena split recommended for
// pointer-linked structures without raw pointers: every Allocator owns
// exactly one node type's storage.
package allocator

// Allocator is the shared contract every strategy below implements.
// All fields of an allocated *T are zero-valued until the caller sets
// them; heap engines rely on this (nil pointer fields, zero rank/mark).
type Allocator[T any] interface {
	// Alloc returns a pointer to zeroed storage for one T.
	Alloc() *T
	// Free returns ptr to the pool. ptr must have come from this
	// Allocator's Alloc and must not be used afterward.
	Free(ptr *T)
	// Clear resets bookkeeping to empty without releasing backing
	// memory, so a trace replay doesn't pay for reallocation.
	Clear()
	// Destroy releases all backing storage. The Allocator must not be
	// used afterward.
	Destroy()
}

// Kind selects which allocation strategy New constructs.
type Kind int

const (
	// Naive issues one system allocation per node. Baseline.
	Naive Kind = iota
	// Lazy grows a per-type doubling chunk vector on demand.
	Lazy
	// Eager pre-allocates one contiguous block of a fixed capacity.
	Eager
)

// String returns the human-readable strategy name.
func (k Kind) String() string {
	switch k {
	case Naive:
		return "naive"
	case Lazy:
		return "lazy"
	case Eager:
		return "eager"
	default:
		return "unknown"
	}
}

// New constructs an Allocator[T] of the given Kind. capacity is only
// meaningful for Eager, where it is the hard cap on live nodes; it is
// ignored by Naive and Lazy, as are any Options (only the eager
// strategy has diagnostics to configure).
func New[T any](kind Kind, capacity int, opts ...Option) Allocator[T] {
	switch kind {
	case Lazy:
		return NewLazy[T]()
	case Eager:
		return NewEager[T](capacity, opts...)
	default:
		return NewNaive[T]()
	}
}
