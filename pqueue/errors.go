package pqueue

import "errors"

// Sentinel errors for the handful of failures the core surfaces rather
// than treats as caller contract violations. Besides the meld
// precondition below, the only detected categories are eager-pool
// capacity exhaustion (allocator.ErrCapacityExceeded) and trace I/O
// failure (trace.ErrIO), each defined in its own package. Everything else (a
// handle from a different queue, a decrease_key that increases a key,
// delete_min on an empty queue) is undefined behavior by contract and
// deliberately not checked here.
var (
	// ErrMeldMismatchedAllocator is returned by Meld when the two
	// queues were not constructed against the same allocator.
	ErrMeldMismatchedAllocator = errors.New("pqueue: meld requires both queues to share an allocator")
)
