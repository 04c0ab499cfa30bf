package allocator

import (
	"fmt"

	"github.com/pqbench/pq/logging"
)

// ErrCapacityExceeded is returned by EagerPool.TryAlloc, and is the
// panic value raised by Alloc, when the pre-allocated block is
// exhausted. Exhaustion means the benchmark was sized wrong and its
// results are meaningless, so Alloc aborts with a diagnostic;
// TryAlloc lets a caller that wants to recover (e.g. a test) check
// first.
type ErrCapacityExceeded struct {
	Capacity int
}

func (e *ErrCapacityExceeded) Error() string {
	return fmt.Sprintf("allocator: eager pool capacity %d exceeded", e.Capacity)
}

// EagerPool is a single pre-allocated contiguous block of capacity
// nodes. A stack of returned pointers backs Free; Alloc pops that stack
// or, failing that, bumps a cursor into the block. Exceeding capacity
// is fatal; eager is the only strategy that can fail an allocation.
type EagerPool[T any] struct {
	block []T
	next  int
	free  []*T
	log   logging.Logger
}

// NewEager constructs an EagerPool with room for exactly capacity
// live nodes.
func NewEager[T any](capacity int, opts ...Option) *EagerPool[T] {
	if capacity < 0 {
		capacity = 0
	}
	cfg := resolveOptions(opts)
	return &EagerPool[T]{block: make([]T, capacity), log: cfg.logger}
}

// TryAlloc is Alloc without the panic: it reports exhaustion instead of
// aborting, for callers (such as tests) that want to assert on it.
func (p *EagerPool[T]) TryAlloc() (*T, error) {
	if n := len(p.free); n > 0 {
		ptr := p.free[n-1]
		p.free = p.free[:n-1]
		*ptr = *new(T)
		return ptr, nil
	}
	if p.next == len(p.block) {
		return nil, &ErrCapacityExceeded{Capacity: len(p.block)}
	}
	ptr := &p.block[p.next]
	*ptr = *new(T) // slot may hold stale data after Clear
	p.next++
	return ptr, nil
}

func (p *EagerPool[T]) Alloc() *T {
	ptr, err := p.TryAlloc()
	if err != nil {
		if p.log.IsEnabled(logging.LevelError) {
			p.log.Log(logging.Entry{
				Level:   logging.LevelError,
				Message: "eager pool exhausted, aborting",
				Fields:  map[string]any{"capacity": len(p.block)},
				Err:     err,
			})
		}
		panic(err)
	}
	return ptr
}

func (p *EagerPool[T]) Free(ptr *T) {
	if ptr == nil {
		return
	}
	p.free = append(p.free, ptr)
}

// Clear resets bookkeeping to empty without releasing the backing
// block.
func (p *EagerPool[T]) Clear() {
	p.next = 0
	p.free = p.free[:0]
}

func (p *EagerPool[T]) Destroy() {
	p.block = nil
	p.next = 0
	p.free = nil
}
