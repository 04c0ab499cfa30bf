package allocator

// LazyPool is a per-type doubling chunk vector. Chunk k (0-indexed) has
// capacity 1<<k; chunks are allocated lazily as the bump cursor exhausts
// the last one, and are retained across Clear (only Destroy releases
// them), so a trace replay against the same pool doesn't pay first-touch
// allocation cost a second time.
//
// Freed nodes are pushed onto a free stack and satisfy the next Alloc
// before the bump cursor advances, so short insert/delete churn reuses
// storage instead of growing the chunk vector.
type LazyPool[T any] struct {
	chunks   [][]T
	curChunk int // index into chunks of the chunk the cursor is bumping through
	curIdx   int // next unused slot within chunks[curChunk]
	free     []*T
}

// NewLazy constructs an empty LazyPool; its first chunk (capacity 1) is
// allocated on the first Alloc.
func NewLazy[T any]() *LazyPool[T] {
	return &LazyPool[T]{}
}

func (p *LazyPool[T]) Alloc() *T {
	if n := len(p.free); n > 0 {
		ptr := p.free[n-1]
		p.free = p.free[:n-1]
		*ptr = *new(T)
		return ptr
	}
	if p.curChunk == len(p.chunks) {
		p.chunks = append(p.chunks, make([]T, 1<<p.curChunk))
	}
	chunk := p.chunks[p.curChunk]
	ptr := &chunk[p.curIdx]
	*ptr = *new(T) // slot may hold stale data after Clear
	p.curIdx++
	if p.curIdx == len(chunk) {
		p.curChunk++
		p.curIdx = 0
	}
	return ptr
}

func (p *LazyPool[T]) Free(ptr *T) {
	if ptr == nil {
		return
	}
	p.free = append(p.free, ptr)
}

// Clear resets the bump cursor and free stack to empty without
// releasing any allocated chunk; all chunks remain retained and will be
// reused in order as the cursor walks forward again.
func (p *LazyPool[T]) Clear() {
	p.curChunk = 0
	p.curIdx = 0
	p.free = p.free[:0]
}

func (p *LazyPool[T]) Destroy() {
	p.chunks = nil
	p.curChunk = 0
	p.curIdx = 0
	p.free = nil
}
