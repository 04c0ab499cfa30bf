package strictfibonacci

import (
	"testing"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
	"github.com/pqbench/pq/pqueue/conformance"
	"github.com/stretchr/testify/require"
)

func factory() pqueue.Interface[int64, string] {
	return New[int64, string](allocator.New[Node[int64, string]](allocator.Lazy, 0))
}

func TestConformance(t *testing.T) {
	conformance.Suite(t, factory)
}

func TestDecreaseKeyThenDrain(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 200; i++ {
		handles = append(handles, q.Insert("x", 1000+i))
	}
	for i, h := range handles[1:] {
		if i%4 == 0 {
			q.DecreaseKey(h, int64(-1000-i))
		}
	}
	var prev int64 = -1 << 62
	for !q.Empty() {
		k := q.DeleteMin()
		require.GreaterOrEqual(t, k, prev)
		prev = k
	}
}

func TestDeleteArbitraryHandle(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 80; i++ {
		handles = append(handles, q.Insert("x", i))
	}
	key, ok := q.Delete(handles[30])
	require.True(t, ok)
	require.Equal(t, int64(30), key)
	require.Equal(t, 79, q.Size())
	var prev int64 = -1
	for !q.Empty() {
		k := q.DeleteMin()
		require.NotEqual(t, int64(30), k)
		require.GreaterOrEqual(t, k, prev)
		prev = k
	}
}

func TestMeldCombinesTwoHeaps(t *testing.T) {
	alloc := allocator.New[Node[int64, string]](allocator.Naive, 0)
	a := New[int64, string](alloc)
	b := New[int64, string](alloc)
	defer a.Destroy()
	for i := int64(0); i < 30; i++ {
		a.Insert("a", i*2)
	}
	for i := int64(0); i < 30; i++ {
		b.Insert("b", i*2+1)
	}
	require.NoError(t, a.Meld(b))
	require.Equal(t, 60, a.Size())
	require.Equal(t, 0, b.Size())
	var prev int64 = -1
	count := 0
	for !a.Empty() {
		k := a.DeleteMin()
		require.GreaterOrEqual(t, k, prev)
		prev = k
		count++
	}
	require.Equal(t, 60, count)
}

func TestMeldRejectsMismatchedAllocator(t *testing.T) {
	a := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	b := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer a.Destroy()
	defer b.Destroy()
	a.Insert("a", 1)
	b.Insert("b", 2)
	require.ErrorIs(t, a.Meld(b), pqueue.ErrMeldMismatchedAllocator)
}

func TestDijkstraStyleRandom(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Lazy, 0))
	defer q.Destroy()
	seen := map[int64]bool{}
	state := uint64(88172645463325252)
	count := 0
	for count < 500 {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		k := int64(state % (1 << 30))
		if seen[k] {
			continue
		}
		seen[k] = true
		q.Insert("x", k)
		count++
	}
	require.Equal(t, 500, q.Size())
	var prev int64 = -1
	drained := 0
	for !q.Empty() {
		k := q.DeleteMin()
		require.GreaterOrEqual(t, k, prev)
		prev = k
		drained++
	}
	require.Equal(t, 500, drained)
}
