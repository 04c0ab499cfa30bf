package violation

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

func TestAtMostTwoRootsPerRank(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	for i := int64(0); i < 200; i++ {
		q.Insert("x", i)
		for r := 0; r < MaxRank; r++ {
			require.LessOrEqual(t, q.roots[r].count, 2)
		}
	}
}

func TestDecreaseKeyPromotesActiveChild(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 100; i++ {
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
	for i := int64(0); i < 60; i++ {
		handles = append(handles, q.Insert("x", i))
	}
	key, ok := q.Delete(handles[40])
	require.True(t, ok)
	require.Equal(t, int64(40), key)
	require.Equal(t, 59, q.Size())
	var prev int64 = -1
	for !q.Empty() {
		k := q.DeleteMin()
		require.NotEqual(t, int64(40), k)
		require.GreaterOrEqual(t, k, prev)
		prev = k
	}
}
