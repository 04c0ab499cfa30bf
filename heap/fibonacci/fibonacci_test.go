package fibonacci

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

func TestDrainInOrderAfterConsolidation(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	const n = 64
	var handles []pqueue.Handle
	for i := int64(0); i < n; i++ {
		handles = append(handles, q.Insert("x", i))
	}
	// Force a consolidation so some nodes gain children.
	q.DeleteMin()
	require.Equal(t, n-1, q.Size())
	var prev int64 = -1
	for !q.Empty() {
		k := q.DeleteMin()
		require.GreaterOrEqual(t, k, prev)
		prev = k
	}
}

func TestDecreaseKeyCutsAndRelinks(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 32; i++ {
		handles = append(handles, q.Insert("x", 100+i))
	}
	q.DeleteMin() // forces consolidation, some nodes become children
	for i, h := range handles[1:] {
		if i%3 == 0 {
			q.DecreaseKey(h, int64(-100-i))
		}
	}
	min, ok := q.FindMin()
	require.True(t, ok)
	require.Less(t, q.GetKey(min), int64(0))
	var prev int64 = q.GetKey(min) - 1
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
	for i := int64(0); i < 50; i++ {
		handles = append(handles, q.Insert("x", i))
	}
	key, ok := q.Delete(handles[25])
	require.True(t, ok)
	require.Equal(t, int64(25), key)
	require.Equal(t, 49, q.Size())
	var prev int64 = -1
	for !q.Empty() {
		k := q.DeleteMin()
		require.NotEqual(t, int64(25), k)
		require.GreaterOrEqual(t, k, prev)
		prev = k
	}
}
