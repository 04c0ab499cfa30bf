package rankpairing

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
	for i := int64(0); i < 64; i++ {
		handles = append(handles, q.Insert("x", 1000+i))
	}
	q.DeleteMin() // forces a consolidation so some nodes have children
	for i, h := range handles[1:] {
		if i%5 == 0 {
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
	for i := int64(0); i < 50; i++ {
		handles = append(handles, q.Insert("x", i))
	}
	key, ok := q.Delete(handles[30])
	require.True(t, ok)
	require.Equal(t, int64(30), key)
	require.Equal(t, 49, q.Size())
	var prev int64 = -1
	for !q.Empty() {
		k := q.DeleteMin()
		require.NotEqual(t, int64(30), k)
		require.GreaterOrEqual(t, k, prev)
		prev = k
	}
}

func TestDijkstraStyleRandom(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Lazy, 0))
	defer q.Destroy()
	const n = 1000
	seen := make(map[int64]bool, n)
	x := int64(88172645463325252)
	for i := 0; i < n; i++ {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		k := x % (1 << 32)
		if k < 0 {
			k = -k
		}
		for seen[k] {
			k++
		}
		seen[k] = true
		q.Insert("x", k)
	}
	require.Equal(t, n, q.Size())
	var prev int64 = -1
	count := 0
	for !q.Empty() {
		k := q.DeleteMin()
		require.GreaterOrEqual(t, k, prev)
		prev = k
		count++
	}
	require.Equal(t, n, count)
}
