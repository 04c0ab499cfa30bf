package binomial

import (
	"testing"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
	"github.com/pqbench/pq/pqueue/conformance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factory() pqueue.Interface[int64, string] {
	return New[int64, string](allocator.New[Node[int64, string]](allocator.Lazy, 0))
}

func TestConformance(t *testing.T) {
	conformance.Suite(t, factory)
}

func TestRootBitmaskMatchesOccupiedSlots(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	for i := int64(0); i < 37; i++ {
		q.Insert("x", i)
	}
	for r := 0; r < MaxRank; r++ {
		occupied := q.hasRoot(r)
		present := q.roots[r] != nil
		require.Equal(t, present, occupied, "rank %d", r)
	}
}

func TestHeapPropertyAndHandlesAfterChurn(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Eager, 200))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 64; i++ {
		handles = append(handles, q.Insert("x", 1000-i))
	}
	for i, h := range handles {
		if i%5 == 0 {
			q.DecreaseKey(h, int64(-i))
		}
	}
	for r := 0; r < MaxRank; r++ {
		if q.hasRoot(r) {
			assertHeapProperty(t, q.roots[r])
		}
	}
	key, ok := q.Delete(handles[10])
	require.True(t, ok)
	assert.NotZero(t, key)
}

func assertHeapProperty(t *testing.T, n *Node[int64, string]) {
	if n == nil {
		return
	}
	for c := n.left; c != nil; c = c.right {
		require.False(t, c.key < n.key)
		require.Same(t, n, c.parent)
		assertHeapProperty(t, c)
	}
}
