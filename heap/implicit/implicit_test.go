package implicit

import (
	"testing"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
	"github.com/pqbench/pq/pqueue/conformance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(d int) conformance.Factory {
	return func() pqueue.Interface[int64, string] {
		return New[int64, string](d, allocator.New[Node[int64, string]](allocator.Naive, 0))
	}
}

func TestConformance(t *testing.T) {
	for _, d := range []int{2, 4, 8, 16} {
		t.Run(factoryName(d), func(t *testing.T) {
			conformance.Suite(t, newFactory(d))
		})
	}
}

func factoryName(d int) string {
	switch d {
	case 2:
		return "d2"
	case 4:
		return "d4"
	case 8:
		return "d8"
	default:
		return "d16"
	}
}

func TestDeleteArbitraryUnsupported(t *testing.T) {
	q := New[int64, string](4, allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	h := q.Insert("a", 1)
	key, ok := q.Delete(h)
	assert.False(t, ok)
	assert.Zero(t, key)
	assert.Equal(t, 1, q.Size())
}

func TestHandleIndexTracksSifts(t *testing.T) {
	q := New[int64, string](2, allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	var handles []pqueue.Handle
	for _, k := range []int64{50, 40, 30, 20, 10, 5} {
		handles = append(handles, q.Insert("x", k))
	}
	for _, h := range handles {
		n := h.(*Node[int64, string])
		require.Equal(t, n, q.arr[n.idx])
	}
}
