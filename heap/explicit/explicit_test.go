package explicit

import (
	"strconv"
	"testing"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/pqueue"
	"github.com/pqbench/pq/pqueue/conformance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(d int) conformance.Factory {
	return func() pqueue.Interface[int64, string] {
		return New[int64, string](d, allocator.New[Node[int64, string]](allocator.Lazy, 0))
	}
}

func TestConformance(t *testing.T) {
	for _, d := range []int{2, 4, 8, 16} {
		t.Run("d="+strconv.Itoa(d), func(t *testing.T) {
			conformance.Suite(t, newFactory(d))
		})
	}
}

func TestArbitraryDeleteIsSupported(t *testing.T) {
	q := New[int64, string](4, allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	handles := map[int64]pqueue.Handle{}
	for _, k := range []int64{50, 10, 30, 20, 40, 5, 60} {
		handles[k] = q.Insert("x", k)
	}
	key, ok := q.Delete(handles[30])
	require.True(t, ok)
	assert.Equal(t, int64(30), key)
	assert.Equal(t, 6, q.Size())
	var got []int64
	for !q.Empty() {
		got = append(got, q.DeleteMin())
	}
	assert.Equal(t, []int64{5, 10, 20, 40, 50, 60}, got)
}

func TestHeapPropertyAfterChurn(t *testing.T) {
	q := New[int64, string](2, allocator.New[Node[int64, string]](allocator.Eager, 256))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 100; i++ {
		handles = append(handles, q.Insert("x", 200-i))
	}
	for i, h := range handles {
		if i%3 == 0 {
			q.DecreaseKey(h, int64(-i))
		}
	}
	assertHeapProperty(t, q.root)
}

func assertHeapProperty(t *testing.T, n *Node[int64, string]) {
	if n == nil {
		return
	}
	for _, c := range n.children {
		if c == nil {
			continue
		}
		require.False(t, c.key < n.key)
		require.Same(t, n, c.parent)
		assertHeapProperty(t, c)
	}
}
