// Package conformance runs the universal properties and end-to-end
// scenarios every heap variant must satisfy against any
// Interface[int64, string] implementation, so each of the ten variant
// packages gets the same coverage without re-deriving it.
package conformance

import (
	"math/rand"
	"testing"

	"github.com/pqbench/pq/pqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh, empty queue for one test case. Implementations
// should bind a fresh allocator per call so cases don't share state.
type Factory func() pqueue.Interface[int64, string]

// Suite runs every scenario against factory().
func Suite(t *testing.T, factory Factory) {
	t.Run("scenario1_basic_order", func(t *testing.T) { scenario1(t, factory) })
	t.Run("scenario2_five_in_order", func(t *testing.T) { scenario2(t, factory) })
	t.Run("scenario3_decrease_key", func(t *testing.T) { scenario3(t, factory) })
	t.Run("scenario4_duplicate_keys", func(t *testing.T) { scenario4(t, factory) })
	t.Run("scenario5_dijkstra_style", func(t *testing.T) { scenario5(t, factory) })
	t.Run("size_accuracy", func(t *testing.T) { sizeAccuracy(t, factory) })
	t.Run("find_min_on_empty", func(t *testing.T) { findMinOnEmpty(t, factory) })
	t.Run("clear_then_destroy_equals_destroy", func(t *testing.T) { clearThenDestroy(t, factory) })
	t.Run("handle_stability", func(t *testing.T) { handleStability(t, factory) })
}

func scenario1(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	q.Insert("a", 5)
	q.Insert("b", 3)
	q.Insert("c", 7)
	h, ok := q.FindMin()
	require.True(t, ok)
	assert.Equal(t, int64(3), q.GetKey(h))
	assert.Equal(t, int64(3), q.DeleteMin())
	h, ok = q.FindMin()
	require.True(t, ok)
	assert.Equal(t, int64(5), q.GetKey(h))
}

func scenario2(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	for _, k := range []int64{10, 8, 6, 4, 2} {
		q.Insert("x", k)
	}
	var got []int64
	for i := 0; i < 5; i++ {
		got = append(got, q.DeleteMin())
	}
	assert.Equal(t, []int64{2, 4, 6, 8, 10}, got)
}

func scenario3(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	h1 := q.Insert("h1", 100)
	q.Insert("h2", 50)
	q.DecreaseKey(h1, 1)
	assert.Equal(t, int64(1), q.DeleteMin())
	h, ok := q.FindMin()
	require.True(t, ok)
	assert.Equal(t, int64(50), q.GetKey(h))
}

func scenario4(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	q.Insert("a", 9)
	q.Insert("b", 9)
	q.Insert("c", 9)
	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(9), q.DeleteMin())
	}
	assert.Equal(t, 0, q.Size())
}

func scenario5(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	rng := rand.New(rand.NewSource(42))
	const n = 1000
	seen := make(map[int64]bool, n)
	for len(seen) < n {
		k := int64(rng.Int63n(1 << 32))
		if seen[k] {
			continue
		}
		seen[k] = true
		q.Insert("item", k)
	}
	var last int64 = -1
	count := 0
	for !q.Empty() {
		h, ok := q.FindMin()
		require.True(t, ok)
		k := q.GetKey(h)
		assert.GreaterOrEqual(t, k, last)
		assert.Equal(t, k, q.DeleteMin())
		last = k
		count++
	}
	assert.Equal(t, n, count)
}

func sizeAccuracy(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	assert.Equal(t, 0, q.Size())
	assert.True(t, q.Empty())
	h := q.Insert("a", 1)
	assert.Equal(t, 1, q.Size())
	q.Insert("b", 2)
	assert.Equal(t, 2, q.Size())
	q.DecreaseKey(h, 0)
	assert.Equal(t, 2, q.Size())
	q.DeleteMin()
	assert.Equal(t, 1, q.Size())
	q.DeleteMin()
	assert.Equal(t, 0, q.Size())
	assert.True(t, q.Empty())
}

func findMinOnEmpty(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	h, ok := q.FindMin()
	assert.False(t, ok)
	assert.Nil(t, h)
}

func clearThenDestroy(t *testing.T, factory Factory) {
	q := factory()
	q.Insert("a", 1)
	q.Insert("b", 2)
	q.Clear()
	assert.Equal(t, 0, q.Size())
	q.Clear()
	assert.Equal(t, 0, q.Size())
	assert.NotPanics(t, func() { q.Destroy() })
}

func handleStability(t *testing.T, factory Factory) {
	q := factory()
	defer q.Destroy()
	h := q.Insert("stable", 42)
	for _, k := range []int64{100, 50, 10, 200} {
		q.Insert("noise", k)
	}
	assert.Equal(t, int64(42), q.GetKey(h))
	assert.Equal(t, "stable", *q.GetItem(h))
	q.DecreaseKey(h, 5)
	assert.Equal(t, int64(5), q.GetKey(h))
	assert.Equal(t, "stable", *q.GetItem(h))
}
