package rankrelaxedweak

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

func TestNoTwoRootsOfEqualRank(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	for i := int64(0); i < 300; i++ {
		q.Insert("x", i)
	}
	seen := map[int]bool{}
	for r := 0; r < MaxRank; r++ {
		if q.hasRoot(r) {
			require.False(t, seen[r])
			seen[r] = true
		}
	}
}

// assertInvariants walks the whole forest and checks the four
// structural invariants plus heap order and mark-registry consistency:
// no two roots of equal rank, no two marked nodes of equal rank, no
// marked first child, no marked node under a marked parent.
func assertInvariants(t *testing.T, q *Heap[int64, string]) {
	t.Helper()
	markedByRank := map[int]int{}
	for r := 0; r < MaxRank; r++ {
		if !q.hasRoot(r) {
			require.Nil(t, q.roots[r])
			continue
		}
		root := q.roots[r]
		require.NotNil(t, root)
		require.Nil(t, root.parent, "registered root must have no parent")
		require.Equal(t, r, root.rank, "root must sit in its own rank slot")
		require.False(t, root.marked, "roots are never marked")
		assertSubtree(t, q, root, markedByRank)
	}
	for r, count := range markedByRank {
		require.LessOrEqual(t, count, 1, "rank %d holds %d marked nodes", r, count)
	}
}

func assertSubtree(t *testing.T, q *Heap[int64, string], n *Node[int64, string], markedByRank map[int]int) {
	t.Helper()
	for c := n.left; c != nil; c = c.right {
		require.Same(t, n, c.parent)
		require.False(t, c.key < n.key, "heap order violated: child %d under parent %d", c.key, n.key)
		if c.marked {
			markedByRank[c.rank]++
			require.NotSame(t, n.left, c, "marked node must not be a first child")
			require.False(t, n.marked, "marked node must not have a marked parent")
			require.True(t, q.hasMark(c.rank), "marked node missing from the mark registry")
			require.Same(t, q.marks[c.rank], c, "mark registry points at a different node for this rank")
		}
		assertSubtree(t, q, c, markedByRank)
	}
}

func TestInvariantsAfterDecreaseAndDeleteChurn(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 160; i++ {
		handles = append(handles, q.Insert("x", 10000+i*3))
	}
	assertInvariants(t, q)
	for i, h := range handles {
		if i%3 == 1 {
			q.DecreaseKey(h, int64(5000-i))
			assertInvariants(t, q)
		}
	}
	deleted := map[int]bool{}
	for i, h := range handles {
		if i%7 == 2 {
			_, ok := q.Delete(h)
			require.True(t, ok)
			deleted[i] = true
			assertInvariants(t, q)
		}
	}
	require.Equal(t, len(handles)-len(deleted), q.Size())
	var prev int64 = -1 << 62
	for !q.Empty() {
		k := q.DeleteMin()
		require.GreaterOrEqual(t, k, prev)
		prev = k
		assertInvariants(t, q)
	}
}

func TestDecreaseKeyCascadesAndDrains(t *testing.T) {
	q := New[int64, string](allocator.New[Node[int64, string]](allocator.Naive, 0))
	defer q.Destroy()
	var handles []pqueue.Handle
	for i := int64(0); i < 128; i++ {
		handles = append(handles, q.Insert("x", 1000+i))
	}
	q.DeleteMin()
	for i, h := range handles[1:] {
		if i%3 == 0 {
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
	for i := int64(0); i < 70; i++ {
		handles = append(handles, q.Insert("x", i))
	}
	key, ok := q.Delete(handles[50])
	require.True(t, ok)
	require.Equal(t, int64(50), key)
	require.Equal(t, 69, q.Size())
	var prev int64 = -1
	for !q.Empty() {
		k := q.DeleteMin()
		require.NotEqual(t, int64(50), k)
		require.GreaterOrEqual(t, k, prev)
		prev = k
	}
}
