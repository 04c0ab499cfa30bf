package trace

import (
	"errors"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pqbench/pq/allocator"
	"github.com/pqbench/pq/heap/binomial"
	"github.com/pqbench/pq/heap/pairing"
	"github.com/pqbench/pq/heap/rankpairing"
	"github.com/pqbench/pq/pqueue"
	"github.com/stretchr/testify/require"
)

// generateTrace writes a single-queue random workload of opCount
// operations. Insert keys come from an increasing counter and
// decrease_key targets from a decreasing one, so every key in the
// trace is unique and every decrease is a genuine decrease, the
// precondition for cross-variant delete_min agreement.
func generateTrace(t *testing.T, path string, opCount int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := NewWriter[int64, int32](f)
	require.NoError(t, err)
	require.NoError(t, w.WriteCreate(0))

	rng := rand.New(rand.NewSource(7))
	var live []uint32
	keys := map[uint32]int64{}
	nextNode := uint32(0)
	nextHigh := int64(1)
	nextLow := int64(-1)

	for i := 0; i < opCount; i++ {
		switch r := rng.Intn(10); {
		case r < 5:
			id := nextNode
			nextNode++
			require.NoError(t, w.WriteInsert(0, id, nextHigh, int32(id)))
			keys[id] = nextHigh
			nextHigh++
			live = append(live, id)
		case r < 7 && len(live) > 0:
			id := live[rng.Intn(len(live))]
			require.NoError(t, w.WriteDecreaseKey(0, id, nextLow))
			keys[id] = nextLow
			nextLow--
		case r < 9 && len(live) > 0:
			require.NoError(t, w.WriteFindMin(0))
			require.NoError(t, w.WriteDeleteMin(0))
			minIdx := 0
			for j, id := range live {
				if keys[id] < keys[live[minIdx]] {
					minIdx = j
				}
			}
			delete(keys, live[minIdx])
			live[minIdx] = live[len(live)-1]
			live = live[:len(live)-1]
		default:
			require.NoError(t, w.WriteGetSize(0))
		}
	}
	require.NoError(t, w.WriteDestroy(0))
	require.NoError(t, w.Close())
}

// replayTrace dispatches a trace against q the way a replay driver
// does: ID-to-handle tables sized from the header, insert storing the
// returned handle at node_id. It returns the sequence of keys
// delete_min produced.
func replayTrace(t *testing.T, path string, q pqueue.Interface[int64, int32]) []int64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := NewReader[int64, int32](f)
	require.NoError(t, err)
	nodes := make([]pqueue.Handle, r.Header.NodeIDs)

	var deleted []int64
	for {
		rec, err := r.ReadRecord()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		switch rec.Code {
		case OpCreate:
			// single queue, already constructed by the caller
		case OpInsert:
			nodes[rec.NodeID] = q.Insert(rec.Item, rec.Key)
		case OpDecreaseKey:
			q.DecreaseKey(nodes[rec.NodeID], rec.Key)
		case OpDeleteMin:
			deleted = append(deleted, q.DeleteMin())
		case OpFindMin:
			q.FindMin()
		case OpGetSize:
			q.Size()
		case OpEmpty:
			q.Empty()
		case OpDestroy:
			q.Destroy()
		}
	}
	return deleted
}

// TestReplayAgreesAcrossVariants checks the cross-variant round-trip
// property: the same trace replayed against different heap
// implementations must produce the same delete_min key sequence when
// keys are unique.
func TestReplayAgreesAcrossVariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workload.bin")
	generateTrace(t, path, 100000)

	got := map[string][]int64{
		"binomial": replayTrace(t, path,
			binomial.New[int64, int32](allocator.New[binomial.Node[int64, int32]](allocator.Lazy, 0))),
		"pairing": replayTrace(t, path,
			pairing.New[int64, int32](allocator.New[pairing.Node[int64, int32]](allocator.Lazy, 0))),
		"rank_pairing": replayTrace(t, path,
			rankpairing.New[int64, int32](allocator.New[rankpairing.Node[int64, int32]](allocator.Lazy, 0))),
	}
	require.NotEmpty(t, got["binomial"])
	require.Equal(t, got["binomial"], got["pairing"])
	require.Equal(t, got["binomial"], got["rank_pairing"])
}
