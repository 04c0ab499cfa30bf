package trace

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openRW(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "trace.bin"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	f := openRW(t)
	w, err := NewWriter[int64, int32](f)
	require.NoError(t, err)

	require.NoError(t, w.WriteCreate(0))
	require.NoError(t, w.WriteInsert(0, 1, 42, 7))
	require.NoError(t, w.WriteInsert(0, 2, -5, 9))
	require.NoError(t, w.WriteDecreaseKey(0, 2, -100))
	require.NoError(t, w.WriteFindMin(0))
	require.NoError(t, w.WriteDeleteMin(0))
	require.NoError(t, w.WriteGetSize(0))
	require.NoError(t, w.WriteEmpty(0))
	require.NoError(t, w.WriteDelete(0, 1))
	require.NoError(t, w.WriteClear(0))
	require.NoError(t, w.WriteDestroy(0))
	require.NoError(t, w.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	r, err := NewReader[int64, int32](f)
	require.NoError(t, err)
	require.Equal(t, uint64(10), r.Header.OpCount)
	require.Equal(t, uint32(1), r.Header.PQIDs)
	require.Equal(t, uint32(2), r.Header.NodeIDs)

	var codes []OpCode
	for {
		rec, err := r.ReadRecord()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		codes = append(codes, rec.Code)
		if rec.Code == OpInsert && rec.NodeID == 2 {
			require.Equal(t, int64(-5), rec.Key)
			require.Equal(t, int32(9), rec.Item)
		}
		if rec.Code == OpDecreaseKey {
			require.Equal(t, int64(-100), rec.Key)
			require.Equal(t, uint32(2), rec.NodeID)
		}
	}
	require.Equal(t,
		[]OpCode{OpCreate, OpInsert, OpInsert, OpDecreaseKey, OpFindMin, OpDeleteMin, OpGetSize, OpEmpty, OpDelete, OpClear, OpDestroy},
		codes)
}

func TestMeldRecordCarriesThreeIDs(t *testing.T) {
	f := openRW(t)
	w, err := NewWriter[int64, int32](f)
	require.NoError(t, err)
	require.NoError(t, w.WriteCreate(0))
	require.NoError(t, w.WriteCreate(1))
	require.NoError(t, w.WriteMeld(0, 1, 2))
	require.NoError(t, w.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	r, err := NewReader[int64, int32](f)
	require.NoError(t, err)
	require.Equal(t, uint32(3), r.Header.PQIDs)

	var meld Record[int64, int32]
	for {
		rec, err := r.ReadRecord()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if rec.Code == OpMeld {
			meld = rec
		}
	}
	require.Equal(t, uint32(0), meld.PQSrc1)
	require.Equal(t, uint32(1), meld.PQSrc2)
	require.Equal(t, uint32(2), meld.PQDst)
}

func TestReadRecordReturnsEOFAfterOpCount(t *testing.T) {
	f := openRW(t)
	w, err := NewWriter[int64, int32](f)
	require.NoError(t, err)
	require.NoError(t, w.WriteCreate(0))
	require.NoError(t, w.Close())

	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	r, err := NewReader[int64, int32](f)
	require.NoError(t, err)

	_, err = r.ReadRecord()
	require.NoError(t, err)
	_, err = r.ReadRecord()
	require.ErrorIs(t, err, io.EOF)
}
