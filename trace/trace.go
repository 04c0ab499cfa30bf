// Package trace reads and writes the benchmark driver's binary trace
// format: little-endian, packed, fixed-width records. A trace begins
// with a 16-byte header (op_count, pq_ids, node_ids) followed by
// op_count tagged operation records; readers determine a record's
// length from its code alone.
//
// The field widths and order are fixed by the replay drivers already
// built against the format, so records are encoded with
// encoding/binary directly rather than through a serialization
// library that would impose its own framing. Writes go through a
// WriteBufferSize bufio.Writer that Close flushes before the header
// rewrite.
package trace

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pqbench/pq/logging"
)

// WriteBufferSize is the writer's internal buffer size.
const WriteBufferSize = 131072

// ErrIO reports a trace read or write failure. A caller cannot
// usefully continue a benchmark past one; the replay driver aborts.
var ErrIO = errors.New("trace: I/O failure")

type config struct {
	logger logging.Logger
}

// Option configures a Writer or Reader at construction.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithLogger sets the logger trace I/O failures are reported to before
// the wrapped ErrIO is returned; the default discards them.
func WithLogger(l logging.Logger) Option {
	return optionFunc(func(c *config) {
		if l != nil {
			c.logger = l
		}
	})
}

func resolveOptions(opts []Option) config {
	cfg := config{logger: logging.NoOp()}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(&cfg)
	}
	return cfg
}

func ioFailure(log logging.Logger, op string, err error) error {
	if log.IsEnabled(logging.LevelError) {
		log.Log(logging.Entry{
			Level:   logging.LevelError,
			Message: "trace I/O failure",
			Fields:  map[string]any{"op": op},
			Err:     err,
		})
	}
	return fmt.Errorf("%w: %v", ErrIO, err)
}

// OpCode identifies an operation record.
type OpCode uint32

const (
	OpCreate OpCode = iota
	OpDestroy
	OpClear
	OpGetKey
	OpGetItem
	OpGetSize
	OpInsert
	OpFindMin
	OpDelete
	OpDeleteMin
	OpDecreaseKey
	OpMeld
	OpEmpty
)

func (c OpCode) String() string {
	switch c {
	case OpCreate:
		return "create"
	case OpDestroy:
		return "destroy"
	case OpClear:
		return "clear"
	case OpGetKey:
		return "get_key"
	case OpGetItem:
		return "get_item"
	case OpGetSize:
		return "get_size"
	case OpInsert:
		return "insert"
	case OpFindMin:
		return "find_min"
	case OpDelete:
		return "delete"
	case OpDeleteMin:
		return "delete_min"
	case OpDecreaseKey:
		return "decrease_key"
	case OpMeld:
		return "meld"
	case OpEmpty:
		return "empty"
	default:
		return fmt.Sprintf("op(%d)", uint32(c))
	}
}

// Header is the trace file's fixed 16-byte preamble.
type Header struct {
	OpCount uint64
	PQIDs   uint32
	NodeIDs uint32
}

// Record is one operation entry. Only the fields relevant to Code are
// meaningful; the rest are zero. Key and Item are only populated for
// OpInsert (both) and OpDecreaseKey (Key only).
type Record[K any, V any] struct {
	Code    OpCode
	PQID    uint32
	NodeID  uint32
	Key     K
	Item    V
	PQSrc1  uint32
	PQSrc2  uint32
	PQDst   uint32
}

// Writer appends operation records to an underlying seekable sink,
// rewriting the header once the final counts are known.
type Writer[K any, V any] struct {
	sink     io.WriteSeeker
	buf      *bufio.Writer
	header   Header
	pqSeen   map[uint32]bool
	nodeSeen map[uint32]bool
	log      logging.Logger
	closed   bool
}

// NewWriter reserves space for the header (written as zeroes, fixed up
// on Close) and returns a Writer ready to append records.
func NewWriter[K any, V any](sink io.WriteSeeker, opts ...Option) (*Writer[K, V], error) {
	cfg := resolveOptions(opts)
	w := &Writer[K, V]{
		sink:     sink,
		buf:      bufio.NewWriterSize(sink, WriteBufferSize),
		pqSeen:   make(map[uint32]bool),
		nodeSeen: make(map[uint32]bool),
		log:      cfg.logger,
	}
	var zero Header
	if err := binary.Write(w.buf, binary.LittleEndian, zero); err != nil {
		return nil, ioFailure(w.log, "header", err)
	}
	return w, nil
}

func (w *Writer[K, V]) seePQ(id uint32) {
	if !w.pqSeen[id] {
		w.pqSeen[id] = true
		w.header.PQIDs++
	}
}

func (w *Writer[K, V]) seeNode(id uint32) {
	if !w.nodeSeen[id] {
		w.nodeSeen[id] = true
		w.header.NodeIDs++
	}
}

func (w *Writer[K, V]) writeFields(vs ...any) error {
	for _, v := range vs {
		if err := binary.Write(w.buf, binary.LittleEndian, v); err != nil {
			return ioFailure(w.log, "record", err)
		}
	}
	w.header.OpCount++
	return nil
}

func (w *Writer[K, V]) WriteCreate(pqID uint32) error {
	w.seePQ(pqID)
	return w.writeFields(OpCreate, pqID)
}

func (w *Writer[K, V]) WriteDestroy(pqID uint32) error {
	w.seePQ(pqID)
	return w.writeFields(OpDestroy, pqID)
}

func (w *Writer[K, V]) WriteClear(pqID uint32) error {
	w.seePQ(pqID)
	return w.writeFields(OpClear, pqID)
}

func (w *Writer[K, V]) WriteGetKey(pqID, nodeID uint32) error {
	w.seePQ(pqID)
	w.seeNode(nodeID)
	return w.writeFields(OpGetKey, pqID, nodeID)
}

func (w *Writer[K, V]) WriteGetItem(pqID, nodeID uint32) error {
	w.seePQ(pqID)
	w.seeNode(nodeID)
	return w.writeFields(OpGetItem, pqID, nodeID)
}

func (w *Writer[K, V]) WriteGetSize(pqID uint32) error {
	w.seePQ(pqID)
	return w.writeFields(OpGetSize, pqID)
}

func (w *Writer[K, V]) WriteInsert(pqID, nodeID uint32, key K, item V) error {
	w.seePQ(pqID)
	w.seeNode(nodeID)
	return w.writeFields(OpInsert, pqID, nodeID, key, item)
}

func (w *Writer[K, V]) WriteFindMin(pqID uint32) error {
	w.seePQ(pqID)
	return w.writeFields(OpFindMin, pqID)
}

func (w *Writer[K, V]) WriteDelete(pqID, nodeID uint32) error {
	w.seePQ(pqID)
	w.seeNode(nodeID)
	return w.writeFields(OpDelete, pqID, nodeID)
}

func (w *Writer[K, V]) WriteDeleteMin(pqID uint32) error {
	w.seePQ(pqID)
	return w.writeFields(OpDeleteMin, pqID)
}

func (w *Writer[K, V]) WriteDecreaseKey(pqID, nodeID uint32, key K) error {
	w.seePQ(pqID)
	w.seeNode(nodeID)
	return w.writeFields(OpDecreaseKey, pqID, nodeID, key)
}

func (w *Writer[K, V]) WriteMeld(pqSrc1, pqSrc2, pqDst uint32) error {
	w.seePQ(pqSrc1)
	w.seePQ(pqSrc2)
	w.seePQ(pqDst)
	return w.writeFields(OpMeld, pqSrc1, pqSrc2, pqDst)
}

func (w *Writer[K, V]) WriteEmpty(pqID uint32) error {
	w.seePQ(pqID)
	return w.writeFields(OpEmpty, pqID)
}

// Close flushes buffered records, seeks back to the header, and
// overwrites it with the final counts, strictly in that order: seeking
// before the flush would interleave the header with a buffered but
// unflushed tail write and silently truncate the trace.
func (w *Writer[K, V]) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.buf.Flush(); err != nil {
		return ioFailure(w.log, "flush", err)
	}
	if _, err := w.sink.Seek(0, io.SeekStart); err != nil {
		return ioFailure(w.log, "seek", err)
	}
	if err := binary.Write(w.sink, binary.LittleEndian, w.header); err != nil {
		return ioFailure(w.log, "header rewrite", err)
	}
	return nil
}

// Reader sequentially decodes a trace's header and operation records.
type Reader[K any, V any] struct {
	src    *bufio.Reader
	Header Header
	log    logging.Logger
	read   uint64
}

// NewReader reads the header (without checking its counts), then returns a Reader
// positioned at the first operation record.
func NewReader[K any, V any](src io.Reader, opts ...Option) (*Reader[K, V], error) {
	cfg := resolveOptions(opts)
	r := &Reader[K, V]{src: bufio.NewReaderSize(src, WriteBufferSize), log: cfg.logger}
	if err := binary.Read(r.src, binary.LittleEndian, &r.Header); err != nil {
		return nil, ioFailure(r.log, "header", err)
	}
	return r, nil
}

// ReadRecord decodes the next operation record. Once r.Header.OpCount
// records have been returned, ReadRecord returns io.EOF, the clean
// end-of-trace case the replay driver treats as termination. Any
// other read failure is wrapped in ErrIO.
func (r *Reader[K, V]) ReadRecord() (Record[K, V], error) {
	var rec Record[K, V]
	if r.read >= r.Header.OpCount {
		return rec, io.EOF
	}
	var code uint32
	if err := binary.Read(r.src, binary.LittleEndian, &code); err != nil {
		if errors.Is(err, io.EOF) {
			return rec, io.EOF
		}
		return rec, ioFailure(r.log, "record code", err)
	}
	rec.Code = OpCode(code)
	var fields []any
	switch rec.Code {
	case OpCreate, OpDestroy, OpClear, OpGetSize, OpFindMin, OpDeleteMin, OpEmpty:
		fields = []any{&rec.PQID}
	case OpGetKey, OpGetItem, OpDelete:
		fields = []any{&rec.PQID, &rec.NodeID}
	case OpInsert:
		fields = []any{&rec.PQID, &rec.NodeID, &rec.Key, &rec.Item}
	case OpDecreaseKey:
		fields = []any{&rec.PQID, &rec.NodeID, &rec.Key}
	case OpMeld:
		fields = []any{&rec.PQSrc1, &rec.PQSrc2, &rec.PQDst}
	default:
		return rec, fmt.Errorf("%w: unknown op code %d", ErrIO, code)
	}
	for _, f := range fields {
		if err := binary.Read(r.src, binary.LittleEndian, f); err != nil {
			return rec, ioFailure(r.log, "record fields", err)
		}
	}
	r.read++
	return rec, nil
}
