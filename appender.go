package colvec

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
)

// ChunkSink receives completed chunks. The chunk is reused after WriteChunk
// returns, so sinks must copy anything they keep.
type ChunkSink interface {
	WriteChunk(ctx context.Context, chunk *Chunk) error
}

// Appender writes rows of Go values into a chunk, handing the chunk to a
// sink each time it fills up.
//
// IMPORTANT: Appender is NOT thread-safe.
type Appender struct {
	chunk   *Chunk
	writers []*writer
	names   []string
	sink    ChunkSink
	logger  *Logger
	rows    int64
	closed  bool
}

// NewAppender creates an appender over columns with the given names and
// types. names may be nil.
func NewAppender(types []*LogicalType, names []string, sink ChunkSink, opts ...Option) (*Appender, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newAppender(types, names, sink, cfg)
}

func newAppender(types []*LogicalType, names []string, sink ChunkSink, cfg Config) (*Appender, error) {
	if sink == nil {
		return nil, fmt.Errorf("appender needs a sink")
	}
	if names == nil {
		names = make([]string, len(types))
		for i := range names {
			names[i] = fmt.Sprintf("column%d", i)
		}
	}
	if len(names) != len(types) {
		return nil, fmt.Errorf("schema mismatch: %d names, %d types", len(names), len(types))
	}
	chunk, err := newChunk(types, cfg)
	if err != nil {
		return nil, err
	}

	writers := make([]*writer, len(types))
	for i := range types {
		w, err := newWriter(chunk.Vector(i), writerOptions{name: names[i], logger: cfg.Logger})
		if err != nil {
			// Clean up any writers created so far
			for j := 0; j < i; j++ {
				writers[j].Release()
			}
			chunk.Release()
			return nil, fmt.Errorf("column %q: %w", names[i], err)
		}
		writers[i] = w
	}

	return &Appender{
		chunk:   chunk,
		writers: writers,
		names:   names,
		sink:    sink,
		logger:  cfg.Logger,
	}, nil
}

// AppendRow writes one row. A full chunk is flushed first. If a value
// fails to encode, a *RowError is returned and the row is neither counted
// nor made visible by the chunk size. Writes are not rolled back: columns
// before the failing one keep their values, and LIST columns keep the child
// slots they consumed. Treat the buffered rows as unusable after a RowError
// and Close the appender.
func (a *Appender) AppendRow(ctx context.Context, values ...any) error {
	if a.closed {
		return ErrReleased
	}
	if len(values) != len(a.writers) {
		return fmt.Errorf("field count mismatch: expected %d, got %d", len(a.writers), len(values))
	}
	if a.Full() {
		if err := a.Flush(ctx); err != nil {
			return err
		}
	}
	row := a.chunk.Size()
	for i, v := range values {
		if err := a.writers[i].WriteValue(row, v); err != nil {
			return &RowError{Row: row, Column: i, Name: a.names[i], Err: err}
		}
	}
	a.rows++
	return a.chunk.SetSize(row + 1)
}

// Full reports whether the current chunk has no room for another row.
func (a *Appender) Full() bool {
	return a.chunk.Size() == a.chunk.Capacity()
}

// Buffered returns the number of rows not yet flushed.
func (a *Appender) Buffered() int {
	return a.chunk.Size()
}

// Rows returns the number of rows appended so far.
func (a *Appender) Rows() int64 {
	return a.rows
}

// Types returns the column types.
func (a *Appender) Types() []*LogicalType {
	return a.chunk.Types()
}

// Names returns the column names.
func (a *Appender) Names() []string {
	return a.names
}

// Flush hands buffered rows to the sink and resets the chunk.
func (a *Appender) Flush(ctx context.Context) error {
	if a.closed {
		return ErrReleased
	}
	n := a.chunk.Size()
	if n == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := a.sink.WriteChunk(ctx, a.chunk)
	a.logger.LogFlush(ctx, n, a.chunk.ColumnCount(), err)
	if err != nil {
		return fmt.Errorf("flush %d rows: %w", n, err)
	}
	a.chunk.Reset()
	for _, w := range a.writers {
		w.Reset()
	}
	return nil
}

// Close flushes remaining rows and releases the chunk. It is safe to call
// Close multiple times.
func (a *Appender) Close(ctx context.Context) error {
	if a.closed {
		return nil
	}
	err := a.Flush(ctx)
	a.release()
	return err
}

// release drops buffered rows and frees the chunk without flushing.
func (a *Appender) release() {
	if a.closed {
		return
	}
	for _, w := range a.writers {
		w.Release()
	}
	a.chunk.Release()
	a.closed = true
}

// RecordSink converts every chunk into an Arrow record batch and keeps it.
type RecordSink struct {
	schema  *arrow.Schema
	records []arrow.RecordBatch
}

// NewRecordSink creates a sink producing records with the given schema.
func NewRecordSink(schema *arrow.Schema) *RecordSink {
	return &RecordSink{schema: schema}
}

func (s *RecordSink) WriteChunk(_ context.Context, chunk *Chunk) error {
	rec, err := chunk.NewRecord(s.schema)
	if err != nil {
		return err
	}
	s.records = append(s.records, rec)
	return nil
}

// Records returns the collected records. They remain owned by the sink.
func (s *RecordSink) Records() []arrow.RecordBatch {
	return s.records
}

// Release releases all collected records.
func (s *RecordSink) Release() {
	for _, rec := range s.records {
		rec.Release()
	}
	s.records = nil
}

// IPCSink streams every chunk as an Arrow IPC record batch.
type IPCSink struct {
	schema *arrow.Schema
	w      *ipc.Writer
}

// NewIPCSink writes an Arrow IPC stream with the given schema to w.
func NewIPCSink(w io.Writer, schema *arrow.Schema, opts ...ipc.Option) *IPCSink {
	opts = append([]ipc.Option{ipc.WithSchema(schema), ipc.WithDictionaryDeltas(true)}, opts...)
	return &IPCSink{
		schema: schema,
		w:      ipc.NewWriter(w, opts...),
	}
}

func (s *IPCSink) WriteChunk(_ context.Context, chunk *Chunk) error {
	rec, err := chunk.NewRecord(s.schema)
	if err != nil {
		return err
	}
	defer rec.Release()
	if err := s.w.Write(rec); err != nil {
		return fmt.Errorf("write IPC record batch: %w", err)
	}
	return nil
}

// Close writes the end-of-stream marker.
func (s *IPCSink) Close() error {
	return s.w.Close()
}
