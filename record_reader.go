package colvec

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChunkRecordReader streams query results as Arrow record batches, one
// chunk's worth of rows per batch.
type ChunkRecordReader struct {
	ctx      context.Context
	conn     *pgxpool.Conn
	rows     pgx.Rows
	appender *Appender
	sink     *batchSink

	// Batch management
	currentBatch arrow.RecordBatch
	err          error
	done         bool

	// Reference counting
	refCount int64
}

// batchSink keeps the record built from the most recent flush.
type batchSink struct {
	schema *arrow.Schema
	record arrow.RecordBatch
}

func (s *batchSink) WriteChunk(_ context.Context, chunk *Chunk) error {
	rec, err := chunk.NewRecord(s.schema)
	if err != nil {
		return err
	}
	s.record = rec
	return nil
}

// QueryReader runs sql with args and returns a reader over the results.
// The reader holds a pool connection until it is released.
func (p *Pool) QueryReader(ctx context.Context, sql string, args ...any) (*ChunkRecordReader, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		conn.Release()
		return nil, &QueryError{SQL: sql, Operation: "query_execution", Err: err}
	}

	sink := &batchSink{}
	appender, err := p.appenderForRows(sql, rows, sink)
	if err != nil {
		rows.Close()
		conn.Release()
		return nil, err
	}
	sink.schema, err = ArrowSchema(appender.Names(), appender.Types())
	if err != nil {
		appender.release()
		rows.Close()
		conn.Release()
		return nil, err
	}

	return &ChunkRecordReader{
		ctx:      ctx,
		conn:     conn,
		rows:     rows,
		appender: appender,
		sink:     sink,
		refCount: 1,
	}, nil
}

// Schema returns the Arrow schema
func (r *ChunkRecordReader) Schema() *arrow.Schema {
	return r.sink.schema
}

// Next advances to the next record batch
func (r *ChunkRecordReader) Next() bool {
	if r.done || r.err != nil {
		return false
	}

	// Release previous batch if any
	if r.currentBatch != nil {
		r.currentBatch.Release()
		r.currentBatch = nil
	}

	for !r.appender.Full() && r.rows.Next() {
		values, err := r.rows.Values()
		if err != nil {
			r.err = err
			return false
		}
		if err := r.appender.AppendRow(r.ctx, values...); err != nil {
			r.err = err
			return false
		}
	}
	if !r.appender.Full() {
		if err := r.rows.Err(); err != nil {
			r.err = err
			return false
		}
		r.done = true
	}
	if r.appender.Buffered() == 0 {
		return false
	}
	if err := r.appender.Flush(r.ctx); err != nil {
		r.err = err
		return false
	}
	r.currentBatch = r.sink.record
	r.sink.record = nil
	return true
}

// RecordBatch returns the current record batch
func (r *ChunkRecordReader) RecordBatch() arrow.RecordBatch {
	return r.currentBatch
}

// Record returns the current record
func (r *ChunkRecordReader) Record() arrow.Record {
	return r.currentBatch
}

// Err returns any error that occurred during reading
func (r *ChunkRecordReader) Err() error {
	return r.err
}

// Retain increases the reference count
func (r *ChunkRecordReader) Retain() {
	atomic.AddInt64(&r.refCount, 1)
}

// Release decreases the reference count and cleans up when it reaches 0
func (r *ChunkRecordReader) Release() {
	if atomic.AddInt64(&r.refCount, -1) == 0 {
		if r.currentBatch != nil {
			r.currentBatch.Release()
			r.currentBatch = nil
		}

		if r.appender != nil {
			r.appender.release()
			r.appender = nil
		}

		if r.rows != nil {
			r.rows.Close()
			r.rows = nil
		}

		// Release connection back to pool
		if r.conn != nil {
			r.conn.Release()
			r.conn = nil
		}
	}
}

// RecordReader interface implementation for Arrow compatibility
var _ array.RecordReader = (*ChunkRecordReader)(nil)
