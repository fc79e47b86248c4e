package colvec

import (
	"fmt"
)

// Chunk is a batch of up to Capacity rows stored column by column. Every
// vector of a chunk shares the same capacity, fixed at construction.
//
// IMPORTANT: Chunk instances are NOT thread-safe. A chunk and the writers
// bound to its vectors must be used by a single goroutine; build separate
// chunks for concurrent producers.
type Chunk struct {
	types    []*LogicalType
	vectors  []*Vector
	cfg      Config
	size     int
	released bool
}

// NewChunk allocates one vector per type. The types are borrowed: the chunk
// never mutates them and they may be shared with other chunks.
func NewChunk(types []*LogicalType, opts ...Option) (*Chunk, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newChunk(types, cfg)
}

func newChunk(types []*LogicalType, cfg Config) (*Chunk, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("chunk needs at least one column")
	}
	for i, t := range types {
		if t == nil {
			return nil, fmt.Errorf("column %d has nil type", i)
		}
	}
	vectors := make([]*Vector, len(types))
	for i, t := range types {
		vectors[i] = newVector(cfg.Allocator, t, cfg.VectorSize, cfg.Reserver)
	}
	ts := make([]*LogicalType, len(types))
	copy(ts, types)
	return &Chunk{
		types:   ts,
		vectors: vectors,
		cfg:     cfg,
	}, nil
}

// Types returns the column types.
func (c *Chunk) Types() []*LogicalType {
	return c.types
}

// ColumnCount returns the number of columns.
func (c *Chunk) ColumnCount() int {
	return len(c.vectors)
}

// Capacity returns the maximum number of rows.
func (c *Chunk) Capacity() int {
	return c.cfg.VectorSize
}

// Size returns the number of rows marked as written.
func (c *Chunk) Size() int {
	return c.size
}

// SetSize sets the number of rows handed to consumers of the chunk.
func (c *Chunk) SetSize(n int) error {
	if c.released {
		return ErrReleased
	}
	if n < 0 || n > c.cfg.VectorSize {
		return fmt.Errorf("%w: chunk size %d outside [0, %d]", ErrRange, n, c.cfg.VectorSize)
	}
	c.size = n
	return nil
}

// Vector returns the vector of column i.
func (c *Chunk) Vector(i int) *Vector {
	if c.released || i < 0 || i >= len(c.vectors) {
		return nil
	}
	return c.vectors[i]
}

// Reset clears sizes and null masks so the chunk can hold the next batch.
// Writers bound to the chunk must be Reset as well.
func (c *Chunk) Reset() {
	if c.released {
		return
	}
	for _, v := range c.vectors {
		v.reset()
	}
	c.size = 0
}

// Release frees all vector memory. The chunk must not be used afterwards.
func (c *Chunk) Release() {
	if c.released {
		return
	}
	for _, v := range c.vectors {
		v.release()
	}
	c.vectors = nil
	c.size = 0
	c.released = true
}
