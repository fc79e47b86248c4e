package colvec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

const (
	// DefaultVectorSize is the default number of rows per chunk.
	DefaultVectorSize = 2048

	// MaxVectorSize bounds the configurable chunk capacity.
	MaxVectorSize = 1 << 20
)

// Config holds the settings shared by every chunk and writer built from it.
// The vector size is fixed for the lifetime of a chunk.
type Config struct {
	VectorSize int
	Allocator  memory.Allocator
	Reserver   ChildReserver
	Logger     *Logger
	Registry   *TypeRegistry
}

// Option configures a Config.
type Option func(*Config)

// WithVectorSize sets the row capacity of each chunk.
func WithVectorSize(n int) Option {
	return func(c *Config) {
		c.VectorSize = n
	}
}

// WithAllocator sets the allocator backing vector buffers.
//
// If nil is passed, memory.DefaultAllocator is used.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *Config) {
		if mem == nil {
			mem = memory.DefaultAllocator
		}
		c.Allocator = mem
	}
}

// WithChildReserver replaces the capability used to grow list children.
func WithChildReserver(r ChildReserver) Option {
	return func(c *Config) {
		if r == nil {
			r = DefaultReserver
		}
		c.Reserver = r
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(c *Config) {
		if l == nil {
			l = NoopLogger()
		}
		c.Logger = l
	}
}

// WithTypeRegistry sets the registry used to map PostgreSQL OIDs to vector types.
func WithTypeRegistry(r *TypeRegistry) Option {
	return func(c *Config) {
		c.Registry = r
	}
}

// NewConfig applies opts over the defaults and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := Config{
		VectorSize: DefaultVectorSize,
		Allocator:  memory.DefaultAllocator,
		Reserver:   DefaultReserver,
		Logger:     NoopLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.VectorSize <= 0 || c.VectorSize > MaxVectorSize {
		return fmt.Errorf("vector size %d not in [1, %d]", c.VectorSize, MaxVectorSize)
	}
	return nil
}
