package colvec_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/fwojciec/colvec"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustType builds a primitive type or fails the test.
func mustType(t testing.TB, id colvec.TypeID) *colvec.LogicalType {
	t.Helper()
	typ, err := colvec.NewPrimitiveType(id)
	require.NoError(t, err)
	return typ
}

// newTestChunk allocates a chunk on a checked allocator. The returned
// cleanup releases the chunk and asserts that no memory leaked.
func newTestChunk(t *testing.T, size int, types ...*colvec.LogicalType) (*colvec.Chunk, func()) {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	chunk, err := colvec.NewChunk(types, colvec.WithAllocator(mem), colvec.WithVectorSize(size))
	require.NoError(t, err)
	return chunk, func() {
		chunk.Release()
		mem.AssertSize(t, 0)
	}
}

// newTestWriter returns a writer over the single column of a fresh chunk.
func newTestWriter(t *testing.T, size int, typ *colvec.LogicalType, opts ...colvec.Option) (colvec.VectorWriter, *colvec.Vector, func()) {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	opts = append([]colvec.Option{colvec.WithAllocator(mem), colvec.WithVectorSize(size)}, opts...)
	chunk, err := colvec.NewChunk([]*colvec.LogicalType{typ}, opts...)
	require.NoError(t, err)
	w, err := colvec.NewWriter(chunk.Vector(0))
	require.NoError(t, err)
	return w, chunk.Vector(0), func() {
		w.Release()
		chunk.Release()
		mem.AssertSize(t, 0)
	}
}

// readValue decodes a row and fails the test on error.
func readValue(t *testing.T, v *colvec.Vector, row int) any {
	t.Helper()
	val, err := v.Value(row)
	require.NoError(t, err)
	return val
}

// buildCopyData generates valid PostgreSQL COPY binary format data for testing
func buildCopyData(rows [][]any) []byte {
	buf := &bytes.Buffer{}

	// Write PGCOPY header
	buf.WriteString("PGCOPY\n\377\r\n\000")

	// Write flags (4 bytes, network byte order)
	_ = binary.Write(buf, binary.BigEndian, uint32(0))

	// Write header extension area length (4 bytes, network byte order)
	_ = binary.Write(buf, binary.BigEndian, uint32(0))

	for _, row := range rows {
		_ = binary.Write(buf, binary.BigEndian, int16(len(row)))
		for _, field := range row {
			writeCopyField(buf, field)
		}
	}

	// Write trailer (-1 as 16-bit integer)
	_ = binary.Write(buf, binary.BigEndian, int16(-1))

	return buf.Bytes()
}

// writeCopyField writes a single field in PostgreSQL binary format
func writeCopyField(buf *bytes.Buffer, field any) {
	data := encodeCopyValue(field)
	if data == nil {
		// NULL value: length = -1
		_ = binary.Write(buf, binary.BigEndian, int32(-1))
		return
	}
	_ = binary.Write(buf, binary.BigEndian, int32(len(data)))
	buf.Write(data)
}

// rawField is written to COPY data as is.
type rawField []byte

func encodeCopyValue(field any) []byte {
	buf := &bytes.Buffer{}
	switch v := field.(type) {
	case nil:
		return nil
	case rawField:
		return v
	case bool:
		if v {
			return []byte{0x01}
		}
		return []byte{0x00}
	case int16, int32, int64:
		_ = binary.Write(buf, binary.BigEndian, v)
	case float32:
		_ = binary.Write(buf, binary.BigEndian, math.Float32bits(v))
	case float64:
		_ = binary.Write(buf, binary.BigEndian, math.Float64bits(v))
	case string:
		return append([]byte{}, v...)
	case []byte:
		return append([]byte{}, v...)
	case uuid.UUID:
		return v[:]
	case time.Time:
		micros := v.UnixMicro() - colvec.PostgresTimestampEpochMicros
		_ = binary.Write(buf, binary.BigEndian, micros)
	default:
		panic(fmt.Sprintf("unsupported COPY test value %T", field))
	}
	return buf.Bytes()
}

// numericField encodes a numeric from its base-10000 digits.
func numericField(weight int16, sign uint16, dscale uint16, digits ...uint16) rawField {
	buf := &bytes.Buffer{}
	_ = binary.Write(buf, binary.BigEndian, uint16(len(digits)))
	_ = binary.Write(buf, binary.BigEndian, weight)
	_ = binary.Write(buf, binary.BigEndian, sign)
	_ = binary.Write(buf, binary.BigEndian, dscale)
	for _, d := range digits {
		_ = binary.Write(buf, binary.BigEndian, d)
	}
	return buf.Bytes()
}

// int4ArrayField encodes a one-dimensional int4 array; nil elements are NULL.
func int4ArrayField(elems ...any) rawField {
	buf := &bytes.Buffer{}
	hasNull := int32(0)
	for _, e := range elems {
		if e == nil {
			hasNull = 1
		}
	}
	_ = binary.Write(buf, binary.BigEndian, int32(1)) // ndim
	_ = binary.Write(buf, binary.BigEndian, hasNull)
	_ = binary.Write(buf, binary.BigEndian, uint32(colvec.TypeOIDInt4))
	_ = binary.Write(buf, binary.BigEndian, int32(len(elems)))
	_ = binary.Write(buf, binary.BigEndian, int32(1)) // lower bound
	for _, e := range elems {
		writeCopyField(buf, e)
	}
	return buf.Bytes()
}

// getDatabaseURL returns the test database connection string
func getDatabaseURL(t *testing.T) string {
	t.Helper()

	// Check for environment variable first
	if dbURL := os.Getenv("TEST_DATABASE_URL"); dbURL != "" {
		return dbURL
	}

	// Skip test if no database URL is available
	t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	return ""
}

// isolatedTest creates a test environment with an isolated schema
func isolatedTest(t *testing.T, setupSQL string, opts ...colvec.Option) (*colvec.Pool, func()) {
	t.Helper()

	dbURL := getDatabaseURL(t)

	ctx := context.Background()
	adminPool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)

	// Create isolated schema with timestamp and random number
	schemaName := fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), rand.Intn(10000))
	_, err = adminPool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schemaName))
	require.NoError(t, err)

	// Create pool with schema search path
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	require.NoError(t, err)
	poolConfig.ConnConfig.RuntimeParams["search_path"] = schemaName

	pgxPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	if setupSQL != "" {
		_, err = pgxPool.Exec(ctx, setupSQL)
		require.NoError(t, err)
	}

	pool, err := colvec.NewPoolFromPgxPool(pgxPool, opts...)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		pgxPool.Close()
		_, _ = adminPool.Exec(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", schemaName))
		adminPool.Close()
	}

	return pool, cleanup
}

// validateRowCount checks that the total number of rows matches expected
func validateRowCount(t *testing.T, records []arrow.RecordBatch, expected int64) {
	t.Helper()
	var total int64
	for _, rec := range records {
		total += rec.NumRows()
	}
	require.Equal(t, expected, total)
}

// validateSchema checks that the schema matches expected field names
func validateSchema(t *testing.T, schema *arrow.Schema, fieldNames []string) {
	t.Helper()
	require.Equal(t, len(fieldNames), schema.NumFields())
	for i, name := range fieldNames {
		assert.Equal(t, name, schema.Field(i).Name)
	}
}
