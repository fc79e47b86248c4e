package colvec_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/fwojciec/colvec"
	"github.com/shopspring/decimal"
)

const (
	// Default number of rows to use in benchmarks for consistent measurements
	defaultBenchmarkRowCount = 2048
)

// discardSink drops every chunk.
type discardSink struct{}

func (discardSink) WriteChunk(context.Context, *colvec.Chunk) error { return nil }

func benchmarkWriter(b *testing.B, typ *colvec.LogicalType, value func(i int) any) {
	b.Helper()
	chunk, err := colvec.NewChunk([]*colvec.LogicalType{typ},
		colvec.WithAllocator(memory.NewGoAllocator()),
		colvec.WithVectorSize(defaultBenchmarkRowCount))
	if err != nil {
		b.Fatal(err)
	}
	defer chunk.Release()
	w, err := colvec.NewWriter(chunk.Vector(0))
	if err != nil {
		b.Fatal(err)
	}
	defer w.Release()

	values := make([]any, defaultBenchmarkRowCount)
	for i := range values {
		values[i] = value(i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Reset()
		for row, v := range values {
			if err := w.WriteValue(row, v); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkWriter_BigInt(b *testing.B) {
	benchmarkWriter(b, mustType(b, colvec.TypeBigInt), func(i int) any { return int64(i) })
}

func BenchmarkWriter_Double(b *testing.B) {
	benchmarkWriter(b, mustType(b, colvec.TypeDouble), func(i int) any { return float64(i) * 1.5 })
}

func BenchmarkWriter_InlineString(b *testing.B) {
	benchmarkWriter(b, mustType(b, colvec.TypeVarchar), func(i int) any { return fmt.Sprintf("s%d", i) })
}

func BenchmarkWriter_HeapString(b *testing.B) {
	benchmarkWriter(b, mustType(b, colvec.TypeVarchar), func(i int) any {
		return fmt.Sprintf("The quick brown fox jumps over the lazy dog %d", i)
	})
}

func BenchmarkWriter_Decimal(b *testing.B) {
	typ, err := colvec.NewDecimalType(18, 4)
	if err != nil {
		b.Fatal(err)
	}
	benchmarkWriter(b, typ, func(i int) any { return decimal.New(int64(i), -2) })
}

func BenchmarkWriter_List(b *testing.B) {
	typ, err := colvec.NewListType(mustType(b, colvec.TypeInteger))
	if err != nil {
		b.Fatal(err)
	}
	benchmarkWriter(b, typ, func(i int) any { return []int32{int32(i), int32(i + 1), int32(i + 2)} })
}

func BenchmarkWriter_Nullable(b *testing.B) {
	benchmarkWriter(b, mustType(b, colvec.TypeInteger), func(i int) any {
		if i%3 == 0 {
			return nil
		}
		return int32(i)
	})
}

func BenchmarkAppender(b *testing.B) {
	types := []*colvec.LogicalType{
		mustType(b, colvec.TypeBigInt),
		mustType(b, colvec.TypeVarchar),
		mustType(b, colvec.TypeDouble),
	}
	appender, err := colvec.NewAppender(types, nil, discardSink{})
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	defer appender.Close(ctx)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := appender.AppendRow(ctx, int64(i), "row", float64(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParser_IntoAppender(b *testing.B) {
	rows := make([][]any, defaultBenchmarkRowCount)
	for i := range rows {
		rows[i] = []any{int64(i), fmt.Sprintf("name %d", i), numericField(0, 0x0000, 2, uint16(i%10000), 2500)}
	}
	data := buildCopyData(rows)
	oids := []uint32{colvec.TypeOIDInt8, colvec.TypeOIDText, colvec.TypeOIDNumeric}
	registry := colvec.NewRegistry()
	types, err := registry.CreateTypes([]colvec.ColumnInfo{
		{Name: "id", OID: colvec.TypeOIDInt8},
		{Name: "name", OID: colvec.TypeOIDText},
		{Name: "amount", OID: colvec.TypeOIDNumeric, TypeModifier: numericTypmod(12, 2)},
	})
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		appender, err := colvec.NewAppender(types, nil, discardSink{})
		if err != nil {
			b.Fatal(err)
		}
		p, err := colvec.NewParser(bytes.NewReader(data), oids, registry)
		if err != nil {
			b.Fatal(err)
		}
		if err := p.ParseHeader(); err != nil {
			b.Fatal(err)
		}
		values := make([]any, len(oids))
		for {
			fields, err := p.ParseTuple()
			if err != nil {
				break
			}
			for j, f := range fields {
				values[j] = f.Value
			}
			if err := appender.AppendRow(context.Background(), values...); err != nil {
				b.Fatal(err)
			}
		}
		if err := appender.Close(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}
