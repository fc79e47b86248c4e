package colvec

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// defaultBufferCapacity is the initial capacity for reusable field data buffers
	defaultBufferCapacity = 256
)

var copySignature = []byte{'P', 'G', 'C', 'O', 'P', 'Y', '\n', '\377', '\r', '\n', '\000'}

// Parser parses PostgreSQL COPY binary format data
type Parser struct {
	reader   io.Reader
	buf      []byte  // Reusable buffer for field data
	fields   []Field // Reusable slice for fields
	handlers []TypeHandler
	scratch  [4]byte
}

// Field represents a parsed field from binary data
type Field struct {
	Value any
}

// NewParser creates a new binary format parser. fieldOIDs must contain the
// PostgreSQL type OID for each field in order; each must have a handler in
// registry. A nil registry uses the built-in types.
func NewParser(reader io.Reader, fieldOIDs []uint32, registry *TypeRegistry) (*Parser, error) {
	if registry == nil {
		registry = NewRegistry()
	}
	handlers := make([]TypeHandler, len(fieldOIDs))
	for i, oid := range fieldOIDs {
		h, err := registry.GetHandler(oid)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", i, err)
		}
		handlers[i] = h
	}
	return &Parser{
		reader:   reader,
		buf:      make([]byte, 0, defaultBufferCapacity),
		handlers: handlers,
	}, nil
}

// ParseHeader validates the PGCOPY signature and reads metadata
func (p *Parser) ParseHeader() error {
	// Read signature (11 bytes): "PGCOPY\n\377\r\n\0"
	signature := make([]byte, len(copySignature))
	if _, err := io.ReadFull(p.reader, signature); err != nil {
		return fmt.Errorf("unexpected EOF reading header: %w", err)
	}
	for i, b := range signature {
		if b != copySignature[i] {
			return fmt.Errorf("invalid PGCOPY signature")
		}
	}

	// Flags, then the header extension area length (4 bytes each, network byte order)
	if _, err := p.readUint32(); err != nil {
		return fmt.Errorf("unexpected EOF reading header: %w", err)
	}
	extLength, err := p.readUint32()
	if err != nil {
		return fmt.Errorf("unexpected EOF reading header: %w", err)
	}

	// Skip extension area if present
	if extLength > 0 {
		if _, err := io.CopyN(io.Discard, p.reader, int64(extLength)); err != nil {
			return fmt.Errorf("unexpected EOF reading header extension: %w", err)
		}
	}

	return nil
}

// ParseTuple reads a single tuple (row) from the binary data.
// Returns io.EOF when the trailer (-1) is encountered.
// The returned slice is reused by the next call.
func (p *Parser) ParseTuple() ([]Field, error) {
	if _, err := io.ReadFull(p.reader, p.scratch[:2]); err != nil {
		return nil, err
	}
	fieldCount := int16(binary.BigEndian.Uint16(p.scratch[:2]))

	// Check for trailer (-1 indicates end of data)
	if fieldCount == -1 {
		return nil, io.EOF
	}

	if fieldCount < 0 {
		return nil, fmt.Errorf("invalid field count: %d", fieldCount)
	}

	// Validate field count matches expected types
	if len(p.handlers) != int(fieldCount) {
		return nil, fmt.Errorf("field count mismatch: got %d fields, expected %d types", fieldCount, len(p.handlers))
	}

	if cap(p.fields) < int(fieldCount) {
		p.fields = make([]Field, fieldCount)
	} else {
		p.fields = p.fields[:fieldCount]
	}

	for i := 0; i < int(fieldCount); i++ {
		field, err := p.ParseField(i)
		if err != nil {
			return nil, fmt.Errorf("error parsing field %d: %w", i, err)
		}
		p.fields[i] = field
	}

	return p.fields, nil
}

// ParseField reads and parses a single field from the binary data using type information
func (p *Parser) ParseField(fieldIndex int) (Field, error) {
	if fieldIndex < 0 || fieldIndex >= len(p.handlers) {
		return Field{}, fmt.Errorf("field index %d out of range for %d types", fieldIndex, len(p.handlers))
	}

	raw, err := p.readUint32()
	if err != nil {
		return Field{}, err
	}
	length := int32(raw)

	// Handle NULL value
	if length == -1 {
		return Field{Value: nil}, nil
	}

	if length < 0 {
		return Field{}, fmt.Errorf("invalid field length: %d", length)
	}

	// Read field data using reusable buffer
	if cap(p.buf) < int(length) {
		p.buf = make([]byte, length)
	} else {
		p.buf = p.buf[:length]
	}

	if _, err := io.ReadFull(p.reader, p.buf); err != nil {
		return Field{}, fmt.Errorf("unexpected EOF reading field data: %w", err)
	}

	handler := p.handlers[fieldIndex]
	value, err := handler.Parse(p.buf)
	if err != nil {
		return Field{}, fmt.Errorf("failed to parse %s field: %w", handler.Name(), err)
	}

	return Field{Value: value}, nil
}

func (p *Parser) readUint32() (uint32, error) {
	if _, err := io.ReadFull(p.reader, p.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(p.scratch[:4]), nil
}
