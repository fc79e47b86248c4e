package colvec

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when a Go value cannot be stored in a column
	// of the target type.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrRange is returned when a value does not fit its target representation.
	ErrRange = errors.New("value out of range")
	// ErrSizeMismatch is returned when a fixed-size array gets the wrong number of elements.
	ErrSizeMismatch = errors.New("array size mismatch")
	// ErrUnsupportedKind is returned for column kinds the writer cannot encode.
	ErrUnsupportedKind = errors.New("unsupported column kind")
	// ErrAllocation is returned when list child storage cannot be reserved.
	ErrAllocation = errors.New("allocation failed")
	// ErrInvalidEnumValue is returned when a string is not in the enum dictionary.
	ErrInvalidEnumValue = errors.New("invalid enum value")
	// ErrReleased is returned when a chunk or appender is used after Release/Close.
	ErrReleased = errors.New("use after release")
)

// maxValueLen bounds the stringified value carried by WriteError.
const maxValueLen = 64

// WriteError reports a failed write into a vector. Err wraps one of the
// sentinel errors above.
type WriteError struct {
	Type  string // Column type, e.g. "DECIMAL(4,2)"
	Value string // Offending value, empty for nulls and allocation failures
	Err   error  // The underlying error
}

func (e *WriteError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("write to %s column: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("write %s to %s column: %v", e.Value, e.Type, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// RowError locates a WriteError within an appended row.
type RowError struct {
	Row    int    // Row index within the current chunk
	Column int    // Column index
	Name   string // Column name, if known
	Err    error  // The underlying error
}

func (e *RowError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("row %d, column %d (%s): %v", e.Row, e.Column, e.Name, e.Err)
	}
	return fmt.Sprintf("row %d, column %d: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// QueryError provides detailed context about query execution failures
type QueryError struct {
	SQL       string // The SQL query that failed
	Operation string // Which operation failed (e.g., "metadata_discovery", "copy_execution")
	Err       error  // The underlying error
}

func (e *QueryError) Error() string {
	sql := e.SQL
	if len(sql) > 100 {
		sql = sql[:100] + "..."
	}
	return fmt.Sprintf("query failed during %s: %v (SQL: %s)", e.Operation, e.Err, sql)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// ConnectionError provides context about connection acquisition failures
type ConnectionError struct {
	ConnectionStr string // Connection string (sensitive parts masked)
	Err           error  // The underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect %s: %v", e.ConnectionStr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SchemaError reports PostgreSQL columns that have no vector type.
type SchemaError struct {
	Columns []ColumnInfo // Column metadata that failed to convert
	Err     error        // The underlying error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("failed to map %d columns to vector types: %v", len(e.Columns), e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// maskConnectionString removes sensitive information from connection strings for error reporting
func maskConnectionString(string) string {
	return "[connection details masked]"
}

func newWriteError(t *LogicalType, val any, err error) error {
	e := &WriteError{Type: t.String(), Err: err}
	if val != nil {
		e.Value = formatValue(val)
	}
	return e
}

func typeMismatch(t *LogicalType, val any) error {
	return newWriteError(t, val, fmt.Errorf("%w: cannot store Go %T in %s", ErrTypeMismatch, val, t.ID()))
}

func rangeError(t *LogicalType, val any, format string, args ...any) error {
	return newWriteError(t, val, fmt.Errorf("%w: %s", ErrRange, fmt.Sprintf(format, args...)))
}

func formatValue(val any) string {
	s := fmt.Sprintf("%v", val)
	if len(s) > maxValueLen {
		s = s[:maxValueLen] + "..."
	}
	return s
}

func isTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}
