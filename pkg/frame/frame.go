// Package frame provides a small in-memory tabular structure.
//
// A Frame is what callers hand to a dataset when the data is not already
// held by a warehouse session: ordered column names plus row-major values.
// Values are plain Go types (int64, float64, string, bool, time.Time, []byte)
// or nil for NULL.
package frame

import (
	"fmt"
	"slices"
	"time"
)

// Kind enumerates the logical column types a Frame can carry.
type Kind int

// Supported kinds.
const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindBytes
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindBytes:
		return "bytes"
	default:
		return "invalid"
	}
}

// KindOf reports the Kind of a single value. nil reports KindInvalid.
func KindOf(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInt
	case float32, float64:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	case []byte:
		return KindBytes
	default:
		return KindInvalid
	}
}

// Frame is an ordered set of named columns with row-major values.
type Frame struct {
	columns []string
	rows    [][]any
}

// New creates an empty frame with the given column names.
func New(columns ...string) *Frame {
	return &Frame{columns: slices.Clone(columns)}
}

// FromRecords builds a frame from column names and rows.
// Every row must have exactly one value per column.
func FromRecords(columns []string, rows [][]any) (*Frame, error) {
	f := New(columns...)
	for _, r := range rows {
		if err := f.AddRow(r...); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AddRow appends a row. The number of values must match the number of columns.
func (f *Frame) AddRow(values ...any) error {
	if len(values) != len(f.columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(values), len(f.columns))
	}
	f.rows = append(f.rows, slices.Clone(values))
	return nil
}

// Columns returns a copy of the column names.
func (f *Frame) Columns() []string { return slices.Clone(f.columns) }

// Rows returns the underlying rows. Callers must not modify them.
func (f *Frame) Rows() [][]any { return f.rows }

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.columns) }

// Row returns the i-th row.
func (f *Frame) Row(i int) []any { return f.rows[i] }

// Column returns all values of the named column.
func (f *Frame) Column(name string) ([]any, bool) {
	idx := slices.Index(f.columns, name)
	if idx < 0 {
		return nil, false
	}
	out := make([]any, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[idx]
	}
	return out, true
}

// ColumnKind infers the kind of column i from all of its non-nil values.
// Int and float values widen to KindFloat; any other mix of kinds, or a
// value of an unsupported type, yields KindInvalid. A column holding only
// NULLs is treated as a string column.
func (f *Frame) ColumnKind(i int) Kind {
	kind := KindInvalid
	for _, r := range f.rows {
		if r[i] == nil {
			continue
		}
		k := KindOf(r[i])
		switch {
		case k == KindInvalid:
			return KindInvalid
		case kind == KindInvalid, kind == k:
			kind = k
		case numeric(kind) && numeric(k):
			kind = KindFloat
		default:
			return KindInvalid
		}
	}
	if kind == KindInvalid {
		return KindString
	}
	return kind
}

func numeric(k Kind) bool { return k == KindInt || k == KindFloat }

// Head returns a frame holding at most the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 || n > len(f.rows) {
		n = len(f.rows)
	}
	out := New(f.columns...)
	for _, r := range f.rows[:n] {
		out.rows = append(out.rows, slices.Clone(r))
	}
	return out
}

// Clone returns a deep copy of the row slices. Values themselves are shared.
func (f *Frame) Clone() *Frame {
	return f.Head(-1)
}
