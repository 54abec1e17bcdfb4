package frame

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

// FromRows reads every row of a result set into a new frame.
// The caller still owns rows and must close it.
func FromRows(rows *sql.Rows) (*Frame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	// Column types are optional; some drivers do not report them.
	binary := make([]bool, len(cols))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			binary[i] = isBinaryType(ct.DatabaseTypeName())
		}
	}

	f := New(cols...)
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		// Text columns come back as []byte from several drivers
		for i, v := range values {
			if b, ok := v.([]byte); ok && !binary[i] && utf8.Valid(b) {
				values[i] = string(b)
			}
		}
		f.rows = append(f.rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return f, nil
}

func isBinaryType(name string) bool {
	switch strings.ToUpper(name) {
	case "BINARY", "VARBINARY", "BLOB", "BYTEA":
		return true
	}
	return false
}
