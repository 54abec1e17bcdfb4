package session

import (
	"context"
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

type sourceKind int

const (
	sourceTable sourceKind = iota
	sourceQuery
	sourceValues
)

// DataFrame is a lazy relation bound to a session. Building or limiting a
// DataFrame issues no query.
type DataFrame struct {
	session *Session
	kind    sourceKind

	table  TableName
	query  string
	args   []any
	values *frame.Frame

	// limit < 0 means unlimited
	limit int
}

// Session returns the session the DataFrame is bound to.
func (df *DataFrame) Session() *Session { return df.session }

// TableName returns the table a DataFrame reads, if it reads one directly.
func (df *DataFrame) TableName() (TableName, bool) {
	return df.table, df.kind == sourceTable
}

// Limit returns a DataFrame holding at most n rows.
func (df *DataFrame) Limit(n int) *DataFrame {
	if n < 0 {
		n = 0
	}
	out := *df
	if out.limit < 0 || n < out.limit {
		out.limit = n
	}
	return &out
}

// selectSQL renders the relation as a SELECT statement.
func (df *DataFrame) selectSQL() (string, []any) {
	var query string
	switch df.kind {
	case sourceTable:
		query = "SELECT * FROM " + df.table.SQL(df.session.dialect)
	default:
		query = "SELECT * FROM (" + df.query + ") AS src"
	}
	if df.limit >= 0 {
		query += " LIMIT " + strconv.Itoa(df.limit)
	}
	return query, df.args
}

// Collect runs the relation and returns its rows.
func (df *DataFrame) Collect(ctx context.Context) (*frame.Frame, error) {
	if df.kind == sourceValues {
		return df.values.Head(df.limit), nil
	}

	query, args := df.selectSQL()
	df.session.logger.Debug("collecting dataframe", "sql", query)

	rows, err := df.session.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return frame.FromRows(rows)
}

// Count returns the number of rows in the relation.
func (df *DataFrame) Count(ctx context.Context) (int64, error) {
	if df.kind == sourceValues {
		return int64(df.values.Head(df.limit).Len()), nil
	}

	inner, args := df.selectSQL()
	query := "SELECT COUNT(*) FROM (" + inner + ") AS cnt"

	var n int64
	if err := df.session.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Columns returns the column names of the relation without reading rows.
func (df *DataFrame) Columns(ctx context.Context) ([]string, error) {
	if df.kind == sourceValues {
		return df.values.Columns(), nil
	}

	query, args := df.Limit(0).selectSQL()
	rows, err := df.session.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return cols, rows.Err()
}

// Write returns a writer for saving the DataFrame.
func (df *DataFrame) Write() *DataFrameWriter {
	return &DataFrameWriter{df: df}
}
