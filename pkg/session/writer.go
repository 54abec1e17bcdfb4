package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

// Save modes.
const (
	ModeErrorIfExists = "errorifexists"
	ModeAppend        = "append"
	ModeOverwrite     = "overwrite"
	ModeIgnore        = "ignore"
	ModeTruncate      = "truncate"
)

// Column orders.
const (
	ColumnOrderIndex = "index"
	ColumnOrderName  = "name"
)

// maxBindParams bounds the parameters of one INSERT statement.
const maxBindParams = 10000

// ErrTableExists is returned by SaveAsTable in errorifexists mode when the
// target table already exists.
var ErrTableExists = errors.New("table already exists")

// WriteOptions controls SaveAsTable.
type WriteOptions struct {
	Mode        string `mapstructure:"mode"`
	ColumnOrder string `mapstructure:"column_order"`
	TableType   string `mapstructure:"table_type"`
}

// DecodeWriteOptions decodes save arguments. Unknown keys and unknown
// values are errors.
func DecodeWriteOptions(m map[string]any) (WriteOptions, error) {
	var opts WriteOptions
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &opts,
		ErrorUnused: true,
	})
	if err != nil {
		return opts, err
	}
	if err := dec.Decode(m); err != nil {
		return opts, fmt.Errorf("invalid save options: %w", err)
	}

	opts.Mode = strings.ToLower(opts.Mode)
	opts.ColumnOrder = strings.ToLower(opts.ColumnOrder)
	if opts.Mode == "" {
		opts.Mode = ModeErrorIfExists
	}
	if opts.ColumnOrder == "" {
		opts.ColumnOrder = ColumnOrderIndex
	}

	switch opts.Mode {
	case ModeErrorIfExists, ModeAppend, ModeOverwrite, ModeIgnore, ModeTruncate:
	default:
		return opts, fmt.Errorf("invalid save options: unsupported mode %q", opts.Mode)
	}
	switch opts.ColumnOrder {
	case ColumnOrderIndex, ColumnOrderName:
	default:
		return opts, fmt.Errorf("invalid save options: unsupported column_order %q", opts.ColumnOrder)
	}
	return opts, nil
}

// DataFrameWriter saves a DataFrame to a table.
type DataFrameWriter struct {
	df *DataFrame
}

// SaveAsTable writes the DataFrame to name according to opts.
func (w *DataFrameWriter) SaveAsTable(ctx context.Context, name TableName, opts map[string]any) error {
	o, err := DecodeWriteOptions(opts)
	if err != nil {
		return err
	}
	s := w.df.session
	tableType, err := s.dialect.TableTypeKeyword(o.TableType)
	if err != nil {
		return err
	}

	n, err := s.TableCount(ctx, name)
	if err != nil {
		return err
	}
	exists := n > 0

	s.logger.Debug("saving dataframe", "table", name.FullyQualifiedName(), "mode", o.Mode, "exists", exists)

	switch o.Mode {
	case ModeErrorIfExists:
		if exists {
			return fmt.Errorf("%w: %s", ErrTableExists, name.FullyQualifiedName())
		}
		return w.create(ctx, name, tableType, false)
	case ModeIgnore:
		if exists {
			return nil
		}
		return w.create(ctx, name, tableType, false)
	case ModeOverwrite:
		return w.create(ctx, name, tableType, exists)
	case ModeTruncate:
		if !exists {
			return w.create(ctx, name, tableType, false)
		}
		if err := s.Exec(ctx, s.dialect.TruncateStatement+" "+name.SQL(s.dialect)); err != nil {
			return err
		}
		return w.insert(ctx, name, o.ColumnOrder == ColumnOrderName)
	default: // append
		if !exists {
			return w.create(ctx, name, tableType, false)
		}
		return w.insert(ctx, name, o.ColumnOrder == ColumnOrderName)
	}
}

// create creates the table from the DataFrame, replacing an existing one
// when replace is set.
func (w *DataFrameWriter) create(ctx context.Context, name TableName, tableType string, replace bool) error {
	s := w.df.session
	d := s.dialect

	// Column types are resolved before anything is dropped.
	var f *frame.Frame
	var defs []string
	if w.df.kind == sourceValues {
		f = w.df.values.Head(w.df.limit)
		var err error
		if defs, err = columnDefs(d, f); err != nil {
			return err
		}
	}

	var b strings.Builder
	b.WriteString("CREATE ")
	if replace {
		if d.CreateOrReplace {
			b.WriteString("OR REPLACE ")
		} else if err := s.Exec(ctx, "DROP TABLE IF EXISTS "+name.SQL(d)); err != nil {
			return err
		}
	}
	if tableType != "" {
		b.WriteString(tableType + " ")
	}
	b.WriteString("TABLE " + name.SQL(d))

	if f == nil {
		query, args := w.df.selectSQL()
		return s.Exec(ctx, b.String()+" AS "+query, args...)
	}

	b.WriteString(" (" + strings.Join(defs, ", ") + ")")
	if err := s.Exec(ctx, b.String()); err != nil {
		return err
	}
	return w.insertValues(ctx, name, f, false)
}

func columnDefs(d *Dialect, f *frame.Frame) ([]string, error) {
	defs := make([]string, f.Width())
	for i, col := range f.Columns() {
		kind := f.ColumnKind(i)
		if kind == frame.KindInvalid {
			return nil, fmt.Errorf("column %s: values of mixed or unsupported types", col)
		}
		typ, err := d.ColumnType(kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col, err)
		}
		defs[i] = d.QuoteIdentifier(col) + " " + typ
	}
	return defs, nil
}

// insert appends the DataFrame to an existing table.
func (w *DataFrameWriter) insert(ctx context.Context, name TableName, byName bool) error {
	if w.df.kind == sourceValues {
		return w.insertValues(ctx, name, w.df.values.Head(w.df.limit), byName)
	}

	s := w.df.session
	target := "INSERT INTO " + name.SQL(s.dialect)
	if byName {
		cols, err := w.df.Columns(ctx)
		if err != nil {
			return err
		}
		target += " " + columnList(s.dialect, cols)
	}
	query, args := w.df.selectSQL()
	return s.Exec(ctx, target+" "+query, args...)
}

// insertValues writes in-memory rows with batched multi-row INSERTs in a
// single transaction.
func (w *DataFrameWriter) insertValues(ctx context.Context, name TableName, f *frame.Frame, byName bool) error {
	if f.Len() == 0 {
		return nil
	}
	s := w.df.session
	d := s.dialect

	prefix := "INSERT INTO " + name.SQL(d)
	if byName {
		prefix += " " + columnList(d, f.Columns())
	}
	prefix += " VALUES "

	batch := max(1, maxBindParams/f.Width())
	rows := f.Rows()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, (end-start)*f.Width())
		for i, row := range rows[start:end] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(")
			for j, v := range row {
				if j > 0 {
					b.WriteString(", ")
				}
				args = append(args, v)
				b.WriteString(d.FormatPlaceholder(len(args)))
			}
			b.WriteString(")")
		}

		s.logger.Debug("inserting rows", "table", name.FullyQualifiedName(), "rows", end-start)
		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func columnList(d *Dialect, cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
