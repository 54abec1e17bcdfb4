package input

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	parquet "github.com/segmentio/parquet-go"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

// ReadParquet reads a flat Parquet file. Nested columns are rejected.
func ReadParquet(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file %s: %w", path, err)
	}

	r := parquet.NewReader(pf)
	defer func() { _ = r.Close() }()

	fields := r.Schema().Fields()
	cols := make([]string, len(fields))
	for i, field := range fields {
		if !field.Leaf() {
			return nil, fmt.Errorf("parquet column %q is nested; only flat schemas are supported", field.Name())
		}
		cols[i] = field.Name()
	}

	out := frame.New(cols...)
	buf := make([]parquet.Row, 256)
	for {
		n, err := r.ReadRows(buf)
		for _, row := range buf[:n] {
			values := make([]any, len(cols))
			for _, v := range row {
				if c := v.Column(); c >= 0 && c < len(values) {
					values[c] = parquetValue(v, fields[c])
				}
			}
			if addErr := out.AddRow(values...); addErr != nil {
				return nil, addErr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

func parquetValue(v parquet.Value, field parquet.Field) any {
	if v.IsNull() {
		return nil
	}
	lt := field.Type().LogicalType()
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return timestampValue(v.Int64(), lt.Timestamp.Unit.Millis != nil, lt.Timestamp.Unit.Micros != nil)
		}
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		b := v.ByteArray()
		if lt != nil && lt.UTF8 != nil {
			return string(b)
		}
		return append([]byte(nil), b...)
	default:
		return v.String()
	}
}

func timestampValue(n int64, millis, micros bool) time.Time {
	switch {
	case millis:
		return time.UnixMilli(n).UTC()
	case micros:
		return time.UnixMicro(n).UTC()
	default:
		return time.Unix(0, n).UTC()
	}
}
