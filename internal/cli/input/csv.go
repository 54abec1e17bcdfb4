package input

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

// ReadCSV reads a CSV stream with a header row. Column types are inferred
// from all values: int, then float, then bool, falling back to string.
// Empty fields become NULL.
func ReadCSV(r io.Reader) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv input has no header row")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	body := records[1:]

	kinds := make([]frame.Kind, len(header))
	for i := range header {
		kinds[i] = inferKind(body, i)
	}

	out := frame.New(header...)
	for _, rec := range body {
		values := make([]any, len(header))
		for i, s := range rec {
			values[i] = parseValue(s, kinds[i])
		}
		if err := out.AddRow(values...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func inferKind(records [][]string, col int) frame.Kind {
	nInt, nFloat, nBool, n := 0, 0, 0, 0
	for _, rec := range records {
		s := strings.TrimSpace(rec[col])
		if s == "" {
			continue
		}
		n++
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			nInt++
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			nFloat++
			continue
		}
		if _, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
			nBool++
		}
	}
	switch {
	case n == 0:
		return frame.KindString
	case nInt == n:
		return frame.KindInt
	case nInt+nFloat == n:
		return frame.KindFloat
	case nBool == n:
		return frame.KindBool
	default:
		return frame.KindString
	}
}

func parseValue(s string, kind frame.Kind) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	switch kind {
	case frame.KindInt:
		v, _ := strconv.ParseInt(trimmed, 10, 64)
		return v
	case frame.KindFloat:
		v, _ := strconv.ParseFloat(trimmed, 64)
		return v
	case frame.KindBool:
		v, _ := strconv.ParseBool(strings.ToLower(trimmed))
		return v
	default:
		return s
	}
}
