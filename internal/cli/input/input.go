// Package input reads local files into frames for saving to datasets.
package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

// Formats lists the supported file extensions.
var Formats = []string{".csv", ".parquet"}

// ReadFile reads a CSV or Parquet file, chosen by extension.
func ReadFile(path string) (*frame.Frame, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(f)
	case ".parquet":
		return ReadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported input format %q\nHint: Use one of %v", ext, Formats)
	}
}
