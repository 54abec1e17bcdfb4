package duckdb

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// MemoryCatalog is the catalog name of an in-memory database.
const MemoryCatalog = "memory"

// Params holds DuckDB-specific connection parameters, decoded from the
// extra keys of a connection configuration.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "json")
	Extensions []string `mapstructure:"extensions"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// ParseParams decodes DuckDB parameters. Unrelated keys are ignored.
func ParseParams(m map[string]any) (*Params, error) {
	p := &Params{}
	if len(m) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("failed to decode duckdb params: %w", err)
	}
	return p, nil
}

// CatalogName returns the catalog DuckDB assigns to the database at path:
// "memory" for in-memory databases, the file name without extension otherwise.
func CatalogName(path string) string {
	if path == "" || path == ":memory:" {
		return MemoryCatalog
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
