// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapdata/internal/cli/output"
)

// Project is a temporary catalog backed by a DuckDB file.
type Project struct {
	Dir         string
	Catalog     string
	Credentials string
	Journal     string
	// Input is a CSV file with two weather rows.
	Input string
}

// SetupTestProject creates a catalog with one dataset, "weather", stored in
// a DuckDB file. Its save_args refuse to overwrite existing tables.
func SetupTestProject(t *testing.T) *Project {
	t.Helper()

	dir := t.TempDir()
	p := &Project{
		Dir:         dir,
		Catalog:     filepath.Join(dir, "catalog.yaml"),
		Credentials: filepath.Join(dir, "credentials.yaml"),
		Journal:     filepath.Join(dir, ".leapdata", "journal.db"),
		Input:       filepath.Join(dir, "weather.csv"),
	}

	catalog := `
weather:
  type: snowflake.SnowparkDataset
  table_name: weather_data
  credentials: local
  save_args:
    mode: errorifexists
`
	credentials := "local:\n" +
		"  backend: duckdb\n" +
		"  path: " + filepath.Join(dir, "warehouse.duckdb") + "\n" +
		"  database: warehouse\n" +
		"  schema: main\n"
	weather := "city,temp,visits\nOslo,3.5,7\nRome,18.25,12\n"

	for path, content := range map[string]string{
		p.Catalog:     catalog,
		p.Credentials: credentials,
		p.Input:       weather,
	} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to create %s: %v", path, err)
		}
	}
	return p
}

// Flags returns the persistent flags pointing commands at the project.
func (p *Project) Flags() []string {
	return []string{
		"--catalog", p.Catalog,
		"--credentials", p.Credentials,
		"--journal", p.Journal,
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}
