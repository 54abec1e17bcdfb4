// Package duckdb provides the DuckDB session backend.
//
// DuckDB runs in process, which makes it the local stand-in for a warehouse
// during development and in tests. Import this package with a blank
// identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/leapdata/pkg/backends/duckdb"
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/leapdata/pkg/frame"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

// Name is the backend name used in connection configurations.
const Name = "duckdb"

// Dialect is the DuckDB session dialect. Identifiers keep the case they were
// created with.
var Dialect = &session.Dialect{
	Name:          Name,
	DefaultSchema: "main",
	Placeholder:   session.PlaceholderQuestion,
	Normalization: session.NormCaseSensitive,
	Quote:         `"`,
	Types: map[frame.Kind]string{
		frame.KindBool:   "BOOLEAN",
		frame.KindInt:    "BIGINT",
		frame.KindFloat:  "DOUBLE",
		frame.KindString: "VARCHAR",
		frame.KindTime:   "TIMESTAMP",
		frame.KindBytes:  "BLOB",
	},
	CreateOrReplace:        true,
	CrossDatabase:          true,
	CaseInsensitiveCatalog: true,
	TruncateStatement:      "DELETE FROM",
}

func init() {
	session.RegisterBackend(&session.Backend{Name: Name, Dialect: Dialect, Open: Open})
}

// Open opens the database at cfg.Path, in memory when the path is empty,
// and applies extensions and settings from the connection parameters.
func Open(ctx context.Context, cfg session.ConnectionConfig) (*sql.DB, error) {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	db, err = session.OpenDB(ctx, db, Name)
	if err != nil {
		return nil, err
	}

	for _, stmt := range setupStatements(params) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to configure duckdb: %w", err)
		}
	}
	return db, nil
}

// setupStatements renders extension loading and settings in a stable order.
func setupStatements(p *Params) []string {
	var stmts []string
	for _, ext := range p.Extensions {
		ident := Dialect.FormatIdentifier(ext)
		stmts = append(stmts, "INSTALL "+ident, "LOAD "+ident)
	}
	for _, k := range slices.Sorted(maps.Keys(p.Settings)) {
		stmts = append(stmts, fmt.Sprintf("SET %s = '%s'", Dialect.FormatIdentifier(k), strings.ReplaceAll(p.Settings[k], "'", "''")))
	}
	return stmts
}
