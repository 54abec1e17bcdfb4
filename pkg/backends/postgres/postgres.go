// Package postgres provides the PostgreSQL session backend.
//
// Import this package with a blank identifier to register the backend:
//
//	import _ "github.com/leapstack-labs/leapdata/pkg/backends/postgres"
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/leapstack-labs/leapdata/pkg/frame"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

// Name is the backend name used in connection configurations.
const Name = "postgres"

// Dialect is the PostgreSQL session dialect. A connection is bound to one
// database, so sessions are not shared across databases.
var Dialect = &session.Dialect{
	Name:          Name,
	DefaultSchema: "public",
	Placeholder:   session.PlaceholderDollar,
	Normalization: session.NormLowercase,
	Quote:         `"`,
	Types: map[frame.Kind]string{
		frame.KindBool:   "BOOLEAN",
		frame.KindInt:    "BIGINT",
		frame.KindFloat:  "DOUBLE PRECISION",
		frame.KindString: "TEXT",
		frame.KindTime:   "TIMESTAMP",
		frame.KindBytes:  "BYTEA",
	},
	TableTypes: map[string]string{
		"transient": "UNLOGGED",
	},
	TruncateStatement: "TRUNCATE TABLE",
}

func init() {
	session.RegisterBackend(&session.Backend{Name: Name, Dialect: Dialect, Open: Open})
}

// Open connects to the database named by cfg.
func Open(ctx context.Context, cfg session.ConnectionConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	return session.OpenDB(ctx, db, Name)
}

// buildDSN constructs a keyword/value connection string. The schema becomes
// the search_path; extra parameters are passed through as runtime settings.
func buildDSN(cfg session.ConnectionConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	params := cfg.ParamStrings()
	if params == nil {
		params = make(map[string]string)
	}
	if _, ok := params["sslmode"]; !ok {
		params["sslmode"] = "disable"
	}
	if cfg.Schema != "" {
		params["search_path"] = cfg.Schema
	}

	parts := []string{
		"host=" + quoteValue(host),
		"port=" + strconv.Itoa(port),
		"dbname=" + quoteValue(cfg.Database),
	}
	if cfg.User != "" {
		parts = append(parts, "user="+quoteValue(cfg.User))
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteValue(cfg.Password))
	}
	for _, k := range slices.Sorted(maps.Keys(params)) {
		parts = append(parts, k+"="+quoteValue(params[k]))
	}
	return strings.Join(parts, " ")
}

// quoteValue quotes a DSN value when it is empty or contains spaces,
// quotes or backslashes.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
