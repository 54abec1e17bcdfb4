// Package main provides the leapdata command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdata/internal/cli"

	// Warehouse backends register themselves.
	_ "github.com/leapstack-labs/leapdata/pkg/backends/duckdb"
	_ "github.com/leapstack-labs/leapdata/pkg/backends/postgres"
	_ "github.com/leapstack-labs/leapdata/pkg/backends/snowflake"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
