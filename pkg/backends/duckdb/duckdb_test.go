package duckdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdata/internal/testutil"
	"github.com/leapstack-labs/leapdata/pkg/frame"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  *Params
	}{
		{
			name:  "nil params returns empty struct",
			input: nil,
			want:  &Params{},
		},
		{
			name: "extensions and settings",
			input: map[string]any{
				"extensions": []any{"httpfs", "json"},
				"settings":   map[string]any{"threads": 4},
				"query_tag":  "ignored",
			},
			want: &Params{
				Extensions: []string{"httpfs", "json"},
				Settings:   map[string]string{"threads": "4"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupStatements(t *testing.T) {
	stmts := setupStatements(&Params{
		Extensions: []string{"json"},
		Settings:   map[string]string{"threads": "2", "memory_limit": "1GB", "custom": "it's"},
	})
	assert.Equal(t, []string{
		"INSTALL json",
		"LOAD json",
		"SET custom = 'it''s'",
		"SET memory_limit = '1GB'",
		"SET threads = '2'",
	}, stmts)
}

func TestCatalogName(t *testing.T) {
	assert.Equal(t, "memory", CatalogName(""))
	assert.Equal(t, "memory", CatalogName(":memory:"))
	assert.Equal(t, "warehouse", CatalogName(filepath.Join("data", "warehouse.duckdb")))
}

func TestBackendRegistered(t *testing.T) {
	b, ok := session.GetBackend(Name)
	require.True(t, ok)
	assert.Same(t, Dialect, b.Dialect)
}

func TestOpen_Settings(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, session.ConnectionConfig{
		Backend: Name,
		Params:  map[string]any{"settings": map[string]any{"threads": "1"}},
	})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var threads int64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT current_setting('threads')").Scan(&threads))
	assert.Equal(t, int64(1), threads)
}

func TestOpen_FileBased(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "weather.duckdb")

	pool := session.NewPool()
	defer func() { _ = pool.Close() }()

	s, err := pool.Session(ctx, session.ConnectionConfig{Backend: Name, Path: path, Database: CatalogName(path), Schema: "main"})
	require.NoError(t, err)

	name := session.TableName{Database: CatalogName(path), Schema: "main", Table: "readings"}
	f, err := frame.FromRecords([]string{"id"}, [][]any{{int64(1)}})
	require.NoError(t, err)
	df, err := s.CreateDataFrame(f)
	require.NoError(t, err)
	require.NoError(t, df.Write().SaveAsTable(ctx, name, nil))

	n, err := s.TableCount(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := session.NewPool(session.WithPoolLogger(testutil.NewTestLogger(t)))
	defer func() { _ = pool.Close() }()

	s, err := pool.Session(ctx, session.ConnectionConfig{Backend: Name, Database: MemoryCatalog, Schema: "main"})
	require.NoError(t, err)

	name := session.TableName{Database: MemoryCatalog, Schema: "main", Table: "weather_data"}
	rows := [][]any{
		{"Oslo", 3.5, int64(12), true},
		{"Rome", 18.0, int64(40), false},
		{"Lima", nil, int64(7), true},
	}
	f, err := frame.FromRecords([]string{"city", "temp", "visits", "coastal"}, rows)
	require.NoError(t, err)
	df, err := s.CreateDataFrame(f)
	require.NoError(t, err)

	n, err := s.TableCount(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, df.Write().SaveAsTable(ctx, name, map[string]any{"mode": "overwrite"}))

	n, err = s.TableCount(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	loaded, err := s.Table(name).Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "temp", "visits", "coastal"}, loaded.Columns())
	assert.ElementsMatch(t, rows, loaded.Rows())

	t.Run("append adds rows", func(t *testing.T) {
		require.NoError(t, df.Write().SaveAsTable(ctx, name, map[string]any{"mode": "append", "column_order": "name"}))
		count, err := s.Table(name).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6), count)
	})

	t.Run("truncate replaces rows", func(t *testing.T) {
		require.NoError(t, df.Write().SaveAsTable(ctx, name, map[string]any{"mode": "truncate"}))
		count, err := s.Table(name).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("errorifexists refuses", func(t *testing.T) {
		err := df.Write().SaveAsTable(ctx, name, nil)
		assert.ErrorIs(t, err, session.ErrTableExists)
	})

	t.Run("copy between tables", func(t *testing.T) {
		copyName := session.TableName{Database: MemoryCatalog, Schema: "main", Table: "weather copy"}
		require.NoError(t, s.Table(name).Write().SaveAsTable(ctx, copyName, map[string]any{"mode": "overwrite"}))
		count, err := s.Table(copyName).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

func TestTableCount_IgnoresCase(t *testing.T) {
	ctx := context.Background()
	pool := session.NewPool()
	defer func() { _ = pool.Close() }()

	s, err := pool.Session(ctx, session.ConnectionConfig{Backend: Name, Database: MemoryCatalog, Schema: "main"})
	require.NoError(t, err)
	require.NoError(t, s.Exec(ctx, "CREATE TABLE weather (city VARCHAR)"))

	n, err := s.TableCount(ctx, session.TableName{Database: MemoryCatalog, Schema: "MAIN", Table: "Weather"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSaveLoadRoundTrip_MixedNumericColumn(t *testing.T) {
	ctx := context.Background()
	pool := session.NewPool()
	defer func() { _ = pool.Close() }()

	s, err := pool.Session(ctx, session.ConnectionConfig{Backend: Name, Database: MemoryCatalog, Schema: "main"})
	require.NoError(t, err)

	name := session.TableName{Database: MemoryCatalog, Schema: "main", Table: "readings"}
	f, err := frame.FromRecords([]string{"v"}, [][]any{{int64(1)}, {3.7}})
	require.NoError(t, err)
	df, err := s.CreateDataFrame(f)
	require.NoError(t, err)
	require.NoError(t, df.Write().SaveAsTable(ctx, name, map[string]any{"mode": "overwrite"}))

	loaded, err := s.Table(name).Collect(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]any{{1.0}, {3.7}}, loaded.Rows())
}
