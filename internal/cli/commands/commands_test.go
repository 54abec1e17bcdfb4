package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/leapstack-labs/leapdata/internal/cli/testutil"
	"github.com/leapstack-labs/leapdata/internal/cli/output"
	"github.com/leapstack-labs/leapdata/internal/journal"
	"github.com/leapstack-labs/leapdata/internal/testutil"
	"github.com/leapstack-labs/leapdata/pkg/frame"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{cmd: NewListCommand(), use: "list"},
		{cmd: NewDescribeCommand(), use: "describe <dataset>"},
		{cmd: NewExistsCommand(), use: "exists <dataset>"},
		{cmd: NewLoadCommand(), use: "load <dataset>", flags: []string{"limit"}},
		{cmd: NewSaveCommand(), use: "save <dataset>", flags: []string{"input", "mode"}},
		{cmd: NewHistoryCommand(), use: "history", flags: []string{"limit"}},
		{cmd: NewVersionCommand("dev"), use: "version"},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	limit := NewLoadCommand().Flags().Lookup("limit")
	assert.Equal(t, "20", limit.DefValue)
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	f, err := frame.FromRecords([]string{"city"}, [][]any{{"Oslo"}, {"Rome"}, {"Lima"}})
	require.NoError(t, err)

	got, err := collect(ctx, f, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	got, err = collect(ctx, f, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())

	db, mock := testutil.NewMockDB(t)
	s := session.NewSession(db, &session.Dialect{Name: "warehouse", Quote: `"`}, nil)
	mock.ExpectQuery("SELECT * FROM meteorology.observations.weather_data LIMIT 2").
		WillReturnRows(sqlmock.NewRows([]string{"city"}).AddRow("Oslo").AddRow("Rome"))

	table := session.TableName{Database: "meteorology", Schema: "observations", Table: "weather_data"}
	got, err = collect(ctx, s.Table(table), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, got.Columns())
	assert.Equal(t, 2, got.Len())

	_, err = collect(ctx, "rows", 2)
	assert.EqualError(t, err, "cannot display loaded data of type string")
}

func newJournal(t *testing.T) *journal.Store {
	t.Helper()
	store := journal.NewStore(nil)
	require.NoError(t, store.Open(context.Background(), ":memory:"))
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenJournal(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	path := filepath.Join(t.TempDir(), "state", "journal.db")

	store, err := openJournal(context.Background(), path, logger)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.FileExists(t, path)
	assert.Contains(t, logs.String(), "journal ready")
	assert.Contains(t, logs.String(), "schema_version=1")
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	cmdCtx := &CommandContext{Logger: testutil.NewTestLogger(t), Journal: newJournal(t)}

	err := cmdCtx.record(ctx, "weather", "save", func() (*int64, error) {
		n := int64(3)
		return &n, nil
	})
	require.NoError(t, err)

	err = cmdCtx.record(ctx, "weather", "load", func() (*int64, error) {
		return nil, assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	ops, err := cmdCtx.Journal.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	byOp := map[string]journal.Operation{}
	for _, op := range ops {
		byOp[op.Operation] = op
	}
	assert.Equal(t, journal.StatusSucceeded, byOp["save"].Status)
	require.NotNil(t, byOp["save"].Rows)
	assert.Equal(t, int64(3), *byOp["save"].Rows)
	assert.Equal(t, journal.StatusFailed, byOp["load"].Status)
	assert.Equal(t, assert.AnError.Error(), byOp["load"].Error)
}

func TestRecord_WithoutJournal(t *testing.T) {
	called := false
	cmdCtx := &CommandContext{Logger: testutil.NewTestLogger(t)}
	err := cmdCtx.record(context.Background(), "weather", "exists", func() (*int64, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRenderSaved(t *testing.T) {
	f, err := frame.FromRecords([]string{"city"}, [][]any{{"Oslo"}, {"Rome"}})
	require.NoError(t, err)

	r := clitestutil.NewTestRenderer(output.ModeText, false)
	require.NoError(t, renderSaved(r.Renderer, "weather", f, ""))
	assert.Contains(t, r.Out.String(), "saved 2 rows to weather")

	r = clitestutil.NewTestRenderer(output.ModeJSON, false)
	require.NoError(t, renderSaved(r.Renderer, "weather", f, "append"))
	var got map[string]any
	require.NoError(t, json.Unmarshal(r.Out.Bytes(), &got))
	assert.Equal(t, map[string]any{"dataset": "weather", "rows": float64(2), "mode": "append"}, got)
}
