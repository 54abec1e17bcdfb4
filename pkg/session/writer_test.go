package session

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

const (
	warehouseCount = "SELECT COUNT(*) FROM meteorology.INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?"
	serverCount    = "SELECT COUNT(*) FROM information_schema.tables WHERE table_catalog = $1 AND table_schema = $2 AND table_name = $3"
	weatherSQL     = "meteorology.observations.weather_data"
)

func expectCount(mock sqlmock.Sqlmock, query string, n int) {
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(n))
}

func weatherFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.FromRecords([]string{"city", "temp"}, [][]any{
		{"Oslo", 3.5},
		{"Rome", 18.0},
	})
	require.NoError(t, err)
	return f
}

func TestDecodeWriteOptions(t *testing.T) {
	tests := []struct {
		name    string
		input   map[string]any
		want    WriteOptions
		wantErr string
	}{
		{
			name:  "defaults",
			input: nil,
			want:  WriteOptions{Mode: ModeErrorIfExists, ColumnOrder: ColumnOrderIndex},
		},
		{
			name:  "all options",
			input: map[string]any{"mode": "Overwrite", "column_order": "name", "table_type": "transient"},
			want:  WriteOptions{Mode: ModeOverwrite, ColumnOrder: ColumnOrderName, TableType: "transient"},
		},
		{
			name:    "unknown mode",
			input:   map[string]any{"mode": "upsert"},
			wantErr: `unsupported mode "upsert"`,
		},
		{
			name:    "unknown column order",
			input:   map[string]any{"column_order": "position"},
			wantErr: `unsupported column_order "position"`,
		},
		{
			name:    "unknown option",
			input:   map[string]any{"partition_by": "city"},
			wantErr: "partition_by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeWriteOptions(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveAsTable_ValuesCreate(t *testing.T) {
	s, mock := newMockSession(t, warehouseDialect())
	mock.ExpectQuery(warehouseCount).
		WithArgs("OBSERVATIONS", "WEATHER_DATA").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectExec(`CREATE TABLE ` + weatherSQL + ` ("city" VARCHAR, "temp" FLOAT)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO " + weatherSQL + " VALUES (?, ?), (?, ?)").
		WithArgs("Oslo", 3.5, "Rome", 18.0).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)
	require.NoError(t, df.Write().SaveAsTable(context.Background(), weatherTable, nil))
}

func TestSaveAsTable_ErrorIfExists(t *testing.T) {
	s, mock := newMockSession(t, warehouseDialect())
	expectCount(mock, warehouseCount, 1)

	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)

	err = df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "errorifexists"})
	require.ErrorIs(t, err, ErrTableExists)
	assert.Contains(t, err.Error(), "meteorology.observations.weather_data")
}

func TestSaveAsTable_IgnoreExisting(t *testing.T) {
	s, mock := newMockSession(t, warehouseDialect())
	expectCount(mock, warehouseCount, 1)

	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)
	require.NoError(t, df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "ignore"}))
}

func TestSaveAsTable_OverwriteCreateOrReplace(t *testing.T) {
	s, mock := newMockSession(t, warehouseDialect())
	expectCount(mock, warehouseCount, 1)
	mock.ExpectExec(`CREATE OR REPLACE TRANSIENT TABLE ` + weatherSQL + ` ("city" VARCHAR, "temp" FLOAT)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO " + weatherSQL + " VALUES (?, ?), (?, ?)").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)
	err = df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{
		"mode":       "overwrite",
		"table_type": "transient",
	})
	require.NoError(t, err)
}

func TestSaveAsTable_OverwriteDropCreate(t *testing.T) {
	s, mock := newMockSession(t, serverDialect())
	expectCount(mock, serverCount, 1)
	mock.ExpectExec("DROP TABLE IF EXISTS " + weatherSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE ` + weatherSQL + ` ("city" TEXT, "visits" BIGINT)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO " + weatherSQL + " VALUES ($1, $2)").
		WithArgs("Oslo", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	f, err := frame.FromRecords([]string{"city", "visits"}, [][]any{{"Oslo", int64(7)}})
	require.NoError(t, err)
	df, err := s.CreateDataFrame(f)
	require.NoError(t, err)
	require.NoError(t, df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "overwrite"}))
}

func TestSaveAsTable_AppendByName(t *testing.T) {
	s, mock := newMockSession(t, serverDialect())
	expectCount(mock, serverCount, 1)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ` + weatherSQL + ` ("city", "temp") VALUES ($1, $2), ($3, $4)`).
		WithArgs("Oslo", 3.5, "Rome", 18.0).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)
	err = df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{
		"mode":         "append",
		"column_order": "name",
	})
	require.NoError(t, err)
}

func TestSaveAsTable_Truncate(t *testing.T) {
	s, mock := newMockSession(t, warehouseDialect())
	expectCount(mock, warehouseCount, 1)
	mock.ExpectExec("TRUNCATE TABLE " + weatherSQL).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO " + weatherSQL + " VALUES (?, ?), (?, ?)").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)
	require.NoError(t, df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "truncate"}))
}

func TestSaveAsTable_InsertFailureRollsBack(t *testing.T) {
	s, mock := newMockSession(t, warehouseDialect())
	expectCount(mock, warehouseCount, 1)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO " + weatherSQL + " VALUES (?, ?), (?, ?)").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)
	err = df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "append"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSaveAsTable_Relation(t *testing.T) {
	staging := TableName{Database: "meteorology", Schema: "staging", Table: "raw_weather"}

	t.Run("create as select", func(t *testing.T) {
		s, mock := newMockSession(t, warehouseDialect())
		expectCount(mock, warehouseCount, 0)
		mock.ExpectExec("CREATE TABLE " + weatherSQL + " AS SELECT * FROM meteorology.staging.raw_weather").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Table(staging).Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "overwrite"})
		require.NoError(t, err)
	})

	t.Run("insert select by name", func(t *testing.T) {
		s, mock := newMockSession(t, warehouseDialect())
		expectCount(mock, warehouseCount, 1)
		mock.ExpectQuery("SELECT * FROM meteorology.staging.raw_weather LIMIT 0").
			WillReturnRows(sqlmock.NewRows([]string{"CITY", "TEMP"}))
		mock.ExpectExec(`INSERT INTO ` + weatherSQL + ` ("CITY", "TEMP") SELECT * FROM meteorology.staging.raw_weather`).
			WillReturnResult(sqlmock.NewResult(0, 10))

		err := s.Table(staging).Write().SaveAsTable(context.Background(), weatherTable, map[string]any{
			"mode":         "append",
			"column_order": "name",
		})
		require.NoError(t, err)
	})
}

func TestSaveAsTable_InvalidOptionsIssueNoQuery(t *testing.T) {
	s, _ := newMockSession(t, serverDialect())
	df, err := s.CreateDataFrame(weatherFrame(t))
	require.NoError(t, err)

	err = df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "upsert"})
	assert.ErrorContains(t, err, "unsupported mode")

	err = df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"table_type": "transient"})
	assert.ErrorContains(t, err, `unsupported table_type "transient"`)
}

func TestSaveAsTable_MixedNumericColumnIsFloat(t *testing.T) {
	d := serverDialect()
	d.Types[frame.KindFloat] = "DOUBLE PRECISION"
	s, mock := newMockSession(t, d)

	expectCount(mock, serverCount, 0)
	mock.ExpectExec(`CREATE TABLE ` + weatherSQL + ` ("v" DOUBLE PRECISION)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO " + weatherSQL + " VALUES ($1), ($2)").
		WithArgs(int64(1), 3.7).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	f, err := frame.FromRecords([]string{"v"}, [][]any{{int64(1)}, {3.7}})
	require.NoError(t, err)
	df, err := s.CreateDataFrame(f)
	require.NoError(t, err)
	require.NoError(t, df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "overwrite"}))
}

func TestSaveAsTable_MixedColumnKeepsExistingTable(t *testing.T) {
	s, mock := newMockSession(t, serverDialect())
	expectCount(mock, serverCount, 1)

	f, err := frame.FromRecords([]string{"city"}, [][]any{{"Oslo"}, {int64(7)}})
	require.NoError(t, err)
	df, err := s.CreateDataFrame(f)
	require.NoError(t, err)

	err = df.Write().SaveAsTable(context.Background(), weatherTable, map[string]any{"mode": "overwrite"})
	assert.EqualError(t, err, "column city: values of mixed or unsupported types")
}
