package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

func TestDecodeConnectionConfig(t *testing.T) {
	creds := map[string]any{
		"account":       "acme-xy12345",
		"user":          "loader",
		"password":      "secret",
		"warehouse":     "COMPUTE_WH",
		"database":      "meteorology",
		"schema":        "observations",
		"authenticator": "snowflake",
		"port":          "443",
		"query_tag":     "nightly",
	}

	cfg, err := DecodeConnectionConfig(creds)
	require.NoError(t, err)

	assert.Equal(t, "acme-xy12345", cfg.Account)
	assert.Equal(t, "COMPUTE_WH", cfg.Warehouse)
	assert.Equal(t, 443, cfg.Port)
	assert.Equal(t, map[string]any{"query_tag": "nightly"}, cfg.Params)
	assert.Equal(t, map[string]string{"query_tag": "nightly"}, cfg.ParamStrings())
	assert.Equal(t, DefaultBackend, cfg.BackendName())
	assert.NoError(t, cfg.Validate())

	// Input is untouched.
	assert.Len(t, creds, 9)
}

func TestDecodeConnectionConfig_NoExtraParams(t *testing.T) {
	cfg, err := DecodeConnectionConfig(map[string]any{"backend": "DuckDB"})
	require.NoError(t, err)
	assert.Nil(t, cfg.Params)
	assert.Nil(t, cfg.ParamStrings())
	assert.Equal(t, "duckdb", cfg.BackendName())
}

func TestDecodeConnectionConfig_BadType(t *testing.T) {
	_, err := DecodeConnectionConfig(map[string]any{"port": "not-a-port"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode connection parameters")
}

func TestConnectionConfig_Validate(t *testing.T) {
	assert.EqualError(t, ConnectionConfig{Schema: "s"}.Validate(), "connection database is required")
	assert.EqualError(t, ConnectionConfig{Database: "d"}.Validate(), "connection schema is required")
}

func TestConnectionConfig_Key(t *testing.T) {
	base := ConnectionConfig{Account: "ACME", User: "u", Password: "p", Database: "d1", Schema: "s1"}

	other := base
	other.Password = "different"
	other.Token = "tok"
	other.Schema = "s2"
	assert.Equal(t, base.Key(false), other.Key(false))
	assert.NotContains(t, base.Key(true), "p|")

	other.Database = "d2"
	assert.Equal(t, base.Key(false), other.Key(false))
	assert.NotEqual(t, base.Key(true), other.Key(true))

	other = base
	other.Account = "acme"
	assert.Equal(t, base.Key(false), other.Key(false), "account names are case-insensitive")

	other.Role = "ANALYST"
	assert.NotEqual(t, base.Key(false), other.Key(false))
}

func TestDialect_Identifiers(t *testing.T) {
	d := warehouseDialect()

	assert.Equal(t, `"weather""data"`, d.QuoteIdentifier(`weather"data`))
	assert.Equal(t, "weather_data", d.FormatIdentifier("weather_data"))
	assert.Equal(t, `"weather.data"`, d.FormatIdentifier("weather.data"))
	assert.Equal(t, `"2024_data"`, d.FormatIdentifier("2024_data"))

	assert.Equal(t, "WEATHER_DATA", d.NormalizeName("weather_data"))
	assert.Equal(t, "weather_data", serverDialect().NormalizeName("WEATHER_DATA"))
	assert.Equal(t, "Weather.Data", d.CatalogName("Weather.Data"))

	assert.Equal(t, "?", d.FormatPlaceholder(3))
	assert.Equal(t, "$3", serverDialect().FormatPlaceholder(3))
}

func TestDialect_Types(t *testing.T) {
	d := warehouseDialect()

	typ, err := d.ColumnType(frame.KindInt)
	require.NoError(t, err)
	assert.Equal(t, "NUMBER(38,0)", typ)

	_, err = d.ColumnType(frame.KindBytes)
	assert.ErrorContains(t, err, "no column type for bytes values")

	kw, err := d.TableTypeKeyword("Transient")
	require.NoError(t, err)
	assert.Equal(t, "TRANSIENT", kw)

	kw, err = d.TableTypeKeyword("")
	require.NoError(t, err)
	assert.Empty(t, kw)
}

func TestTableName(t *testing.T) {
	name := TableName{Database: "meteorology", Schema: "observations", Table: "weather_data"}
	assert.Equal(t, "meteorology.observations.weather_data", name.FullyQualifiedName())
	assert.Equal(t, "meteorology.observations.weather_data", name.String())

	dotted := TableName{Database: "meteorology", Schema: "obs.v2", Table: "weather_data"}
	assert.Equal(t, `meteorology."obs.v2".weather_data`, dotted.SQL(warehouseDialect()))
}
