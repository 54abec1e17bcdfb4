package snowflake

import (
	"fmt"
	"maps"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapdata/pkg/dataset"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

// Params configures a SnowparkDataset. Database and Schema, when set, take
// precedence over the values in Credentials.
type Params struct {
	TableName   string         `mapstructure:"table_name"`
	Schema      string         `mapstructure:"schema"`
	Database    string         `mapstructure:"database"`
	LoadArgs    map[string]any `mapstructure:"load_args"`
	SaveArgs    map[string]any `mapstructure:"save_args"`
	Credentials map[string]any `mapstructure:"credentials"`
}

// Default load and save arguments. Caller arguments are merged over copies.
var (
	DefaultLoadArgs = map[string]any{}
	DefaultSaveArgs = map[string]any{}
)

// resolved is the validated, immutable form of Params.
type resolved struct {
	table    session.TableName
	loadArgs map[string]any
	saveArgs map[string]any

	// connection is a new mapping: the credentials with database and
	// schema replaced by the resolved values.
	connection map[string]any
}

// resolve validates p. The caller's maps are never modified or retained.
func resolve(p Params) (resolved, error) {
	if p.TableName == "" {
		return resolved{}, &dataset.ConfigError{Field: "table_name", Message: "'table_name' argument cannot be empty."}
	}
	if len(p.Credentials) == 0 {
		return resolved{}, &dataset.ConfigError{Field: "credentials", Message: "'credentials' argument cannot be empty."}
	}

	database := firstNonEmpty(p.Database, credential(p.Credentials, "database"))
	if database == "" {
		return resolved{}, &dataset.ConfigError{Field: "database", Message: "'database' must be provided by credentials or dataset."}
	}
	schema := firstNonEmpty(p.Schema, credential(p.Credentials, "schema"))
	if schema == "" {
		return resolved{}, &dataset.ConfigError{Field: "schema", Message: "'schema' must be provided by credentials or dataset."}
	}

	conn := maps.Clone(p.Credentials)
	conn["database"] = database
	conn["schema"] = schema

	return resolved{
		table:      session.TableName{Database: database, Schema: schema, Table: p.TableName},
		loadArgs:   mergeArgs(DefaultLoadArgs, p.LoadArgs),
		saveArgs:   mergeArgs(DefaultSaveArgs, p.SaveArgs),
		connection: conn,
	}, nil
}

// credential returns a credentials entry as a string, "" when absent or nil.
func credential(creds map[string]any, key string) string {
	v, ok := creds[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func mergeArgs(defaults, args map[string]any) map[string]any {
	out := maps.Clone(defaults)
	if out == nil {
		out = make(map[string]any, len(args))
	}
	maps.Copy(out, args)
	return out
}

// decodeParams decodes a catalog entry. The "type" key is ignored; any other
// unknown key is an error.
func decodeParams(cfg map[string]any) (Params, error) {
	var p Params
	entry := maps.Clone(cfg)
	delete(entry, "type")

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(entry); err != nil {
		return p, fmt.Errorf("%w: %w", dataset.ErrInvalidConfig, err)
	}
	return p, nil
}
