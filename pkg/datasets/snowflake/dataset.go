// Package snowflake provides a dataset that reads and writes Snowflake tables
// through warehouse sessions.
//
// A catalog entry names the table and, optionally, the database and schema;
// whatever is missing is taken from the credentials:
//
//	weather:
//	  type: snowflake.SnowparkDataset
//	  table_name: weather_data
//	  credentials: snowflake_client
//	  save_args:
//	    mode: overwrite
//	    column_order: name
package snowflake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	_ "github.com/leapstack-labs/leapdata/pkg/backends/snowflake" // default session backend
	"github.com/leapstack-labs/leapdata/pkg/dataset"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

// TypeName is the catalog type of SnowparkDataset.
const TypeName = "snowflake.SnowparkDataset"

// Option configures a SnowparkDataset.
type Option func(*options)

type options struct {
	provider session.Provider
	logger   *slog.Logger
}

// WithProvider sets where sessions come from. The default is session.DefaultPool().
func WithProvider(p session.Provider) Option {
	return func(o *options) {
		if p != nil {
			o.provider = p
		}
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// SnowparkDataset loads a table as a lazy DataFrame and saves DataFrames or
// in-memory frames to it.
//
// It cannot be shared with forked worker processes; goroutines may share it.
type SnowparkDataset struct {
	table    session.TableName
	loadArgs map[string]any
	saveArgs map[string]any
	conn     session.ConnectionConfig
	session  *session.Session
	logger   *slog.Logger
}

var _ dataset.Dataset[any, *session.DataFrame] = (*SnowparkDataset)(nil)

// New validates p, then obtains a session for the resolved connection.
// Configuration errors are returned before any session is requested.
func New(ctx context.Context, p Params, opts ...Option) (*SnowparkDataset, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	r, err := resolve(p)
	if err != nil {
		return nil, err
	}
	conn, err := session.DecodeConnectionConfig(r.connection)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dataset.ErrInvalidConfig, err)
	}

	if o.provider == nil {
		o.provider = session.DefaultPool()
	}
	s, err := o.provider.Session(ctx, conn)
	if err != nil {
		return nil, err
	}

	return &SnowparkDataset{
		table:    r.table,
		loadArgs: r.loadArgs,
		saveArgs: r.saveArgs,
		conn:     conn,
		session:  s,
		logger:   o.logger.With("dataset", r.table.FullyQualifiedName()),
	}, nil
}

// FromConfig builds a dataset from a catalog entry.
func FromConfig(ctx context.Context, cfg map[string]any, opts ...Option) (*SnowparkDataset, error) {
	p, err := decodeParams(cfg)
	if err != nil {
		return nil, err
	}
	return New(ctx, p, opts...)
}

// Factory returns a registry factory building SnowparkDatasets with the
// given provider and logger.
func Factory(provider session.Provider, logger *slog.Logger) dataset.Factory {
	return func(ctx context.Context, cfg map[string]any) (dataset.Any, error) {
		d, err := FromConfig(ctx, cfg, WithProvider(provider), WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return dataset.Erase[any, *session.DataFrame](d), nil
	}
}

// Register adds the dataset type to r.
func Register(r *dataset.Registry, provider session.Provider, logger *slog.Logger) {
	r.Register(TypeName, Factory(provider, logger))
}

// Load returns a lazy DataFrame over the table. No query is issued.
func (d *SnowparkDataset) Load(_ context.Context) (*session.DataFrame, error) {
	d.logger.Debug("loading table")
	return d.session.Table(d.table), nil
}

// Save writes data to the table using the dataset's save arguments.
// data must be a *session.DataFrame or a *frame.Frame.
func (d *SnowparkDataset) Save(ctx context.Context, data any) error {
	df, err := d.session.ToDataFrame(data)
	if errors.Is(err, session.ErrUnsupportedData) {
		return &dataset.InputTypeError{Want: "*session.DataFrame or *frame.Frame", Got: fmt.Sprintf("%T", data)}
	}
	if err != nil {
		return err
	}

	d.logger.Debug("saving table", "save_args", d.saveArgs)
	return df.Write().SaveAsTable(ctx, d.table, d.saveArgs)
}

// Exists reports whether the catalog lists exactly one table with the
// dataset's name.
func (d *SnowparkDataset) Exists(ctx context.Context) (bool, error) {
	n, err := d.session.TableCount(ctx, d.table)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Describe returns the table identity.
func (d *SnowparkDataset) Describe() map[string]any {
	return map[string]any{
		"table_name": d.table.Table,
		"database":   d.table.Database,
		"schema":     d.table.Schema,
	}
}

// SingleProcess reports that the dataset's session cannot cross a fork.
func (d *SnowparkDataset) SingleProcess() bool { return true }

// TableName returns the resolved table identity.
func (d *SnowparkDataset) TableName() session.TableName { return d.table }

// Session returns the session the dataset uses.
func (d *SnowparkDataset) Session() *session.Session { return d.session }

// ConnectionConfig returns the resolved connection configuration.
func (d *SnowparkDataset) ConnectionConfig() session.ConnectionConfig { return d.conn }

// LoadArgs returns a copy of the load arguments.
func (d *SnowparkDataset) LoadArgs() map[string]any { return maps.Clone(d.loadArgs) }

// SaveArgs returns a copy of the save arguments.
func (d *SnowparkDataset) SaveArgs() map[string]any { return maps.Clone(d.saveArgs) }

func (d *SnowparkDataset) String() string {
	return fmt.Sprintf("SnowparkDataset(database=%s, schema=%s, table_name=%s)", d.table.Database, d.table.Schema, d.table.Table)
}
