// Package session executes dataframe operations against a SQL warehouse.
//
// A Session wraps a single warehouse connection and hands out lazy
// DataFrames: building one never touches the warehouse, only Collect, Count,
// Columns and the writer do. Sessions are obtained from a Provider; the
// default Pool reuses the active session for a warehouse target.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapdata/pkg/frame"
)

// ErrUnsupportedData is returned by ToDataFrame for values it cannot convert.
var ErrUnsupportedData = errors.New("unsupported data type")

// Session is a connection to one warehouse target.
// It is safe for concurrent use; statements are serialized on its connection.
type Session struct {
	id      string
	db      *sql.DB
	dialect *Dialect
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps an open connection. A nil logger discards output.
func NewSession(db *sql.DB, d *Dialect, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.New().String()
	return &Session{
		id:      id,
		db:      db,
		dialect: d,
		logger:  logger.With("session", id, "backend", d.Name),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Dialect returns the SQL dialect of the backend.
func (s *Session) Dialect() *Dialect { return s.dialect }

// DB returns the underlying connection pool.
func (s *Session) DB() *sql.DB { return s.db }

// Table returns a lazy DataFrame over a table. No query is issued.
func (s *Session) Table(name TableName) *DataFrame {
	return &DataFrame{session: s, kind: sourceTable, table: name, limit: -1}
}

// SQL returns a lazy DataFrame over the result of a query.
func (s *Session) SQL(query string, args ...any) *DataFrame {
	return &DataFrame{session: s, kind: sourceQuery, query: query, args: args, limit: -1}
}

// CreateDataFrame wraps in-memory rows as a DataFrame of this session.
// The rows are copied.
func (s *Session) CreateDataFrame(f *frame.Frame) (*DataFrame, error) {
	if f == nil {
		return nil, fmt.Errorf("cannot create dataframe from nil frame")
	}
	if f.Width() == 0 {
		return nil, fmt.Errorf("cannot create dataframe without columns")
	}
	return &DataFrame{session: s, kind: sourceValues, values: f.Clone(), limit: -1}, nil
}

// ToDataFrame returns data as a DataFrame of this session. DataFrames pass
// through unchanged; frames are converted with CreateDataFrame.
func (s *Session) ToDataFrame(data any) (*DataFrame, error) {
	switch v := data.(type) {
	case *DataFrame:
		if v == nil {
			return nil, fmt.Errorf("cannot save nil dataframe")
		}
		return v, nil
	case *frame.Frame:
		return s.CreateDataFrame(v)
	default:
		return nil, fmt.Errorf("%w %T, expected *session.DataFrame or *frame.Frame", ErrUnsupportedData, data)
	}
}

// TableCount counts catalog entries matching name.
func (s *Session) TableCount(ctx context.Context, name TableName) (int64, error) {
	query, args := s.dialect.TableCountQuery(name)
	s.logger.Debug("counting tables", "table", name.FullyQualifiedName())

	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Exec runs a statement on the session connection.
func (s *Session) Exec(ctx context.Context, query string, args ...any) error {
	s.logger.Debug("executing statement", "sql", query)
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

// Close closes the connection. Further calls return the first result.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.logger.Debug("closing session")
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
