// Package journal records dataset operations in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Status is the state of a journaled operation.
type Status string

// Operation statuses.
const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Operation is one journaled dataset operation.
type Operation struct {
	ID         string
	Dataset    string
	Operation  string
	Status     Status
	Rows       *int64
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration returns how long the operation ran, or zero while it is running.
func (o *Operation) Duration() time.Duration {
	if o.FinishedAt == nil {
		return 0
	}
	return o.FinishedAt.Sub(o.StartedAt)
}

// Store is the SQLite-backed journal.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a journal store. A nil logger discards output.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger, now: time.Now}
}

// Open opens the journal database. Use ":memory:" for an in-memory journal.
func (s *Store) Open(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}
	// An in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping journal database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the journal database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path passed to Open.
func (s *Store) Path() string { return s.path }

// Start records a running operation and returns it.
func (s *Store) Start(ctx context.Context, datasetName, operation string) (*Operation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	op := &Operation{
		ID:        uuid.New().String(),
		Dataset:   datasetName,
		Operation: operation,
		Status:    StatusRunning,
		StartedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	s.logger.Debug("starting operation", slog.String("id", op.ID), slog.String("dataset", datasetName), slog.String("operation", operation))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operations (id, dataset, operation, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		op.ID, op.Dataset, op.Operation, string(op.Status), op.StartedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to record operation: %w", err)
	}
	return op, nil
}

// Finish marks an operation finished. A nil opErr marks it succeeded.
// rows may be nil when the operation has no row count.
func (s *Store) Finish(ctx context.Context, op *Operation, rows *int64, opErr error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	finished := s.now().UTC().Truncate(time.Millisecond)
	op.FinishedAt = &finished
	op.Rows = rows
	op.Status = StatusSucceeded
	var errMsg *string
	if opErr != nil {
		op.Status = StatusFailed
		op.Error = opErr.Error()
		errMsg = &op.Error
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE operations SET status = ?, row_count = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(op.Status), rows, errMsg, finished.UnixMilli(), op.ID)
	if err != nil {
		return fmt.Errorf("failed to finish operation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("operation not found: %s", op.ID)
	}
	return nil
}

const selectOperations = `SELECT id, dataset, operation, status, row_count, error, started_at, finished_at FROM operations`

// Recent returns the latest operations, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Operation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, selectOperations+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ops []Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, *op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operations: %w", err)
	}
	return ops, nil
}

// Get returns one operation by ID.
func (s *Store) Get(ctx context.Context, id string) (*Operation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	op, err := scanOperation(s.db.QueryRowContext(ctx, selectOperations+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("operation not found: %s", id)
	}
	return op, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(row scanner) (*Operation, error) {
	var (
		op       Operation
		status   string
		count    sql.NullInt64
		errMsg   sql.NullString
		started  int64
		finished sql.NullInt64
	)
	if err := row.Scan(&op.ID, &op.Dataset, &op.Operation, &status, &count, &errMsg, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan operation: %w", err)
	}
	op.Status = Status(status)
	op.Error = errMsg.String
	op.StartedAt = time.UnixMilli(started).UTC()
	if count.Valid {
		op.Rows = &count.Int64
	}
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		op.FinishedAt = &t
	}
	return &op, nil
}
