package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdata/internal/catalog"
	"github.com/leapstack-labs/leapdata/internal/cli/config"
	"github.com/leapstack-labs/leapdata/internal/cli/output"
	"github.com/leapstack-labs/leapdata/internal/journal"
	"github.com/leapstack-labs/leapdata/pkg/dataset"
	"github.com/leapstack-labs/leapdata/pkg/datasets/snowflake"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Catalog  *catalog.Catalog

	// Journal is nil when no journal path is configured.
	Journal *journal.Store
}

// NewCommandContext loads the catalog and opens the journal.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutCatalog(cmd)
	cfg, logger := cmdCtx.Cfg, cmdCtx.Logger

	pool := session.NewPool(session.WithPoolLogger(logger))
	registry := dataset.NewRegistry()
	snowflake.Register(registry, pool, logger)

	cat, err := catalog.Load(catalog.Options{
		CatalogPath:     cfg.CatalogPath,
		CredentialsPath: cfg.CredentialsPath,
		EnvPrefix:       cfg.EnvPrefix,
		Registry:        registry,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Catalog = cat

	if cfg.JournalPath != "" {
		store, err := openJournal(cmd.Context(), cfg.JournalPath, logger)
		if err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		cmdCtx.Journal = store
	}

	cleanup := func() {
		if err := pool.Close(); err != nil {
			logger.Warn("failed to close sessions", slog.String("error", err.Error()))
		}
		if cmdCtx.Journal != nil {
			_ = cmdCtx.Journal.Close()
		}
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutCatalog creates a CommandContext without a catalog.
// Useful for commands that don't touch datasets.
func NewCommandContextWithoutCatalog(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

func openJournal(ctx context.Context, path string, logger *slog.Logger) (*journal.Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	store := journal.NewStore(logger)
	if err := store.Open(ctx, path); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	if version, err := store.MigrationVersion(ctx); err == nil {
		logger.Debug("journal ready", slog.String("path", path), slog.Int64("schema_version", version))
	}
	return store, nil
}

// record runs fn and journals it when a journal is open. Journal failures
// are logged and never fail the operation itself.
func (c *CommandContext) record(ctx context.Context, name, operation string, fn func() (*int64, error)) error {
	if c.Journal == nil {
		_, err := fn()
		return err
	}

	op, err := c.Journal.Start(ctx, name, operation)
	if err != nil {
		c.Logger.Warn("failed to journal operation", slog.String("dataset", name), slog.String("error", err.Error()))
		_, err := fn()
		return err
	}

	rows, opErr := fn()
	if err := c.Journal.Finish(ctx, op, rows, opErr); err != nil {
		c.Logger.Warn("failed to finish journal entry", slog.String("id", op.ID), slog.String("error", err.Error()))
	}
	return opErr
}
