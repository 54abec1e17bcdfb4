package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrJournalDisabled is returned by history when no journal is configured.
var ErrJournalDisabled = errors.New("operation history is disabled\nHint: Set journal in leapdata.yaml or pass --journal")

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent dataset operations",
		Long:  `Show the most recent load, save and exists operations recorded in the journal.`,
		Example: `  leapdata history --journal .leapdata/journal.db
  leapdata history --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum operations to show")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContextWithoutCatalog(cmd)
	if cmdCtx.Cfg.JournalPath == "" {
		return ErrJournalDisabled
	}

	store, err := openJournal(cmd.Context(), cmdCtx.Cfg.JournalPath, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ops, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}

	cols := []string{"id", "dataset", "operation", "status", "rows", "duration", "started_at", "error"}
	rows := make([][]any, 0, len(ops))
	for _, op := range ops {
		var n, duration any
		if op.Rows != nil {
			n = *op.Rows
		}
		if op.FinishedAt != nil {
			duration = op.Duration().String()
		}
		var errMsg any
		if op.Error != "" {
			errMsg = op.Error
		}
		rows = append(rows, []any{op.ID, op.Dataset, op.Operation, string(op.Status), n, duration, op.StartedAt, errMsg})
	}
	return cmdCtx.Renderer.Table(cols, rows)
}
