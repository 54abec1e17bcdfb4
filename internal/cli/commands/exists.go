package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdata/internal/cli/output"
)

// NewExistsCommand creates the exists command.
func NewExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <dataset>",
		Short: "Check whether a dataset's table exists",
		Example: `  leapdata exists weather
  leapdata exists weather -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExists(cmd, args[0])
		},
	}
}

func runExists(cmd *cobra.Command, name string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	var exists bool
	err = cmdCtx.record(ctx, name, "exists", func() (*int64, error) {
		var err error
		exists, err = cmdCtx.Catalog.Exists(ctx, name)
		return nil, err
	})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(map[string]any{"dataset": name, "exists": exists})
	case output.ModeYAML:
		return r.YAML(map[string]any{"dataset": name, "exists": exists})
	}
	if exists {
		r.Success(fmt.Sprintf("%s exists", name))
	} else {
		r.Muted(fmt.Sprintf("%s does not exist", name))
	}
	return nil
}
