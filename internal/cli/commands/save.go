package commands

import (
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdata/internal/cli/input"
	"github.com/leapstack-labs/leapdata/internal/cli/output"
	"github.com/leapstack-labs/leapdata/pkg/dataset"
	"github.com/leapstack-labs/leapdata/pkg/frame"
)

// NewSaveCommand creates the save command.
func NewSaveCommand() *cobra.Command {
	var (
		inputPath string
		mode      string
	)

	cmd := &cobra.Command{
		Use:   "save <dataset>",
		Short: "Save a local file to a dataset",
		Long: `Save a CSV or Parquet file to a dataset's table.

The dataset's save_args apply; --mode overrides their mode.
Modes: errorifexists, append, overwrite, ignore, truncate.`,
		Example: `  leapdata save weather --input weather.csv
  leapdata save weather --input weather.parquet --mode overwrite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(cmd, args[0], inputPath, mode)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "CSV or Parquet file to save")
	cmd.Flags().StringVar(&mode, "mode", "", "Save mode overriding the dataset's save_args")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"errorifexists", "append", "overwrite", "ignore", "truncate"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runSave(cmd *cobra.Command, name, inputPath, mode string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := input.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inputPath, err)
	}

	ctx := cmd.Context()
	ds, err := saveTarget(cmd, cmdCtx, name, mode)
	if err != nil {
		return err
	}

	err = cmdCtx.record(ctx, name, "save", func() (*int64, error) {
		n := int64(data.Len())
		return &n, ds.Save(ctx, data)
	})
	if err != nil {
		return err
	}
	return renderSaved(cmdCtx.Renderer, name, data, mode)
}

// saveTarget returns the catalog dataset, derived with the mode override if one is given.
func saveTarget(cmd *cobra.Command, cmdCtx *CommandContext, name, mode string) (dataset.Any, error) {
	if mode == "" {
		return cmdCtx.Catalog.Dataset(cmd.Context(), name)
	}

	e, err := cmdCtx.Catalog.Entry(name)
	if err != nil {
		return nil, err
	}
	saveArgs := map[string]any{}
	if existing, ok := e.Config["save_args"].(map[string]any); ok {
		saveArgs = maps.Clone(existing)
	}
	saveArgs["mode"] = mode
	return cmdCtx.Catalog.DatasetWith(cmd.Context(), name, map[string]any{"save_args": saveArgs})
}

func renderSaved(r *output.Renderer, name string, data *frame.Frame, mode string) error {
	result := map[string]any{"dataset": name, "rows": data.Len()}
	if mode != "" {
		result["mode"] = mode
	}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(result)
	case output.ModeYAML:
		return r.YAML(result)
	}
	r.Success(fmt.Sprintf("saved %d rows to %s", data.Len(), name))
	return nil
}
