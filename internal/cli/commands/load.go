package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdata/pkg/frame"
	"github.com/leapstack-labs/leapdata/pkg/session"
)

// DefaultLoadLimit is the default number of rows load prints.
const DefaultLoadLimit = 20

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "load <dataset>",
		Short: "Load a dataset and print its rows",
		Long: `Load a dataset and print its rows.

Only --limit rows are fetched from the warehouse. Use --limit 0 to print everything.`,
		Example: `  leapdata load weather
  leapdata load weather --limit 100 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultLoadLimit, "Maximum rows to print (0 for all)")
	return cmd
}

func runLoad(cmd *cobra.Command, name string, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	var result *frame.Frame
	err = cmdCtx.record(ctx, name, "load", func() (*int64, error) {
		data, err := cmdCtx.Catalog.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		result, err = collect(ctx, data, limit)
		if err != nil {
			return nil, err
		}
		n := int64(result.Len())
		return &n, nil
	})
	if err != nil {
		return err
	}
	return cmdCtx.Renderer.Table(result.Columns(), result.Rows())
}

// collect materializes at most limit rows of loaded data.
func collect(ctx context.Context, data any, limit int) (*frame.Frame, error) {
	switch d := data.(type) {
	case *session.DataFrame:
		if limit > 0 {
			d = d.Limit(limit)
		}
		return d.Collect(ctx)
	case *frame.Frame:
		if limit > 0 {
			return d.Head(limit), nil
		}
		return d, nil
	default:
		return nil, fmt.Errorf("cannot display loaded data of type %T", data)
	}
}
