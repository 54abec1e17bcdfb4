package commands

import (
	"github.com/spf13/cobra"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <dataset>",
		Short: "Show a dataset's configuration",
		Long:  `Show a dataset's configuration as defined in the catalog. Credential values are never printed.`,
		Example: `  leapdata describe weather
  leapdata describe weather -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			desc, err := cmdCtx.Catalog.Describe(args[0])
			if err != nil {
				return err
			}
			return cmdCtx.Renderer.KeyValues(args[0], desc)
		},
	}
}
