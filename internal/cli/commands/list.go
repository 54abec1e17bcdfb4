package commands

import (
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog datasets",
		Long: `List every dataset defined in the catalog with its type and credentials.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown table (agent-friendly)

Use --output to override: auto, text, markdown, json, yaml`,
		Example: `  # List datasets
  leapdata list

  # List datasets from another catalog as JSON
  leapdata list --catalog conf/base/catalog.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd)
		},
	}
}

func runList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	names := cmdCtx.Catalog.Names()
	rows := make([][]any, 0, len(names))
	for _, name := range names {
		e, err := cmdCtx.Catalog.Entry(name)
		if err != nil {
			return err
		}
		var creds any
		if e.CredentialsName != "" {
			creds = e.CredentialsName
		} else if _, ok := e.Config["credentials"]; ok {
			creds = "(inline)"
		}
		rows = append(rows, []any{name, e.Type, creds})
	}
	return cmdCtx.Renderer.Table([]string{"name", "type", "credentials"}, rows)
}
