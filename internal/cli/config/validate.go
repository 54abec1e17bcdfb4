package config

import (
	"fmt"
	"slices"
)

// OutputModes lists the accepted values of the output setting.
var OutputModes = []string{"auto", "text", "markdown", "json", "yaml"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("catalog path is required")
	}
	if !slices.Contains(OutputModes, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q\nHint: Use one of %v", c.OutputFormat, OutputModes)
	}
	return nil
}
