// Package config provides configuration management for the leapdata CLI.
package config

// Default configuration values.
const (
	DefaultCatalogFile = "catalog.yaml"
	DefaultEnvPrefix   = "LEAPDATA_"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Config holds all CLI configuration options.
type Config struct {
	CatalogPath     string `koanf:"catalog"`
	CredentialsPath string `koanf:"credentials"`
	// JournalPath enables operation history when set.
	JournalPath  string `koanf:"journal"`
	EnvPrefix    string `koanf:"env_prefix"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `koanf:"-"`
}

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		CatalogPath:  DefaultCatalogFile,
		EnvPrefix:    DefaultEnvPrefix,
		OutputFormat: DefaultOutput,
	}
}
