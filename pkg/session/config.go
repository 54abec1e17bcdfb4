package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultBackend is used when a connection configuration names no backend.
const DefaultBackend = "snowflake"

// ConnectionConfig holds the resolved parameters used to open a session.
// Keys that are not fields end up in Params and are passed to the backend
// as session parameters.
type ConnectionConfig struct {
	Backend       string `mapstructure:"backend"`
	Account       string `mapstructure:"account"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Token         string `mapstructure:"token"`
	Authenticator string `mapstructure:"authenticator"`
	Role          string `mapstructure:"role"`
	Warehouse     string `mapstructure:"warehouse"`
	Database      string `mapstructure:"database"`
	Schema        string `mapstructure:"schema"`
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`

	// Path is the database file for embedded backends (empty = in-memory).
	Path string `mapstructure:"path"`

	Params map[string]any `mapstructure:",remain"`
}

// DecodeConnectionConfig decodes a flat credentials mapping.
// The input map is not modified.
func DecodeConnectionConfig(m map[string]any) (ConnectionConfig, error) {
	var cfg ConnectionConfig
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(m); err != nil {
		return cfg, fmt.Errorf("failed to decode connection parameters: %w", err)
	}
	if len(cfg.Params) == 0 {
		cfg.Params = nil
	}
	return cfg, nil
}

// BackendName returns the configured backend, or DefaultBackend.
func (c ConnectionConfig) BackendName() string {
	if c.Backend == "" {
		return DefaultBackend
	}
	return strings.ToLower(c.Backend)
}

// Validate checks the fields every backend needs.
func (c ConnectionConfig) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("connection database is required")
	}
	if c.Schema == "" {
		return fmt.Errorf("connection schema is required")
	}
	return nil
}

// Key identifies the warehouse a session talks to. Secrets are not part of
// it, and neither are database and schema unless includeDatabase is set:
// every statement a session issues is fully qualified.
func (c ConnectionConfig) Key(includeDatabase bool) string {
	parts := []string{
		c.BackendName(),
		strings.ToLower(c.Account),
		strings.ToLower(c.Host),
		strconv.Itoa(c.Port),
		c.Path,
		c.User,
		c.Role,
		c.Warehouse,
		strings.ToLower(c.Authenticator),
	}
	if includeDatabase {
		parts = append(parts, c.Database)
	}
	return strings.Join(parts, "|")
}

// ParamStrings renders Params as strings, the form drivers take them in.
func (c ConnectionConfig) ParamStrings() map[string]string {
	if len(c.Params) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.Params))
	for k, v := range c.Params {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
