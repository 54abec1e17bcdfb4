package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default file names and environment prefix.
const (
	DefaultCatalogFile     = "catalog.yaml"
	DefaultCredentialsFile = "credentials.yaml"
	DefaultEnvPrefix       = "LEAPDATA_"
)

// delim separates nested koanf keys. Dataset and credential names may
// contain dots, so "." cannot be used.
const delim = "::"

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// loadCatalogFile reads the catalog mapping of dataset name to entry.
func loadCatalogFile(path string) (map[string]any, error) {
	k := koanf.New(delim)
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading catalog file %s: %w", path, err)
	}
	return k.Raw(), nil
}

// loadCredentials reads the credentials file, then applies environment
// overrides of the form <prefix>CREDENTIALS__<NAME>__<KEY>=value.
// A missing file is only an error when required is set.
func loadCredentials(path string, required bool, envPrefix string) (map[string]any, error) {
	k := koanf.New(delim)

	switch {
	case path != "" && fileExists(path):
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading credentials file %s: %w", path, err)
		}
	case required:
		return nil, fmt.Errorf("credentials file %s not found", path)
	}

	prefix := envPrefix + "CREDENTIALS__"
	if err := k.Load(env.Provider(prefix, delim, func(s string) string {
		parts := strings.SplitN(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return ""
		}
		return parts[0] + delim + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load credential env vars: %w", err)
	}

	creds := k.Raw()
	for name, v := range creds {
		if _, ok := v.(map[string]any); !ok {
			return nil, fmt.Errorf("credentials %q must be a mapping", name)
		}
	}
	return creds, nil
}

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// expandValues returns a copy of m with ${VAR} expanded in every string,
// including those in nested mappings and lists.
func expandValues(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = expandValue(v)
	}
	return out
}

func expandValue(v any) any {
	switch t := v.(type) {
	case string:
		return expandEnvVars(t)
	case map[string]any:
		return expandValues(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = expandValue(e)
		}
		return out
	default:
		return v
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
