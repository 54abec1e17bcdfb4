// Package catalog loads named dataset definitions from YAML and instantiates
// them on demand.
//
// A catalog file maps dataset names to entries. Each entry has a "type"
// naming a registered dataset factory; the remaining keys configure it.
// "credentials" may name an entry of the credentials file or be written
// inline. Top-level keys starting with "_" are ignored so they can hold
// YAML anchors.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/leapdata/pkg/dataset"
)

// Options configures Load.
type Options struct {
	// CatalogPath is the catalog file. Defaults to DefaultCatalogFile.
	CatalogPath string

	// CredentialsPath is the credentials file. When empty,
	// DefaultCredentialsFile is used if it exists.
	CredentialsPath string

	// EnvPrefix prefixes credential environment overrides.
	// Defaults to DefaultEnvPrefix.
	EnvPrefix string

	// Registry resolves entry types to factories.
	Registry *dataset.Registry

	Logger *slog.Logger
}

// Entry is one dataset definition with credentials resolved.
type Entry struct {
	Name string
	Type string

	// CredentialsName is set when the entry referenced named credentials.
	CredentialsName string

	// Config is passed to the dataset factory.
	Config map[string]any
}

// Catalog holds dataset definitions and the datasets created from them.
type Catalog struct {
	entries  map[string]Entry
	registry *dataset.Registry
	logger   *slog.Logger

	mu       sync.Mutex
	datasets map[string]dataset.Any
	group    singleflight.Group
}

// NotFoundError is returned for names the catalog does not define.
type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataset %q not found in catalog\nAvailable datasets: %v", e.Name, e.Available)
}

// Load reads the catalog and credentials files.
func Load(opts Options) (*Catalog, error) {
	if opts.CatalogPath == "" {
		opts.CatalogPath = DefaultCatalogFile
	}
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = DefaultEnvPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Registry == nil {
		opts.Registry = dataset.NewRegistry()
	}

	raw, err := loadCatalogFile(opts.CatalogPath)
	if err != nil {
		return nil, err
	}

	credsPath, required := opts.CredentialsPath, opts.CredentialsPath != ""
	if credsPath == "" {
		credsPath = DefaultCredentialsFile
	}
	creds, err := loadCredentials(credsPath, required, opts.EnvPrefix)
	if err != nil {
		return nil, err
	}

	entries, err := parseEntries(raw, creds)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("catalog loaded",
		slog.String("path", opts.CatalogPath),
		slog.Int("datasets", len(entries)),
		slog.Int("credentials", len(creds)))

	return New(entries, opts.Registry, opts.Logger), nil
}

// New creates a catalog from already parsed entries.
func New(entries []Entry, registry *dataset.Registry, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Catalog{
		entries:  make(map[string]Entry, len(entries)),
		registry: registry,
		logger:   logger,
		datasets: make(map[string]dataset.Any),
	}
	for _, e := range entries {
		c.entries[e.Name] = e
	}
	return c
}

func parseEntries(raw, creds map[string]any) ([]Entry, error) {
	var entries []Entry
	for _, name := range slices.Sorted(maps.Keys(raw)) {
		if strings.HasPrefix(name, "_") {
			continue
		}
		cfg, ok := raw[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("dataset %q: entry must be a mapping", name)
		}
		entry, err := parseEntry(name, cfg, creds)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(name string, cfg map[string]any, creds map[string]any) (Entry, error) {
	typ, _ := cfg["type"].(string)
	if typ == "" {
		return Entry{}, fmt.Errorf("dataset %q: missing type", name)
	}

	entry := Entry{Name: name, Type: typ, Config: maps.Clone(cfg)}
	delete(entry.Config, "type")

	switch c := cfg["credentials"].(type) {
	case nil:
	case string:
		resolved, ok := creds[c].(map[string]any)
		if !ok {
			return Entry{}, fmt.Errorf("dataset %q: unknown credentials %q", name, c)
		}
		entry.CredentialsName = c
		entry.Config["credentials"] = expandValues(resolved)
	case map[string]any:
		entry.Config["credentials"] = expandValues(c)
	default:
		return Entry{}, fmt.Errorf("dataset %q: credentials must be a name or a mapping, got %T", name, c)
	}
	return entry, nil
}

// Names returns the dataset names (sorted).
func (c *Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Entry returns the definition of a dataset.
func (c *Catalog) Entry(name string) (Entry, error) {
	e, ok := c.entries[name]
	if !ok {
		return Entry{}, &NotFoundError{Name: name, Available: c.Names()}
	}
	return e, nil
}

// Describe summarizes a definition without secrets: its type, the named
// credentials it uses and its remaining configuration.
func (c *Catalog) Describe(name string) (map[string]any, error) {
	e, err := c.Entry(name)
	if err != nil {
		return nil, err
	}
	out := maps.Clone(e.Config)
	delete(out, "credentials")
	out["type"] = e.Type
	if e.CredentialsName != "" {
		out["credentials"] = e.CredentialsName
	}
	return out, nil
}

// Dataset returns the dataset for name, creating it on first use.
func (c *Catalog) Dataset(ctx context.Context, name string) (dataset.Any, error) {
	e, err := c.Entry(name)
	if err != nil {
		return nil, err
	}

	if ds := c.cached(name); ds != nil {
		return ds, nil
	}

	// Datasets open warehouse sessions; only callers of the same name wait.
	v, err, _ := c.group.Do(name, func() (any, error) {
		if ds := c.cached(name); ds != nil {
			return ds, nil
		}
		c.logger.Debug("creating dataset", slog.String("name", name), slog.String("type", e.Type))
		ds, err := c.registry.New(ctx, e.Type, maps.Clone(e.Config))
		if err != nil {
			return nil, fmt.Errorf("failed to create dataset %q: %w", name, err)
		}
		c.mu.Lock()
		c.datasets[name] = ds
		c.mu.Unlock()
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(dataset.Any), nil
}

func (c *Catalog) cached(name string) dataset.Any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.datasets[name]
}

// DatasetWith creates an uncached dataset for name with top-level
// configuration keys replaced by overrides.
func (c *Catalog) DatasetWith(ctx context.Context, name string, overrides map[string]any) (dataset.Any, error) {
	e, err := c.Entry(name)
	if err != nil {
		return nil, err
	}
	cfg := maps.Clone(e.Config)
	maps.Copy(cfg, overrides)

	ds, err := c.registry.New(ctx, e.Type, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %q: %w", name, err)
	}
	return ds, nil
}

// Load loads the named dataset.
func (c *Catalog) Load(ctx context.Context, name string) (any, error) {
	ds, err := c.Dataset(ctx, name)
	if err != nil {
		return nil, err
	}
	return ds.Load(ctx)
}

// Save saves data to the named dataset.
func (c *Catalog) Save(ctx context.Context, name string, data any) error {
	ds, err := c.Dataset(ctx, name)
	if err != nil {
		return err
	}
	return ds.Save(ctx, data)
}

// Exists reports whether the named dataset's data exists.
func (c *Catalog) Exists(ctx context.Context, name string) (bool, error) {
	ds, err := c.Dataset(ctx, name)
	if err != nil {
		return false, err
	}
	return ds.Exists(ctx)
}
