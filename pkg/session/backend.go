package session

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
)

// Backend opens warehouse connections for one driver.
type Backend struct {
	Name    string
	Dialect *Dialect

	// Open returns a connection pool for cfg. Open must not keep cfg's
	// secrets beyond what the driver needs.
	Open func(ctx context.Context, cfg ConnectionConfig) (*sql.DB, error)
}

var (
	backendsMu sync.RWMutex
	backends   = make(map[string]*Backend)
)

// RegisterBackend adds a backend to the registry.
// Called by backend implementations in their init() functions.
func RegisterBackend(b *Backend) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[b.Name] = b
}

// GetBackend retrieves a backend by name.
func GetBackend(name string) (*Backend, bool) {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	b, ok := backends[name]
	return b, ok
}

// ListBackends returns all registered backend names (sorted).
func ListBackends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownBackendError is returned when a connection names an unregistered backend.
type UnknownBackendError struct {
	Name      string
	Available []string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown backend %q\nAvailable backends: %v\nHint: Check the backend key of your credentials", e.Name, e.Available)
}

// lookupBackend resolves the backend named by cfg.
func lookupBackend(cfg ConnectionConfig) (*Backend, error) {
	name := cfg.BackendName()
	b, ok := GetBackend(name)
	if !ok {
		return nil, &UnknownBackendError{Name: name, Available: ListBackends()}
	}
	return b, nil
}

// OpenDB wraps a driver's pool as a session connection: one pinned
// connection, checked with a ping. The pool is closed if the ping fails.
func OpenDB(ctx context.Context, db *sql.DB, backend string) (*sql.DB, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", backend, err)
	}
	return db, nil
}
