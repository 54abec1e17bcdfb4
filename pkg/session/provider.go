package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Provider returns a session for a connection configuration.
type Provider interface {
	Session(ctx context.Context, cfg ConnectionConfig) (*Session, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, cfg ConnectionConfig) (*Session, error)

// Session calls f(ctx, cfg).
func (f ProviderFunc) Session(ctx context.Context, cfg ConnectionConfig) (*Session, error) {
	return f(ctx, cfg)
}

// Opener opens a connection for a backend.
type Opener func(ctx context.Context, b *Backend, cfg ConnectionConfig) (*sql.DB, error)

func defaultOpener(ctx context.Context, b *Backend, cfg ConnectionConfig) (*sql.DB, error) {
	return b.Open(ctx, cfg)
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger of the pool and its sessions.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithOpener replaces how connections are opened.
func WithOpener(open Opener) PoolOption {
	return func(p *Pool) {
		if open != nil {
			p.open = open
		}
	}
}

// Pool keeps one active session per warehouse target and hands it to every
// caller asking for that target. Concurrent first requests for a target
// share a single open.
type Pool struct {
	mu       sync.Mutex
	sessions map[string]*Session
	group    singleflight.Group
	open     Opener
	logger   *slog.Logger
}

// NewPool creates an empty pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		sessions: make(map[string]*Session),
		open:     defaultOpener,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	defaultPoolOnce sync.Once
	defaultPool     *Pool
)

// DefaultPool returns the process-wide pool used when no provider is given.
func DefaultPool() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool()
	})
	return defaultPool
}

func (p *Pool) key(cfg ConnectionConfig) (string, *Backend, error) {
	b, err := lookupBackend(cfg)
	if err != nil {
		return "", nil, err
	}
	return cfg.Key(!b.Dialect.CrossDatabase), b, nil
}

// Session returns the active session for cfg's target, opening one if none exists.
func (p *Pool) Session(ctx context.Context, cfg ConnectionConfig) (*Session, error) {
	key, b, err := p.key(cfg)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("trying to reuse active session", "backend", b.Name)
	if s := p.lookup(key); s != nil {
		return s, nil
	}

	v, err, _ := p.group.Do(key, func() (any, error) {
		if s := p.lookup(key); s != nil {
			return s, nil
		}
		p.logger.Debug("no active session found, creating", "backend", b.Name)

		db, err := p.open(ctx, b, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s session: %w", b.Name, err)
		}
		s := NewSession(db, b.Dialect, p.logger)

		p.mu.Lock()
		p.sessions[key] = s
		p.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (p *Pool) lookup(key string) *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessions[key]
}

// active returns the active session for cfg's target without opening one.
func (p *Pool) active(cfg ConnectionConfig) (*Session, bool) {
	key, _, err := p.key(cfg)
	if err != nil {
		return nil, false
	}
	s := p.lookup(key)
	return s, s != nil
}

// Len returns the number of active sessions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Close closes every active session and empties the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[string]*Session)
	p.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
