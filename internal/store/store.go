// Package store provides the key-value backends used to persist the page theme.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/woozymasta/antipode/internal/config"

	"github.com/rs/zerolog/log"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Store is a string key-value store. Get reports whether the key exists.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open creates the backend selected in the configuration.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	log.Debug().Str("backend", cfg.Backend).Msg("Opening theme store")

	switch cfg.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(cfg.Path)
	case "redis":
		return NewRedis(ctx, cfg.Addr, cfg.Password, cfg.DB)
	case "valkey":
		return NewValkey(cfg.Addr, cfg.Password, cfg.DB)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Memory keeps values in process memory.
type Memory struct {
	data map[string]string
	mu   sync.RWMutex
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value for key.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

// Prefixed scopes every key of a store under a prefix, e.g. a session id.
type Prefixed struct {
	Store  Store
	Prefix string
}

// WithPrefix wraps s so keys become "prefix:key".
func WithPrefix(s Store, prefix string) *Prefixed {
	return &Prefixed{Store: s, Prefix: prefix}
}

func (p *Prefixed) key(k string) string {
	if p.Prefix == "" {
		return k
	}
	return p.Prefix + ":" + k
}

// Get reads the prefixed key.
func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.Store.Get(ctx, p.key(key))
}

// Set writes the prefixed key.
func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.key(key), value)
}

// Close does not close the shared underlying store.
func (p *Prefixed) Close() error { return nil }
