// Package store persists the solved puzzle between requests and restarts.
//
// A store holds one record under a fixed key: the most recent puzzle.Entry.
// Backends: redis (shared across replicas), sqlite (single host, survives
// restarts without a server) and memory (tests, throwaway runs).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lottawords/internal/puzzle"
)

// DefaultKey is the cache key used when none is configured.
const DefaultKey = "puzzle_data"

// ErrUnknownBackend is returned by Open for an unrecognised backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Store is a single-record puzzle cache.
type Store interface {
	// Get returns the cached entry, or nil when nothing is cached.
	Get(ctx context.Context) (*puzzle.Entry, error)
	// Set replaces the cached entry.
	Set(ctx context.Context, e *puzzle.Entry) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend      string // redis, sqlite, memory
	RedisURL     string
	Key          string
	DatabasePath string
}

// Open builds the backend named by opts.Backend.
func Open(opts Options) (Store, error) {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	switch opts.Backend {
	case "redis":
		return NewRedisStore(opts.RedisURL, key)
	case "sqlite":
		return NewSQLiteStore(opts.DatabasePath, key)
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

func encode(e *puzzle.Entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*puzzle.Entry, error) {
	var e puzzle.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &e, nil
}
