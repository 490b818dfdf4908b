// Package backend selects and opens the configured storage implementation.
package backend

import (
	"fmt"

	"flowcast/internal/config"
	"flowcast/internal/storage"
)

// Type names a storage backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{SQLite, Memory}
}

// Open creates the storage backend named in the application config. The
// memory backend starts empty and is meant for tests and local experiments;
// sqlite is the durable default.
func Open(cfg *config.Config) (storage.Store, error) {
	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type %q (valid: %v)", cfg.DataBackend, Types())
	}

	switch t {
	case Memory:
		return storage.NewMemoryStore(), nil
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		return repo, nil
	}
}
