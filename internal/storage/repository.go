// Package storage contains storage-agnostic contracts and utilities: the
// Repository interface every backend implements, a kind→factory registry,
// DDL bootstrap and the batched loader.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal write surface the pipeline needs from a backend.
type Repository interface {
	// CopyFrom inserts rows aligned to columns and reports how many were
	// written. One call is one committed chunk.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// DeleteWhere removes rows whose columns equal values (AND-ed) and
	// reports how many were removed.
	DeleteWhere(ctx context.Context, columns []string, values []any) (int64, error)

	// Exec runs a raw statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	Close()
}

// Config is the backend-neutral repository configuration.
type Config struct {
	Kind  string
	DSN   string
	Table string

	// Columns is the ordered destination column list used by CopyFrom.
	Columns []string
	// KeyColumns identify the rows owned by one input file; used for purge.
	KeyColumns []string
	// Schema drives CREATE TABLE when auto-creation is enabled.
	Schema []Column

	// Engine tuning. Backends that do not support a knob ignore it.
	Threads     int
	MemoryLimit string
	TempDir     string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds (or replaces) the factory for kind. Backends call it from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
