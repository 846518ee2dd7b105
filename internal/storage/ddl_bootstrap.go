package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates the destination table described by cfg.Schema
// through repo.Exec. Backends register one per kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, cfg Config) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable runs the bootstrapper registered for cfg.Kind.
func EnsureTable(ctx context.Context, cfg Config, repo Repository) error {
	ddlMu.RLock()
	fn, ok := ddlFns[cfg.Kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", cfg.Kind)
	}
	return fn(ctx, repo, cfg)
}

// SimpleDDL builds a bootstrapper that renders BuildCreateTable with the
// given quoting and type mapping and applies it via Exec.
func SimpleDDL(quote Quoter, typeOf TypeMapper) DDLBootstrapper {
	return func(ctx context.Context, repo Repository, cfg Config) error {
		stmt, err := BuildCreateTable(cfg.Table, cfg.Schema, quote, typeOf)
		if err != nil {
			return err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply DDL: %w", err)
		}
		return nil
	}
}
