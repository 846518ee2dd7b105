package duckdb

import (
	"context"

	"tripetl/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("duckdb", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			Path:        cfg.DSN,
			Table:       cfg.Table,
			Columns:     cfg.Columns,
			Threads:     cfg.Threads,
			MemoryLimit: cfg.MemoryLimit,
			TempDir:     cfg.TempDir,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("duckdb", storage.SimpleDDL(storage.DoubleQuote, MapType))
}
