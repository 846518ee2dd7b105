// Package postgres implements a Postgres repository using pgx v5. Chunks go
// through the COPY protocol directly into the target table; one COPY is one
// statement, so a chunk commits or fails as a unit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tripetl/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN     string   // connection string for pgxpool
	Table   string   // optionally schema-qualified, e.g. "public.journey_legs"
	Columns []string // ordered columns for COPY
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, func() { pool.Close() }, nil
}

// CopyFrom streams rows into the target table with COPY.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, describe("copy", err)
	}
	return n, nil
}

// DeleteWhere removes rows matching all column = value pairs.
func (r *Repository) DeleteWhere(ctx context.Context, columns []string, values []any) (int64, error) {
	q, err := storage.BuildDelete(r.cfg.Table, columns, pgIdent, dollar)
	if err != nil {
		return 0, fmt.Errorf("postgres: %w", err)
	}
	tag, err := r.pool.Exec(ctx, q, values...)
	if err != nil {
		return 0, describe("delete", err)
	}
	return tag.RowsAffected(), nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return describe("exec", err)
	}
	return nil
}

// describe surfaces the server-side detail of a PgError when present.
func describe(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("postgres: %s: %s (%s): %w", op, pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return storage.DoubleQuote(id) }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// MapType maps logical column types to Postgres types.
func MapType(logical string) string {
	switch logical {
	case storage.TypeInt:
		return "bigint"
	case storage.TypeTimestamp:
		return "timestamptz"
	default:
		return "text"
	}
}
