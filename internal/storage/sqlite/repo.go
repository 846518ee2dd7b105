// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc driver. Chunks are written as
// prepared INSERTs inside one transaction; SQLite has no COPY-style bulk API.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tripetl/internal/storage"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:trips.db?cache=shared"
	//   "trips.db"
	DSN     string
	Table   string
	Columns []string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// CopyFrom inserts the given rows into the configured table using a single
// transaction and a prepared INSERT statement.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	q := storage.InsertSQL(r.cfg.Table, columns, storage.DoubleQuote, storage.QuestionMark)
	n, err := storage.InsertTx(ctx, r.db, q, len(columns), toSQLite(rows))
	if err != nil {
		return n, fmt.Errorf("sqlite: %w", err)
	}
	return n, nil
}

// DeleteWhere removes rows matching all column = value pairs.
func (r *Repository) DeleteWhere(ctx context.Context, columns []string, values []any) (int64, error) {
	q, err := storage.BuildDelete(r.cfg.Table, columns, storage.DoubleQuote, storage.QuestionMark)
	if err != nil {
		return 0, fmt.Errorf("sqlite: %w", err)
	}
	n, err := storage.ExecAffected(ctx, r.db, q, values...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete: %w", err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// toSQLite renders timestamps as ISO-8601 text so they sort and compare
// lexically. Rows are rewritten in place.
func toSQLite(rows [][]any) [][]any {
	for _, row := range rows {
		for i, v := range row {
			if t, ok := v.(time.Time); ok {
				row[i] = t.UTC().Format("2006-01-02 15:04:05")
			}
		}
	}
	return rows
}

// MapType maps logical types to SQLite affinities. Timestamps are TEXT.
func MapType(logical string) string {
	switch logical {
	case storage.TypeInt:
		return "INTEGER"
	default:
		return "TEXT"
	}
}
