// Package duckdb implements the default analytical backend on DuckDB.
//
// Engine knobs (threads, memory limit, spill directory) are passed as DSN
// parameters; insertion order is not preserved to cut memory on large loads.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"tripetl/internal/storage"
)

// Config holds DuckDB repository configuration.
type Config struct {
	// Path is the database file; empty means an in-memory database.
	Path        string
	Table       string
	Columns     []string
	Threads     int
	MemoryLimit string // e.g. "4GB"
	TempDir     string
}

// Repository is a DuckDB-backed storage.Repository.
type Repository struct {
	db        *sql.DB
	cfg       Config
	insertSQL string
}

// BuildDSN appends the engine settings to the database path. Parameters
// already present in Path win.
func BuildDSN(cfg Config) string {
	path, query, _ := strings.Cut(cfg.Path, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		params = url.Values{}
	}
	setDefault := func(k, v string) {
		if v != "" && params.Get(k) == "" {
			params.Set(k, v)
		}
	}
	if cfg.Threads > 0 {
		setDefault("threads", strconv.Itoa(cfg.Threads))
	}
	setDefault("memory_limit", cfg.MemoryLimit)
	setDefault("temp_directory", cfg.TempDir)
	setDefault("preserve_insertion_order", "false")
	return path + "?" + params.Encode()
}

// NewRepository opens the database and returns a Repository plus a close
// function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	db, err := sql.Open("duckdb", BuildDSN(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("duckdb: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	r := &Repository{
		db:        db,
		cfg:       cfg,
		insertSQL: storage.InsertSQL(cfg.Table, cfg.Columns, storage.DoubleQuote, storage.QuestionMark),
	}
	return r, func() { _ = db.Close() }, nil
}

// CopyFrom inserts one chunk in a single transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("duckdb: CopyFrom: columns must not be empty")
	}
	q := r.insertSQL
	if len(columns) != len(r.cfg.Columns) {
		q = storage.InsertSQL(r.cfg.Table, columns, storage.DoubleQuote, storage.QuestionMark)
	}
	n, err := storage.InsertTx(ctx, r.db, q, len(columns), rows)
	if err != nil {
		return n, fmt.Errorf("duckdb: %w", err)
	}
	return n, nil
}

// DeleteWhere removes rows matching all column = value pairs.
func (r *Repository) DeleteWhere(ctx context.Context, columns []string, values []any) (int64, error) {
	q, err := storage.BuildDelete(r.cfg.Table, columns, storage.DoubleQuote, storage.QuestionMark)
	if err != nil {
		return 0, fmt.Errorf("duckdb: %w", err)
	}
	n, err := storage.ExecAffected(ctx, r.db, q, values...)
	if err != nil {
		return 0, fmt.Errorf("duckdb: delete: %w", err)
	}
	return n, nil
}

// Exec runs a raw statement.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("duckdb: exec: %w", err)
	}
	return nil
}

// MapType maps logical column types to DuckDB types.
func MapType(logical string) string {
	switch logical {
	case storage.TypeInt:
		return "BIGINT"
	case storage.TypeTimestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}
