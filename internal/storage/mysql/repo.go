// Package mysql implements storage.Repository on MySQL/MariaDB through
// database/sql and go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"tripetl/internal/storage"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in driver form, e.g. "etl:secret@tcp(db:3306)/travel".
	DSN     string
	Table   string
	Columns []string
}

// Repository is a MySQL-backed storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NormalizeDSN forces parseTime and a UTC session location so DATETIME
// values round-trip as UTC instants.
func NormalizeDSN(dsn string) (string, error) {
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("mysql: parse dsn: %w", err)
	}
	c.ParseTime = true
	c.Loc = time.UTC
	return c.FormatDSN(), nil
}

// NewRepository opens a connection pool and returns a Repository plus a
// close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	dsn, err := NormalizeDSN(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", describe(err))
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom inserts rows with a prepared INSERT inside one transaction.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	q := storage.InsertSQL(r.cfg.Table, columns, Backtick, storage.QuestionMark)
	n, err := storage.InsertTx(ctx, r.db, q, len(columns), rows)
	if err != nil {
		return n, fmt.Errorf("mysql: %w", describe(err))
	}
	return n, nil
}

// DeleteWhere removes rows matching all column = value pairs.
func (r *Repository) DeleteWhere(ctx context.Context, columns []string, values []any) (int64, error) {
	q, err := storage.BuildDelete(r.cfg.Table, columns, Backtick, storage.QuestionMark)
	if err != nil {
		return 0, fmt.Errorf("mysql: %w", err)
	}
	n, err := storage.ExecAffected(ctx, r.db, q, values...)
	if err != nil {
		return 0, fmt.Errorf("mysql: delete: %w", describe(err))
	}
	return n, nil
}

// Exec runs a raw statement.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("mysql: exec: %w", describe(err))
	}
	return nil
}

// Backtick quotes a MySQL identifier.
func Backtick(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// MapType maps logical column types to MySQL types. Text columns are
// bounded so they can be indexed.
func MapType(logical string) string {
	switch logical {
	case storage.TypeInt:
		return "BIGINT"
	case storage.TypeTimestamp:
		return "DATETIME(6)"
	default:
		return "VARCHAR(400)"
	}
}

// describe prefixes server errors with their error number.
func describe(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return fmt.Errorf("error %d: %w", me.Number, err)
	}
	return err
}
