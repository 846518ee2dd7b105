// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. Each chunk is bulk-copied inside its own
// transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"tripetl/internal/storage"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN     string
	Table   string
	Columns []string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { _ = db.Close() }, nil
}

// CopyFrom performs a bulk insert directly into the configured target table.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(r.cfg.Table, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// DeleteWhere removes rows matching all column = value pairs.
func (r *Repository) DeleteWhere(ctx context.Context, columns []string, values []any) (int64, error) {
	q, err := storage.BuildDelete(r.cfg.Table, columns, msIdent, atP)
	if err != nil {
		return 0, fmt.Errorf("mssql: %w", err)
	}
	n, err := storage.ExecAffected(ctx, r.db, q, values...)
	if err != nil {
		return 0, fmt.Errorf("mssql: delete: %w", err)
	}
	return n, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func atP(n int) string { return "@p" + strconv.Itoa(n) }

// MapType maps logical column types to SQL Server types.
func MapType(logical string) string {
	switch logical {
	case storage.TypeInt:
		return "BIGINT"
	case storage.TypeTimestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(400)"
	}
}

// BuildCreateTable wraps the generic CREATE TABLE in an OBJECT_ID guard;
// SQL Server has no CREATE TABLE IF NOT EXISTS.
func BuildCreateTable(table string, schema []storage.Column) (string, error) {
	stmt, err := storage.BuildCreateTable(table, schema, msIdent, MapType)
	if err != nil {
		return "", err
	}
	stmt = strings.Replace(stmt, "CREATE TABLE IF NOT EXISTS", "CREATE TABLE", 1)
	name := strings.ReplaceAll(table, "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\n%s", name, stmt), nil
}
