package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// InsertSQL renders a single-row INSERT with positional placeholders.
func InsertSQL(table string, columns []string, quote Quoter, placeholder func(n int) string) string {
	cols := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quote(c)
		ph[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(table, quote), strings.Join(cols, ", "), strings.Join(ph, ", "))
}

// InsertTx inserts rows with one prepared statement inside a single
// transaction, so the chunk commits or rolls back as a unit.
func InsertTx(ctx context.Context, db *sql.DB, insertSQL string, width int, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != width {
			_ = tx.Rollback()
			return 0, fmt.Errorf("row length %d != columns length %d", len(row), width)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert: %w", err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// ExecAffected runs a statement and returns the affected row count.
func ExecAffected(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}
