package storage

import (
	"fmt"
	"strings"
)

// Logical column types; each backend maps them to its own SQL types.
const (
	TypeText      = "text"
	TypeInt       = "int"
	TypeTimestamp = "timestamp"
)

// Column describes one destination column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// TypeMapper maps a logical type to a backend SQL type.
type TypeMapper func(logical string) string

// Quoter quotes a single identifier segment.
type Quoter func(ident string) string

// BuildCreateTable renders CREATE TABLE IF NOT EXISTS for schema using the
// backend's quoting and type mapping. Dotted table names are quoted per
// segment.
func BuildCreateTable(table string, schema []Column, quote Quoter, typeOf TypeMapper) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("ddl: table must not be empty")
	}
	if len(schema) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	defs := make([]string, 0, len(schema))
	for _, c := range schema {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", table)
		}
		def := quote(name) + " " + typeOf(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		QuoteFQN(table, quote), strings.Join(defs, ",\n  ")), nil
}

// BuildDelete renders DELETE FROM table WHERE c1 = p(1) AND c2 = p(2) ...
// where p renders the backend's n-th placeholder.
func BuildDelete(table string, columns []string, quote Quoter, placeholder func(n int) string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("delete: no key columns")
	}
	conds := make([]string, len(columns))
	for i, c := range columns {
		conds[i] = fmt.Sprintf("%s = %s", quote(c), placeholder(i+1))
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", QuoteFQN(table, quote), strings.Join(conds, " AND ")), nil
}

// QuoteFQN quotes each dot-separated segment of name.
func QuoteFQN(name string, quote Quoter) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, quote(p))
		}
	}
	return strings.Join(out, ".")
}

// DoubleQuote is the ANSI identifier quoter used by Postgres, SQLite and DuckDB.
func DoubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// QuestionMark is the positional placeholder style of database/sql drivers
// like SQLite and DuckDB.
func QuestionMark(int) string { return "?" }
