// Package all wires every built-in storage backend into the storage factory.
//
// Importing it (as a blank import) runs each backend's init, which registers
// its factory and DDL bootstrapper:
//
//   - "duckdb"   (default analytical store)
//   - "sqlite"
//   - "postgres"
//   - "mssql"
//   - "mysql"
package all

import (
	_ "tripetl/internal/storage/duckdb"
	_ "tripetl/internal/storage/mssql"
	_ "tripetl/internal/storage/mysql"
	_ "tripetl/internal/storage/postgres"
	_ "tripetl/internal/storage/sqlite"
)
