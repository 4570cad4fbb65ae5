// Package db persists profile tables, sensor samples and chart-run records in
// a local sqlite database whose schema is managed by embedded migrations.
package db

import (
	"database/sql"
	"embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/oceanobs/shallowprofiler/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pragmas applied to every connection opened by OpenDB.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// DB wraps the sqlite handle. Clock stamps chart runs.
type DB struct {
	*sql.DB
	Clock timeutil.Clock
}

// OpenDB opens the database at path and applies the connection pragmas. It
// does not migrate; call MigrateUp or use NewDB for that.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection; one connection keeps them in force.
	sqlDB.SetMaxOpenConns(1)
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return &DB{DB: sqlDB, Clock: timeutil.RealClock{}}, nil
}

// NewDB opens the database at path and applies all pending migrations.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
