// Package bunstore is the SQL store adapter. It runs on SQLite
// (github.com/mattn/go-sqlite3) or Postgres (github.com/lib/pq) through bun;
// product and user writes go through go-repository-bun repositories.
//
// A cart is a single row whose items are stored as a JSON column, so every
// cart write replaces the whole item sequence in one statement.
package bunstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-storefront/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the database named by driver and dsn.
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, err
		}
		// a single connection keeps :memory: databases coherent and avoids
		// SQLITE_BUSY under concurrent writers
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("bunstore: unsupported driver %q", driver)
	}
}

// Migrate creates the tables used by the store if they do not exist.
func Migrate(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*domain.Product)(nil),
		(*domain.Cart)(nil),
		(*domain.User)(nil),
	}
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("bunstore: migrate %T: %w", model, err)
		}
	}
	return nil
}
