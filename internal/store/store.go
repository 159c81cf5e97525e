// Package store materializes a DataFrame into an in-memory SQL database and
// runs queries against it, returning each result set as a DataFrame.
//
// Two embedded engines are supported through database/sql: SQLite (the
// default) and DuckDB. Both live entirely in process memory and disappear when
// the store is closed.
package store

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"github.com/rs/zerolog"

	"github.com/paveg/coffeetrends/internal/errors"
	"github.com/paveg/coffeetrends/internal/logging"
)

// Supported driver names.
const (
	DriverSQLite = "sqlite3"
	DriverDuckDB = "duckdb"
)

// Store is an in-memory relational database holding materialized DataFrames.
type Store struct {
	db     *sqlx.DB
	driver string
	log    zerolog.Logger
}

// Open creates a new, empty in-memory database using the named driver.
func Open(ctx context.Context, driver string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverDuckDB {
		return nil, errors.NewInvalidInputError("Open", fmt.Sprintf("unknown driver %q", driver))
	}

	db, err := sqlx.Open(driver, ":memory:")
	if err != nil {
		return nil, errors.NewInternalError("Open", err)
	}

	// Every new connection to an in-memory database opens a different, empty
	// database, so the pool must never hold more than one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewInternalError("Open", err)
	}

	s := &Store{
		db:     db,
		driver: driver,
		log:    logging.With().Str("component", "store").Str("driver", driver).Logger(),
	}
	s.log.Debug().Msg("in-memory store opened")
	return s, nil
}

// Driver returns the name of the underlying database driver.
func (s *Store) Driver() string {
	return s.driver
}

// Close closes the database; all tables are discarded.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.NewInternalError("Close", err)
	}
	s.log.Debug().Msg("in-memory store closed")
	return nil
}

// QuoteIdent quotes a table or column name for the store's dialect.
func (s *Store) QuoteIdent(name string) string {
	return QuoteIdent(s.driver, name)
}

// QuoteIdent quotes name for driver. SQLite reads a double-quoted name that
// matches no column as a string literal, so SQLite names are quoted with
// backticks, which are always identifiers.
func QuoteIdent(driver, name string) string {
	if driver == DriverSQLite {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
