// Package sqlstore keeps contract storage and deployed scripts in a
// SQL database. It supports SQLite (driver "sqlite") for local runs
// and Postgres (driver "postgres") for shared ones.
package sqlstore

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // registers "sqlite"

	"github.com/CityOfZion/neo-ruby-sdk/database/pg"
	"github.com/CityOfZion/neo-ruby-sdk/database/sqlutil"
	"github.com/CityOfZion/neo-ruby-sdk/errors"
	"github.com/CityOfZion/neo-ruby-sdk/log"
)

var ErrDriver = errors.New("unsupported storage driver")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS storage (
		script_hash %[1]s NOT NULL,
		key %[1]s NOT NULL,
		value %[1]s NOT NULL,
		PRIMARY KEY (script_hash, key)
	)`,
	`CREATE TABLE IF NOT EXISTS scripts (
		hash %[1]s PRIMARY KEY,
		code %[1]s NOT NULL
	)`,
}

// DB is an open storage database.
type DB struct {
	db     *stdsql.DB
	driver string
}

// Option configures Open.
type Option func(*openConfig)

type openConfig struct {
	logQueries bool
}

// LogQueries logs every statement sent to the database.
func LogQueries() Option {
	return func(c *openConfig) { c.logQueries = true }
}

// Open connects to the database and creates the tables if they do
// not exist.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*DB, error) {
	var cfg openConfig
	for _, o := range opts {
		o(&cfg)
	}
	var blob string
	switch driver {
	case DriverSQLite:
		blob = "BLOB"
	case DriverPostgres:
		blob = "BYTEA"
	default:
		return nil, errors.WithDetailf(ErrDriver, "%q", driver)
	}

	name := driver
	if cfg.logQueries {
		var err error
		name, err = logDriverName(driver)
		if err != nil {
			return nil, err
		}
	}
	sdb, err := stdsql.Open(name, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		sdb.SetMaxOpenConns(1)
	}
	db := &DB{db: sdb, driver: driver}
	for _, stmt := range schema {
		if _, err := db.exec(ctx, fmt.Sprintf(stmt, blob)); err != nil {
			sdb.Close()
			return nil, errors.Wrap(err, "creating schema")
		}
	}
	log.Printkv(ctx, log.KeyMessage, "storage opened", "driver", driver)
	return db, nil
}

// Close closes the database.
func (db *DB) Close() error { return db.db.Close() }

// Driver returns the driver name passed to Open.
func (db *DB) Driver() string { return db.driver }

func (db *DB) bind(query string) string {
	if db.driver == DriverPostgres {
		return pg.Rebind(query)
	}
	return query
}

func (db *DB) exec(ctx context.Context, query string, args ...interface{}) (stdsql.Result, error) {
	return db.db.ExecContext(ctx, db.bind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...interface{}) *stdsql.Row {
	return db.db.QueryRowContext(ctx, db.bind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...interface{}) (*stdsql.Rows, error) {
	return db.db.QueryContext(ctx, db.bind(query), args...)
}

func (db *DB) conn() pg.DB { return db.db }

var (
	logDriversMu sync.Mutex
	logDrivers   = make(map[string]bool)
)

// logDriverName registers, once, a logging wrapper around the named
// driver and returns the wrapper's name.
func logDriverName(driver string) (string, error) {
	name := driver + "-log"
	logDriversMu.Lock()
	defer logDriversMu.Unlock()
	if logDrivers[name] {
		return name, nil
	}
	// sql.Open does not connect; it only resolves the driver.
	handle, err := stdsql.Open(driver, "")
	if err != nil {
		return "", errors.Wrap(err, "resolving driver")
	}
	d := handle.Driver()
	handle.Close()
	stdsql.Register(name, sqlutil.LogDriver(d))
	logDrivers[name] = true
	return name, nil
}
