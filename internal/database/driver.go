// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"

	"github.com/juju/errors"
	"github.com/mattn/go-sqlite3"
)

// Function is a Go function exposed to SQL.
type Function struct {
	Name string
	Impl any
	// Pure functions always return the same result for the same input.
	Pure bool
}

// Config holds the parameters for opening a database file.
type Config struct {
	// Path is the file path of the database.
	Path string

	// ReadOnly opens the file without write access.
	ReadOnly bool

	// Functions are registered on every connection.
	Functions []Function
}

// DSN returns the data source name for the database file. Foreign keys are
// always enforced.
func DSN(path string, readOnly bool) string {
	v := url.Values{}
	v.Set("_foreign_keys", "1")
	v.Set("_busy_timeout", "5000")
	if readOnly {
		v.Set("mode", "ro")
	}
	return "file:" + path + "?" + v.Encode()
}

// Open returns a database for the file described by the config. The driver
// is private to the returned database, so SQL functions never leak between
// databases. The pool holds at most one connection.
func Open(cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, errors.NotValidf("empty database path")
	}
	functions := append([]Function(nil), cfg.Functions...)
	drv := &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			for _, f := range functions {
				if err := conn.RegisterFunc(f.Name, f.Impl, f.Pure); err != nil {
					return errors.Annotatef(err, "registering function %q", f.Name)
				}
			}
			return nil
		},
	}
	db := sql.OpenDB(&connector{
		driver: drv,
		dsn:    DSN(cfg.Path, cfg.ReadOnly),
	})
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

type connector struct {
	driver *sqlite3.SQLiteDriver
	dsn    string
}

// Connect implements driver.Connector.
func (c *connector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

// Driver implements driver.Connector.
func (c *connector) Driver() driver.Driver {
	return c.driver
}
