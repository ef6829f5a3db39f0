// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/database/schema"
	"github.com/juju/pkgdb/core/version"
	"github.com/juju/pkgdb/internal/database"
	"github.com/juju/pkgdb/internal/database/txn"
)

// SQLiteSuite opens a fresh database file for every test. The database
// carries the package SQL functions and enforces foreign keys.
type SQLiteSuite struct {
	testing.IsolationSuite

	dir   string
	db    *sql.DB
	cache *database.RegexpCache
}

// SetUpTest creates the database for the test.
func (s *SQLiteSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)

	s.dir = c.MkDir()

	var err error
	s.cache, err = database.NewRegexpCache(database.DefaultRegexpCacheSize)
	c.Assert(err, jc.ErrorIsNil)

	s.db, err = database.Open(database.Config{
		Path:      filepath.Join(s.dir, "test.sqlite"),
		Functions: database.Functions(s.cache, version.Compare),
	})
	c.Assert(err, jc.ErrorIsNil)
}

// TearDownTest closes the database.
func (s *SQLiteSuite) TearDownTest(c *gc.C) {
	if s.db != nil {
		err := s.db.Close()
		c.Check(err, jc.ErrorIsNil)
		s.db = nil
	}
	s.IsolationSuite.TearDownTest(c)
}

// DB returns the database of the test.
func (s *SQLiteSuite) DB() *sql.DB {
	return s.db
}

// Dir returns the directory holding the database file.
func (s *SQLiteSuite) Dir() string {
	return s.dir
}

// TxnRunner returns a runner of transactions against the database.
func (s *SQLiteSuite) TxnRunner() coredatabase.TxnRunner {
	return txn.NewRunner(txn.NewRetryingTxnRunner(), s.db)
}

// ApplyDDL creates the given schema in the database.
func (s *SQLiteSuite) ApplyDDL(c *gc.C, ddl *schema.Schema) {
	_, err := ddl.Ensure(context.Background(), s.TxnRunner(), true)
	c.Assert(err, jc.ErrorIsNil)
}

// Exec runs the statement against the database.
func (s *SQLiteSuite) Exec(c *gc.C, stmt string, args ...any) {
	_, err := s.db.Exec(stmt, args...)
	c.Assert(err, jc.ErrorIsNil)
}

// Count returns the number of rows returned by the query.
func (s *SQLiteSuite) Count(c *gc.C, table string, where string, args ...any) int {
	query := "SELECT count(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	err := s.db.QueryRow(query, args...).Scan(&n)
	c.Assert(err, jc.ErrorIsNil)
	return n
}
