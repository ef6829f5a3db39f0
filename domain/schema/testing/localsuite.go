// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/domain/schema"
	"github.com/juju/pkgdb/internal/database"
	"github.com/juju/pkgdb/internal/database/testing"
	"github.com/juju/pkgdb/internal/database/txn"
)

// LocalSuite provides a connection whose main database holds the local
// catalog schema, with an empty repository catalog attached as "remote".
type LocalSuite struct {
	testing.SQLiteSuite

	conn *sql.Conn
}

// SetUpTest is responsible for setting up a testing database suite
// initialised with the local catalog schema.
func (s *LocalSuite) SetUpTest(c *gc.C) {
	s.SQLiteSuite.SetUpTest(c)
	s.SQLiteSuite.ApplyDDL(c, schema.LocalDDL())

	var err error
	s.conn, err = s.DB().Conn(context.Background())
	c.Assert(err, jc.ErrorIsNil)

	s.AttachRepository(c, coredatabase.SingleRepository)
}

// TearDownTest releases the connection.
func (s *LocalSuite) TearDownTest(c *gc.C) {
	if s.conn != nil {
		err := s.conn.Close()
		c.Check(err, jc.ErrorIsNil)
		s.conn = nil
	}
	s.SQLiteSuite.TearDownTest(c)
}

// Conn returns the connection all tests should use.
func (s *LocalSuite) Conn() *sql.Conn {
	return s.conn
}

// AttachRepository creates an empty repository catalog and attaches it
// under the given name.
func (s *LocalSuite) AttachRepository(c *gc.C, name string) {
	path := filepath.Join(s.Dir(), name+coredatabase.CatalogFileSuffix)
	db, err := database.Open(database.Config{Path: path})
	c.Assert(err, jc.ErrorIsNil)
	_, err = schema.RepositoryDDL().Ensure(context.Background(), txn.NewRunner(txn.NewRetryingTxnRunner(), db), true)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(db.Close(), jc.ErrorIsNil)

	_, err = s.conn.ExecContext(context.Background(), "ATTACH DATABASE ? AS "+database.QuoteIdentifier(name), path)
	c.Assert(err, jc.ErrorIsNil)
}

// Txn runs fn in a transaction on the connection.
func (s *LocalSuite) Txn(c *gc.C, fn func(context.Context, *sql.Tx) error) error {
	runner := txn.NewStdRunner(txn.NewRetryingTxnRunner(), s.conn)
	return runner.StdTxn(context.Background(), fn)
}

// ExecConn runs the statement on the connection.
func (s *LocalSuite) ExecConn(c *gc.C, stmt string, args ...any) {
	_, err := s.conn.ExecContext(context.Background(), stmt, args...)
	c.Assert(err, jc.ErrorIsNil)
}

// CountRows returns the number of rows of the table matching where.
func (s *LocalSuite) CountRows(c *gc.C, table string, where string, args ...any) int {
	query := "SELECT count(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	err := s.conn.QueryRowContext(context.Background(), query, args...).Scan(&n)
	c.Assert(err, jc.ErrorIsNil)
	return n
}

// AddRepositoryPackage inserts a package and its dependencies into the
// repository catalog and returns its row id.
func (s *LocalSuite) AddRepositoryPackage(c *gc.C, catalog string, pkg packages.Package) int64 {
	var id int64
	err := s.Txn(c, func(ctx context.Context, tx *sql.Tx) error {
		cat := database.QuoteIdentifier(catalog)
		res, err := tx.ExecContext(ctx, `
INSERT INTO `+cat+`.packages (origin, name, version, comment, desc, arch, osversion,
    maintainer, www, prefix, pkgsize, flatsize, licenselogic, cksum, path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pkg.Origin, pkg.Name, pkg.Version, pkg.Comment, pkg.Description, pkg.Arch, pkg.OSVersion,
			pkg.Maintainer, pkg.WWW, pkg.Prefix, pkg.PackageSize, pkg.FlatSize, packages.LicenseSingle,
			pkg.Checksum, pkg.RepoPath)
		if err != nil {
			return errors.Trace(err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return errors.Trace(err)
		}
		for _, dep := range pkg.Deps {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO "+cat+".deps (origin, name, version, package_id) VALUES (?, ?, ?, ?)",
				dep.Origin, dep.Name, dep.Version, id); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
	return id
}
