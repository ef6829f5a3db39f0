// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb_test

import (
	"bytes"
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb"
	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
)

type backupSuite struct {
	baseSuite
}

var _ = gc.Suite(&backupSuite{})

func (s *backupSuite) TestDumpRestore(c *gc.C) {
	source := s.openLocal(c)
	libbar := withFiles(newPackage("devel/libbar", "libbar", "2.0"), "/usr/local/lib/libbar.so")
	libbar.Automatic = true
	foo := withFiles(newPackage("devel/foo", "foo", "1.0", libbar), "/usr/local/bin/foo")
	foo.Categories = []string{"devel"}
	foo.Licenses = []string{"BSD2CLAUSE"}
	s.register(c, source, libbar, foo)

	ctx := context.Background()
	var buf bytes.Buffer
	n, err := source.Dump(ctx, &buf)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(n, gc.Equals, 2)

	cfg := s.config()
	cfg.DBDir = c.MkDir()
	target := s.open(c, cfg, pkgdb.Local)
	n, err = target.Restore(ctx, &buf)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(n, gc.Equals, 2)

	it, err := target.Query(ctx, "", packages.MatchAll)
	c.Assert(err, jc.ErrorIsNil)
	pkgs := drain(c, it, packages.Deps, packages.Files, packages.Categories, packages.Licenses)
	c.Assert(origins(pkgs), jc.DeepEquals, []string{"devel/foo", "devel/libbar"})
	c.Check(pkgs[0].Deps, jc.DeepEquals, foo.Deps)
	c.Check(pkgs[0].Files, jc.DeepEquals, foo.Files)
	c.Check(pkgs[0].Categories, jc.DeepEquals, []string{"devel"})
	c.Check(pkgs[0].Licenses, jc.DeepEquals, []string{"BSD2CLAUSE"})
	c.Check(pkgs[1].Automatic, jc.IsTrue)
}

func (s *backupSuite) TestRestoreReadOnly(c *gc.C) {
	c.Assert(s.openLocal(c).Close(), jc.ErrorIsNil)
	cfg := s.config()
	cfg.ReadOnly = true
	session := s.open(c, cfg, pkgdb.Local)

	_, err := session.Restore(context.Background(), &bytes.Buffer{})
	c.Check(err, jc.ErrorIs, pkgerrors.ReadOnly)
}
