// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb_test

import (
	"context"

	"github.com/juju/errors"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
)

type integritySuite struct {
	baseSuite
}

var _ = gc.Suite(&integritySuite{})

func (s *integritySuite) TestAppendCollision(c *gc.C) {
	session := s.openLocal(c)
	ctx := context.Background()

	c.Assert(session.IntegrityAppend(ctx, withFiles(newPackage("devel/foo", "foo", "1.0"), "/usr/local/bin/tool")), jc.ErrorIsNil)
	err := session.IntegrityAppend(ctx, withFiles(newPackage("devel/bar", "bar", "1.0"),
		"/usr/local/bin/bar", "/usr/local/bin/tool"))
	c.Assert(err, jc.ErrorIs, pkgerrors.IntegrityConflict)

	var ierr *pkgerrors.IntegrityError
	c.Assert(errors.As(err, &ierr), jc.IsTrue)
	c.Assert(ierr.Conflicts, gc.HasLen, 1)
	c.Check(ierr.Conflicts[0].Path, gc.Equals, "/usr/local/bin/tool")
	c.Check(ierr.Conflicts[0].Owners, jc.DeepEquals, []packages.Ref{
		{Origin: "devel/bar", Name: "bar", Version: "1.0"},
		{Origin: "devel/foo", Name: "foo", Version: "1.0"},
	})

	// The rejected candidate left nothing staged, so it can be staged
	// again without the clashing file.
	c.Check(session.IntegrityAppend(ctx, withFiles(newPackage("devel/bar", "bar", "1.0"), "/usr/local/bin/bar")), jc.ErrorIsNil)
}

func (s *integritySuite) TestCheckAgainstInstalled(c *gc.C) {
	session := s.openLocal(c)
	ctx := context.Background()
	s.register(c, session, withFiles(newPackage("devel/foo", "foo", "1.0"), "/usr/local/share/doc"))

	c.Assert(session.IntegrityAppend(ctx, withFiles(newPackage("devel/bar", "bar", "1.0"), "/usr/local/share/doc")), jc.ErrorIsNil)
	c.Check(session.IntegrityCheck(ctx), jc.ErrorIs, pkgerrors.IntegrityConflict)

	refs, err := session.IntegrityConflictLocal(ctx, "devel/bar")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(refs, jc.DeepEquals, []packages.Ref{{Origin: "devel/foo", Name: "foo", Version: "1.0"}})

	c.Assert(session.IntegrityReset(ctx), jc.ErrorIsNil)
	c.Check(session.IntegrityCheck(ctx), jc.ErrorIsNil)
}

func (s *integritySuite) TestCheckIgnoresReplacedPackage(c *gc.C) {
	session := s.openLocal(c)
	ctx := context.Background()
	s.register(c, session, withFiles(newPackage("devel/foo", "foo", "1.0"), "/usr/local/bin/foo"))

	c.Assert(session.IntegrityAppend(ctx, withFiles(newPackage("devel/foo", "foo", "1.1"), "/usr/local/bin/foo")), jc.ErrorIsNil)
	c.Check(session.IntegrityCheck(ctx), jc.ErrorIsNil)
}
