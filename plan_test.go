// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb_test

import (
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb/core/packages"
)

type planSuite struct {
	baseSuite
}

var _ = gc.Suite(&planSuite{})

func (s *planSuite) TestQueryInstalls(c *gc.C) {
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	foo := newPackage("devel/foo", "foo", "1.0", libbar)
	s.writeRepository(c, foo, libbar, newPackage("devel/baz", "baz", "1.0"))
	session := s.openRemote(c)

	it, err := session.QueryInstalls(context.Background(), packages.MatchExact, []string{"foo"}, "")
	c.Assert(err, jc.ErrorIsNil)
	pkgs := drain(c, it, packages.Deps)
	c.Assert(origins(pkgs), jc.DeepEquals, []string{"devel/libbar", "devel/foo"})

	c.Check(pkgs[0].Automatic, jc.IsTrue)
	c.Check(pkgs[0].Weight, gc.Equals, int64(1))
	c.Check(pkgs[0].Kind, gc.Equals, packages.Remote)
	c.Check(pkgs[0].RepoPath, gc.Equals, "All/libbar-2.0.pkg")
	c.Check(pkgs[1].Automatic, jc.IsFalse)
	c.Check(pkgs[1].Deps, gc.HasLen, 1)
}

func (s *planSuite) TestQueryInstallsSkipsInstalled(c *gc.C) {
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	foo := newPackage("devel/foo", "foo", "1.0", libbar)
	s.writeRepository(c, foo, libbar)
	session := s.openRemote(c)
	s.register(c, session, newPackage("devel/libbar", "libbar", "2.0"))

	it, err := session.QueryInstalls(context.Background(), packages.MatchExact, []string{"foo"}, "")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(origins(drain(c, it)), jc.DeepEquals, []string{"devel/foo"})
}

func (s *planSuite) TestPlanCanRunTwice(c *gc.C) {
	s.writeRepository(c, newPackage("devel/foo", "foo", "1.0"))
	session := s.openRemote(c)

	for i := 0; i < 2; i++ {
		it, err := session.QueryInstalls(context.Background(), packages.MatchGlob, []string{"f*"}, "")
		c.Assert(err, jc.ErrorIsNil)
		c.Check(origins(drain(c, it)), jc.DeepEquals, []string{"devel/foo"})
	}
}

func (s *planSuite) TestQueryUpgrades(c *gc.C) {
	s.writeRepository(c,
		newPackage("devel/foo", "foo", "1.1"),
		newPackage("devel/bar", "bar", "0.9"),
	)
	session := s.openRemote(c)
	s.register(c, session, newPackage("devel/foo", "foo", "1.0"), newPackage("devel/bar", "bar", "1.0"))

	it, err := session.QueryUpgrades(context.Background(), "")
	c.Assert(err, jc.ErrorIsNil)
	pkgs := drain(c, it)
	c.Assert(origins(pkgs), jc.DeepEquals, []string{"devel/foo"})
	c.Check(pkgs[0].Version, gc.Equals, "1.0")
	c.Check(pkgs[0].NewVersion, gc.Equals, "1.1")
}

func (s *planSuite) TestQueryDowngrades(c *gc.C) {
	s.writeRepository(c,
		newPackage("devel/foo", "foo", "1.1"),
		newPackage("devel/bar", "bar", "0.9"),
	)
	session := s.openRemote(c)
	s.register(c, session, newPackage("devel/foo", "foo", "1.0"), newPackage("devel/bar", "bar", "1.0"))

	it, err := session.QueryDowngrades(context.Background(), "")
	c.Assert(err, jc.ErrorIsNil)
	pkgs := drain(c, it)
	c.Assert(origins(pkgs), jc.DeepEquals, []string{"devel/bar"})
	c.Check(pkgs[0].Version, gc.Equals, "1.0")
	c.Check(pkgs[0].NewVersion, gc.Equals, "0.9")
}

func (s *planSuite) TestQueryAutoremove(c *gc.C) {
	session := s.openLocal(c)
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	libbar.Automatic = true
	libqux := newPackage("devel/libqux", "libqux", "1.0")
	libqux.Automatic = true
	foo := newPackage("devel/foo", "foo", "1.0", libbar)
	s.register(c, session, libbar, libqux, foo)

	it, err := session.QueryAutoremove(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(origins(drain(c, it)), jc.DeepEquals, []string{"devel/libqux"})
}

func (s *planSuite) TestQueryDelete(c *gc.C) {
	session := s.openLocal(c)
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	foo := newPackage("devel/foo", "foo", "1.0", libbar)
	s.register(c, session, libbar, foo, newPackage("devel/baz", "baz", "1.0"))

	ctx := context.Background()
	it, err := session.QueryDelete(ctx, packages.MatchExact, []string{"libbar"}, false)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(origins(drain(c, it)), jc.DeepEquals, []string{"devel/libbar"})

	it, err = session.QueryDelete(ctx, packages.MatchExact, []string{"libbar"}, true)
	c.Assert(err, jc.ErrorIsNil)
	pkgs := drain(c, it)
	c.Assert(origins(pkgs), jc.DeepEquals, []string{"devel/foo", "devel/libbar"})
	c.Check(pkgs[0].Kind, gc.Equals, packages.Installed)
	c.Check(pkgs[1].Weight, gc.Equals, int64(1))
}

func (s *planSuite) TestPlanInsideTransaction(c *gc.C) {
	session := s.openLocal(c)
	ctx := context.Background()
	c.Assert(session.Begin(ctx), jc.ErrorIsNil)
	s.register(c, session, newPackage("devel/foo", "foo", "1.0"))

	it, err := session.QueryDelete(ctx, packages.MatchExact, []string{"foo"}, false)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(origins(drain(c, it)), jc.DeepEquals, []string{"devel/foo"})
	c.Assert(session.Commit(), jc.ErrorIsNil)
}

func (s *planSuite) TestSearch(c *gc.C) {
	s.writeRepository(c,
		newPackage("devel/foo", "foo", "1.0"),
		newPackage("devel/libbar", "libbar", "2.0"),
		newPackage("devel/libbaz", "libbaz", "2.0"),
	)
	session := s.openRemote(c)
	ctx := context.Background()

	it, err := session.Search(ctx, "lib*", packages.MatchGlob, packages.FieldName, "")
	c.Assert(err, jc.ErrorIsNil)
	pkgs := drain(c, it)
	c.Assert(origins(pkgs), jc.DeepEquals, []string{"devel/libbar", "devel/libbaz"})
	c.Check(pkgs[0].Catalog, gc.Equals, "remote")

	it, err = session.Search(ctx, "^lib.*z$", packages.MatchExtendedRegex, packages.FieldName, "")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(origins(drain(c, it)), jc.DeepEquals, []string{"devel/libbaz"})

	it, err = session.Search(ctx, "", packages.MatchAll, packages.FieldNone, "")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(drain(c, it), gc.HasLen, 3)
}
