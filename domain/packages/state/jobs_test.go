// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"
	"database/sql"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
)

type jobsSuite struct {
	stateSuite
}

var _ = gc.Suite(&jobsSuite{})

func (s *jobsSuite) remote(c *gc.C, pkg *packages.Package) {
	s.AddRepositoryPackage(c, database.SingleRepository, *pkg)
}

func (s *jobsSuite) planInstall(c *gc.C, patterns ...string) ([]*packages.Package, int) {
	var iterations int
	err := s.Txn(c, func(ctx context.Context, tx *sql.Tx) (err error) {
		iterations, err = s.state.PrepareInstall(ctx, tx, database.SingleRepository, packages.MatchExact, patterns)
		return err
	})
	c.Assert(err, jc.ErrorIsNil)
	return s.query(c, RemotePlanQuery()), iterations
}

func (s *jobsSuite) planUpgrade(c *gc.C) []*packages.Package {
	err := s.Txn(c, func(ctx context.Context, tx *sql.Tx) error {
		_, err := s.state.PrepareUpgrade(ctx, tx, database.SingleRepository)
		return err
	})
	c.Assert(err, jc.ErrorIsNil)
	return s.query(c, RemotePlanQuery())
}

func (s *jobsSuite) TestInstallPullsInDependencies(c *gc.C) {
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	s.remote(c, libbar)
	s.remote(c, newPackage("www/foo", "foo", "1.0", libbar))

	plan, iterations := s.planInstall(c, "foo")
	c.Check(iterations, gc.Equals, 2)
	c.Assert(plan, gc.HasLen, 2)

	c.Check(plan[0].Origin, gc.Equals, "devel/libbar")
	c.Check(plan[0].Weight, gc.Equals, int64(1))
	c.Check(plan[0].Automatic, jc.IsTrue)
	c.Check(plan[0].Kind, gc.Equals, packages.Remote)
	c.Check(plan[0].Catalog, gc.Equals, database.SingleRepository)

	c.Check(plan[1].Origin, gc.Equals, "www/foo")
	c.Check(plan[1].Weight, gc.Equals, int64(0))
	c.Check(plan[1].Automatic, jc.IsFalse)
	c.Check(plan[1].NewVersion, gc.Equals, "")
}

func (s *jobsSuite) TestInstallSkipsCurrentDependency(c *gc.C) {
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	s.remote(c, libbar)
	s.remote(c, newPackage("www/foo", "foo", "1.0", libbar))
	s.register(c, newPackage("devel/libbar", "libbar", "2.0"))

	plan, _ := s.planInstall(c, "www/foo")
	c.Check(origins(plan), jc.DeepEquals, []string{"www/foo"})
}

func (s *jobsSuite) TestInstallUpgradesOutdatedDependency(c *gc.C) {
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	s.remote(c, libbar)
	s.remote(c, newPackage("www/foo", "foo", "1.0", libbar))
	s.register(c, newPackage("devel/libbar", "libbar", "1.5"))

	plan, _ := s.planInstall(c, "foo")
	c.Assert(origins(plan), jc.DeepEquals, []string{"devel/libbar", "www/foo"})
	c.Check(plan[0].Version, gc.Equals, "1.5")
	c.Check(plan[0].NewVersion, gc.Equals, "2.0")
	c.Check(plan[0].NewFlatSize, gc.Equals, int64(1024))
}

func (s *jobsSuite) TestInstallAlreadyInstalled(c *gc.C) {
	s.remote(c, newPackage("www/foo", "foo", "1.0"))
	s.register(c, newPackage("www/foo", "foo", "1.0"))

	plan, _ := s.planInstall(c, "foo")
	c.Check(plan, gc.HasLen, 0)
}

func (s *jobsSuite) TestInstallUnknownPattern(c *gc.C) {
	s.remote(c, newPackage("www/foo", "foo", "1.0"))

	plan, iterations := s.planInstall(c, "nothing")
	c.Check(plan, gc.HasLen, 0)
	c.Check(iterations, gc.Equals, 1)
}

func (s *jobsSuite) TestInstallClosureTerminates(c *gc.C) {
	a := newPackage("misc/a", "a", "1")
	b := newPackage("misc/b", "b", "1")
	cc := newPackage("misc/c", "c", "1")
	a.Deps = []packages.Dependency{{Origin: "misc/b", Name: "b", Version: "1"}, {Origin: "misc/c", Name: "c", Version: "1"}}
	b.Deps = []packages.Dependency{{Origin: "misc/c", Name: "c", Version: "1"}}
	cc.Deps = []packages.Dependency{{Origin: "misc/a", Name: "a", Version: "1"}}
	s.remote(c, a)
	s.remote(c, b)
	s.remote(c, cc)

	plan, _ := s.planInstall(c, "a", "a-1", "misc/a")
	c.Check(origins(plan), jc.SameContents, []string{"misc/a", "misc/b", "misc/c"})
}

func (s *jobsSuite) TestInstallWeightsOrderChains(c *gc.C) {
	libc := newPackage("devel/libc", "libc", "1")
	libb := newPackage("devel/libb", "libb", "1", libc)
	app := newPackage("www/app", "app", "1", libb, libc)
	s.remote(c, libc)
	s.remote(c, libb)
	s.remote(c, app)

	plan, _ := s.planInstall(c, "app")
	c.Assert(origins(plan), jc.DeepEquals, []string{"devel/libc", "devel/libb", "www/app"})
	c.Check(plan[0].Weight, gc.Equals, int64(2))
	c.Check(plan[1].Weight, gc.Equals, int64(1))
	c.Check(plan[2].Weight, gc.Equals, int64(0))
}

func (s *jobsSuite) TestUpgrade(c *gc.C) {
	s.register(c, newPackage("www/foo", "foo", "1.0"))
	s.remote(c, newPackage("www/foo", "foo", "1.1"))

	plan := s.planUpgrade(c)
	c.Assert(plan, gc.HasLen, 1)
	c.Check(plan[0].Origin, gc.Equals, "www/foo")
	c.Check(plan[0].Version, gc.Equals, "1.0")
	c.Check(plan[0].NewVersion, gc.Equals, "1.1")

	c.Check(s.query(c, DowngradeQuery(database.SingleRepository)), gc.HasLen, 0)
}

func (s *jobsSuite) TestUpgradeKeepsAutomaticFlag(c *gc.C) {
	pkg := newPackage("devel/libbar", "libbar", "1.0")
	pkg.Automatic = true
	s.register(c, pkg)
	s.remote(c, newPackage("devel/libbar", "libbar", "1.1"))

	plan := s.planUpgrade(c)
	c.Assert(plan, gc.HasLen, 1)
	c.Check(plan[0].Automatic, jc.IsTrue)
}

func (s *jobsSuite) TestUpgradePullsInNewDependency(c *gc.C) {
	s.register(c, newPackage("www/foo", "foo", "1.0"))
	libnew := newPackage("devel/libnew", "libnew", "1.0")
	s.remote(c, libnew)
	s.remote(c, newPackage("www/foo", "foo", "1.1", libnew))

	plan := s.planUpgrade(c)
	c.Assert(origins(plan), jc.DeepEquals, []string{"devel/libnew", "www/foo"})
	c.Check(plan[0].NewVersion, gc.Equals, "")
	c.Check(plan[1].NewVersion, gc.Equals, "1.1")
}

func (s *jobsSuite) TestUpgradeIgnoresCurrentAndOlder(c *gc.C) {
	s.register(c, newPackage("www/foo", "foo", "1.0"))
	s.register(c, newPackage("www/bar", "bar", "2.0"))
	s.remote(c, newPackage("www/foo", "foo", "1.0"))
	s.remote(c, newPackage("www/bar", "bar", "1.9"))

	c.Check(s.planUpgrade(c), gc.HasLen, 0)
}

func (s *jobsSuite) TestDowngrade(c *gc.C) {
	s.register(c, newPackage("www/foo", "foo", "2.0"))
	s.register(c, newPackage("www/bar", "bar", "1.0"))
	s.remote(c, newPackage("www/foo", "foo", "1.0"))
	s.remote(c, newPackage("www/bar", "bar", "1.0"))

	plan := s.query(c, DowngradeQuery(database.SingleRepository))
	c.Assert(plan, gc.HasLen, 1)
	c.Check(plan[0].Origin, gc.Equals, "www/foo")
	c.Check(plan[0].Version, gc.Equals, "2.0")
	c.Check(plan[0].NewVersion, gc.Equals, "1.0")
	c.Check(plan[0].Kind, gc.Equals, packages.Installed)

	c.Check(s.planUpgrade(c), gc.HasLen, 0)
}

func (s *jobsSuite) TestAutoremove(c *gc.C) {
	auto := func(pkg *packages.Package) *packages.Package {
		pkg.Automatic = true
		return pkg
	}
	libbar := auto(newPackage("devel/libbar", "libbar", "1"))
	libquux := auto(newPackage("devel/libquux", "libquux", "1"))
	s.register(c, libbar)
	s.register(c, newPackage("www/foo", "foo", "1", libbar))
	s.register(c, auto(newPackage("devel/libbaz", "libbaz", "1")))
	s.register(c, libquux)
	s.register(c, auto(newPackage("devel/libqux", "libqux", "1", libquux)))

	err := s.Txn(c, func(ctx context.Context, tx *sql.Tx) error {
		_, err := s.state.PrepareAutoremove(ctx, tx)
		return err
	})
	c.Assert(err, jc.ErrorIsNil)

	plan := s.query(c, LocalPlanQuery())
	c.Assert(origins(plan), jc.SameContents, []string{"devel/libbaz", "devel/libqux", "devel/libquux"})

	position := make(map[string]int)
	for i, pkg := range plan {
		position[pkg.Origin] = i
		c.Check(pkg.Kind, gc.Equals, packages.Installed)
	}
	c.Check(position["devel/libqux"] < position["devel/libquux"], jc.IsTrue)
}

func (s *jobsSuite) planDelete(c *gc.C, recursive bool, patterns ...string) []*packages.Package {
	err := s.Txn(c, func(ctx context.Context, tx *sql.Tx) error {
		_, err := s.state.PrepareDelete(ctx, tx, packages.MatchExact, patterns, recursive)
		return err
	})
	c.Assert(err, jc.ErrorIsNil)
	return s.query(c, LocalPlanQuery())
}

func (s *jobsSuite) TestDelete(c *gc.C) {
	libbar := newPackage("devel/libbar", "libbar", "1")
	foo := newPackage("www/foo", "foo", "1", libbar)
	s.register(c, libbar)
	s.register(c, foo)
	s.register(c, newPackage("www/baz", "baz", "1", foo))

	c.Check(origins(s.planDelete(c, false, "libbar")), jc.DeepEquals, []string{"devel/libbar"})

	plan := s.planDelete(c, true, "libbar")
	c.Assert(origins(plan), jc.DeepEquals, []string{"www/baz", "www/foo", "devel/libbar"})
	c.Check(plan[0].Weight, gc.Equals, int64(0))
	c.Check(plan[2].Weight, gc.Equals, int64(2))
}

func (s *jobsSuite) TestPlansDoNotLeak(c *gc.C) {
	s.remote(c, newPackage("www/foo", "foo", "1.0"))
	s.register(c, newPackage("www/bar", "bar", "1.0"))

	plan, _ := s.planInstall(c, "foo")
	c.Check(origins(plan), jc.DeepEquals, []string{"www/foo"})

	c.Check(origins(s.planDelete(c, false, "bar")), jc.DeepEquals, []string{"www/bar"})

	err := DropJobs(context.Background(), s.Conn())
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.CountRows(c, "sqlite_temp_master", "name = 'pkgjobs'"), gc.Equals, 0)
}
