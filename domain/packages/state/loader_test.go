// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
)

type loaderSuite struct {
	stateSuite
}

var _ = gc.Suite(&loaderSuite{})

func (s *loaderSuite) installed(c *gc.C) *packages.Package {
	pkg := newPackage("www/foo", "foo", "1.0", newPackage("devel/libbar", "libbar", "2.0"))
	pkg.ContentManifest = "#mtree"
	pkg.Files = []packages.File{{Path: "/usr/local/share/foo/b"}, {Path: "/usr/local/bin/foo", Checksum: "abc"}}
	pkg.Dirs = []packages.Directory{{Path: "/usr/local/share/foo"}, {Path: "/usr/local/etc/foo", Try: true}}
	pkg.Scripts = []packages.Script{{Type: packages.PostInstall, Body: "true"}}
	pkg.Options = []packages.Option{{Key: "SSL", Value: "on"}, {Key: "DOCS", Value: "off"}}
	pkg.Categories = []string{"devel", "www"}
	pkg.Licenses = []string{"BSD", "MIT"}
	pkg.Users = []packages.User{{Name: "www"}, {Name: "nobody-here"}}
	pkg.Groups = []packages.Group{{Name: "www"}}
	s.register(c, pkg)

	dependent := newPackage("www/baz", "baz", "0.1", pkg)
	s.register(c, dependent)

	return &packages.Package{
		ID:      pkg.ID,
		Origin:  pkg.Origin,
		Name:    pkg.Name,
		Version: pkg.Version,
		Kind:    packages.Installed,
		Catalog: database.LocalCatalog,
	}
}

func (s *loaderSuite) TestLoadAttributes(c *gc.C) {
	pkg := s.installed(c)

	err := s.state.LoadAttributes(context.Background(), s.Conn(), pkg, packages.AllAttributes...)
	c.Assert(err, jc.ErrorIsNil)

	c.Check(pkg.Deps, jc.DeepEquals, []packages.Dependency{{Name: "libbar", Origin: "devel/libbar", Version: "2.0"}})
	c.Check(pkg.ReverseDeps, jc.DeepEquals, []packages.Dependency{{Name: "baz", Origin: "www/baz", Version: "0.1"}})
	c.Check(pkg.Files, jc.DeepEquals, []packages.File{
		{Path: "/usr/local/bin/foo", Checksum: "abc"},
		{Path: "/usr/local/share/foo/b"},
	})
	c.Check(pkg.Dirs, jc.DeepEquals, []packages.Directory{
		{Path: "/usr/local/share/foo"},
		{Path: "/usr/local/etc/foo", Try: true},
	})
	c.Check(pkg.Scripts, jc.DeepEquals, []packages.Script{{Type: packages.PostInstall, Body: "true"}})
	c.Check(pkg.Options, jc.DeepEquals, []packages.Option{{Key: "DOCS", Value: "off"}, {Key: "SSL", Value: "on"}})
	c.Check(pkg.Categories, jc.DeepEquals, []string{"www", "devel"})
	c.Check(pkg.Licenses, jc.DeepEquals, []string{"MIT", "BSD"})
	c.Check(pkg.Users, jc.DeepEquals, []packages.User{{Name: "www", UID: "80"}, {Name: "nobody-here"}})
	c.Check(pkg.Groups, jc.DeepEquals, []packages.Group{{Name: "www", GID: "80"}})
	c.Check(pkg.ContentManifest, gc.Equals, "#mtree")

	for _, attr := range packages.AllAttributes {
		c.Check(pkg.Loaded(attr), jc.IsTrue, gc.Commentf("attribute %s", attr))
	}
}

func (s *loaderSuite) TestLoadAttributesIsIdempotent(c *gc.C) {
	pkg := s.installed(c)

	for i := 0; i < 2; i++ {
		err := s.state.LoadAttributes(context.Background(), s.Conn(), pkg, packages.Deps, packages.Files)
		c.Assert(err, jc.ErrorIsNil)
	}
	c.Check(pkg.Deps, gc.HasLen, 1)
	c.Check(pkg.Files, gc.HasLen, 2)
}

func (s *loaderSuite) TestLoadRepositoryAttributes(c *gc.C) {
	libbar := newPackage("devel/libbar", "libbar", "2.0")
	s.AddRepositoryPackage(c, database.SingleRepository, *libbar)
	id := s.AddRepositoryPackage(c, database.SingleRepository, *newPackage("www/foo", "foo", "1.0", libbar))

	pkg := &packages.Package{
		ID:      id,
		Origin:  "www/foo",
		Name:    "foo",
		Version: "1.0",
		Kind:    packages.Remote,
		Catalog: database.SingleRepository,
	}
	err := s.state.LoadAttributes(context.Background(), s.Conn(), pkg, packages.Deps, packages.Options)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(pkg.Deps, jc.DeepEquals, []packages.Dependency{{Name: "libbar", Origin: "devel/libbar", Version: "2.0"}})
	c.Check(pkg.Options, gc.HasLen, 0)

	err = s.state.LoadAttributes(context.Background(), s.Conn(), pkg, packages.Files)
	c.Check(err, jc.ErrorIs, pkgerrors.AttributeNotSupported)
	c.Check(pkg.Loaded(packages.Files), jc.IsFalse)
}

func (s *loaderSuite) TestLoadAttributeFailsMidStream(c *gc.C) {
	pkg := newPackage("www/foo", "foo", "1.0")
	pkg.Scripts = []packages.Script{{Type: packages.PostInstall, Body: "true"}}
	s.register(c, pkg)

	// Integers sort before text, so the broken row is read second.
	s.ExecConn(c, `INSERT INTO scripts (package_id, script, type) VALUES (?, 'broken', 'bogus')`, pkg.ID)

	loaded := &packages.Package{ID: pkg.ID, Origin: pkg.Origin, Name: pkg.Name, Version: pkg.Version, Kind: packages.Installed}
	err := s.state.LoadAttributes(context.Background(), s.Conn(), loaded, packages.Deps, packages.Scripts)
	c.Assert(err, gc.ErrorMatches, `loading scripts of foo-1.0: .*`)
	c.Check(loaded.Scripts, gc.HasLen, 0)
	c.Check(loaded.Loaded(packages.Scripts), jc.IsFalse)
	c.Check(loaded.Loaded(packages.Deps), jc.IsTrue)
}

func (s *loaderSuite) TestLoadRepositoryCategoriesAndLicenses(c *gc.C) {
	s.AttachRepository(c, "ports")

	remoteID := s.AddRepositoryPackage(c, database.SingleRepository, *newPackage("www/foo", "foo", "1.0"))
	portsID := s.AddRepositoryPackage(c, "ports", *newPackage("www/foo", "foo", "1.1"))
	c.Assert(remoteID, gc.Equals, portsID)

	s.ExecConn(c, `INSERT INTO remote.categories (name) VALUES ('devel'), ('www')`)
	s.ExecConn(c, `INSERT INTO remote.pkg_categories (package_id, category_id) SELECT ?, id FROM remote.categories`, remoteID)
	s.ExecConn(c, `INSERT INTO remote.licenses (name) VALUES ('BSD'), ('MIT')`)
	s.ExecConn(c, `INSERT INTO remote.pkg_licenses (package_id, license_id) SELECT ?, id FROM remote.licenses`, remoteID)
	s.ExecConn(c, `INSERT INTO ports.categories (name) VALUES ('net')`)
	s.ExecConn(c, `INSERT INTO ports.pkg_categories (package_id, category_id) SELECT ?, id FROM ports.categories`, portsID)

	remote := &packages.Package{ID: remoteID, Origin: "www/foo", Name: "foo", Version: "1.0", Kind: packages.Remote, Catalog: database.SingleRepository}
	err := s.state.LoadAttributes(context.Background(), s.Conn(), remote, packages.Categories, packages.Licenses)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(remote.Categories, jc.DeepEquals, []string{"www", "devel"})
	c.Check(remote.Licenses, jc.DeepEquals, []string{"MIT", "BSD"})

	ports := &packages.Package{ID: portsID, Origin: "www/foo", Name: "foo", Version: "1.1", Kind: packages.Remote, Catalog: "ports"}
	err = s.state.LoadAttributes(context.Background(), s.Conn(), ports, packages.Categories, packages.Licenses)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(ports.Categories, jc.DeepEquals, []string{"net"})
	c.Check(ports.Licenses, gc.HasLen, 0)
}
