// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package errors_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
)

type errorsSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&errorsSuite{})

func (s *errorsSuite) TestConflictNamesOrigins(c *gc.C) {
	conflict := pkgerrors.Conflict{
		Path: "/usr/local/bin/clash",
		Owners: []packages.Ref{
			{Origin: "www/foo", Name: "foo", Version: "1.0"},
			{Origin: "www/bar", Name: "bar", Version: "2.0"},
		},
	}
	c.Check(conflict.String(), gc.Equals, "foo-1.0 (www/foo), bar-2.0 (www/bar) conflict on /usr/local/bin/clash")
}

func (s *errorsSuite) TestConflictWithoutOrigin(c *gc.C) {
	conflict := pkgerrors.Conflict{
		Path:   "/p",
		Owners: []packages.Ref{{Name: "a", Version: "1"}},
	}
	c.Check(conflict.String(), gc.Equals, "a-1 conflict on /p")
}

func (s *errorsSuite) TestIntegrityError(c *gc.C) {
	err := &pkgerrors.IntegrityError{Conflicts: []pkgerrors.Conflict{{
		Path: "/p",
		Owners: []packages.Ref{
			{Origin: "x/a", Name: "a", Version: "1"},
			{Origin: "x/b", Name: "b", Version: "1"},
		},
	}}}
	c.Check(err, gc.ErrorMatches, `1 conflicting paths: a-1 \(x/a\), b-1 \(x/b\) conflict on /p`)
	c.Check(err, jc.ErrorIs, pkgerrors.IntegrityConflict)
}
