// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/pkgdb"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/internal/cmd"
)

type repoAddCommand struct {
	cmd.CommandBase
	*globals

	catalog string
	paths   []string
}

func (c *repoAddCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "repo-add",
		Args:    "<catalog> <manifest>...",
		Purpose: "Add packages to a repository catalog.",
		Doc: `
Adds the packages described by the manifests to the repository catalog,
creating it when it does not exist. Each package is expected at
All/<name>-<version>.pkg in the repository.
`,
	}
}

func (c *repoAddCommand) Init(args []string) error {
	if len(args) < 2 {
		return errors.New("expected a catalog and at least one manifest")
	}
	c.catalog, c.paths = args[0], args[1:]
	return nil
}

func (c *repoAddCommand) Run(ctx *cmd.Context) error {
	pkgs := make([]*packages.Package, len(c.paths))
	for i, path := range c.paths {
		pkg, err := readManifest(ctx, path)
		if err != nil {
			return errors.Trace(err)
		}
		pkg.Kind = packages.Remote
		pkg.RepoPath = fmt.Sprintf("All/%s-%s.pkg", pkg.Name, pkg.Version)
		pkgs[i] = pkg
	}
	if err := pkgdb.WriteCatalog(ctx, ctx.AbsPath(c.catalog), pkgs); err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("added %d packages to %s", len(pkgs), c.catalog)
	return nil
}

type repoListCommand struct {
	cmd.CommandBase
	*globals

	out     cmd.Output
	catalog string
}

func (c *repoListCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "repo-list",
		Args:    "<catalog>",
		Purpose: "List the packages of a repository catalog.",
	}
}

func (c *repoListCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "tabular", packageFormatters)
}

func (c *repoListCommand) Init(args []string) error {
	if len(args) != 1 {
		return errors.New("expected a single catalog")
	}
	c.catalog = args[0]
	return nil
}

func (c *repoListCommand) Run(ctx *cmd.Context) error {
	pkgs, err := pkgdb.ReadCatalog(ctx, ctx.AbsPath(c.catalog))
	if err != nil {
		return errors.Trace(err)
	}
	return c.out.Write(ctx, toPackageInfos(pkgs))
}
