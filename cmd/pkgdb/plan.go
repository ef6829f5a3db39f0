// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/pkgdb"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/internal/cmd"
)

const planDoc = `
Prints the packages an operation would touch, in the order it would touch
them. Nothing is installed or removed.

Kinds:
    install <pattern>...   packages to install with their missing dependencies
    upgrade                installed packages the repository has newer versions of
    downgrade              installed packages newer than the repository's
    autoremove             automatic packages nothing depends on any more
    delete <pattern>...    installed packages to remove
`

type planCommand struct {
	cmd.CommandBase
	*globals

	out       cmd.Output
	matching  matchFlags
	repo      string
	recursive bool

	kind     string
	patterns []string
}

func (c *planCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "plan",
		Args:    "<kind> [<pattern>...]",
		Purpose: "Show what an install, upgrade or removal would do.",
		Doc:     planDoc,
	}
}

func (c *planCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "tabular", packageFormatters)
	c.matching.addFlags(f)
	f.StringVar(&c.repo, "repo", "", "Repository to plan against")
	f.BoolVar(&c.recursive, "R", false, "Also delete the packages depending on the matches")
}

func (c *planCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no plan kind specified")
	}
	c.kind, c.patterns = args[0], args[1:]
	if _, err := c.matching.match(); err != nil {
		return errors.Trace(err)
	}
	switch c.kind {
	case "install", "delete":
		if len(c.patterns) == 0 && !c.matching.all {
			return errors.Errorf("no package pattern specified for %s", c.kind)
		}
	case "upgrade", "downgrade", "autoremove":
		return cmd.CheckEmpty(c.patterns)
	default:
		return errors.NotValidf("plan kind %q", c.kind)
	}
	return nil
}

func (c *planCommand) Run(ctx *cmd.Context) error {
	match, _ := c.matching.match()
	mode := pkgdb.Remote
	if c.kind == "autoremove" || c.kind == "delete" {
		mode = pkgdb.Local
	}
	session, err := c.open(ctx, mode)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	var it *pkgdb.Iterator
	switch c.kind {
	case "install":
		it, err = session.QueryInstalls(ctx, match, c.patterns, c.repo)
	case "upgrade":
		it, err = session.QueryUpgrades(ctx, c.repo)
	case "downgrade":
		it, err = session.QueryDowngrades(ctx, c.repo)
	case "autoremove":
		it, err = session.QueryAutoremove(ctx)
	case "delete":
		it, err = session.QueryDelete(ctx, match, c.patterns, c.recursive)
	}
	if err != nil {
		return errors.Trace(err)
	}
	pkgs, err := it.All(ctx, packages.Deps)
	if err != nil {
		return errors.Trace(err)
	}
	if len(pkgs) == 0 {
		ctx.Infof("nothing to %s", c.kind)
	}
	return c.out.Write(ctx, toPackageInfos(pkgs))
}
