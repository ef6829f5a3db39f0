// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/pkgdb"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/internal/cmd"
	"github.com/juju/pkgdb/internal/manifest"
)

type registerCommand struct {
	cmd.CommandBase
	*globals

	automatic bool
	check     bool
	paths     []string
}

func (c *registerCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "register",
		Args:    "<manifest>...",
		Purpose: "Record packages as installed from their manifests.",
		Doc: `
Registers every manifest in a single transaction: either all packages are
recorded or none is. With --check the files of all manifests are checked for
conflicts with each other and with the installed packages first.
`,
	}
}

func (c *registerCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.automatic, "automatic", false, "Mark the packages as installed automatically")
	f.BoolVar(&c.check, "check", false, "Check the files for conflicts before registering")
}

func (c *registerCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no manifest specified")
	}
	c.paths = args
	return nil
}

func (c *registerCommand) Run(ctx *cmd.Context) error {
	pkgs := make([]*packages.Package, len(c.paths))
	for i, path := range c.paths {
		pkg, err := readManifest(ctx, path)
		if err != nil {
			return errors.Trace(err)
		}
		if c.automatic {
			pkg.Automatic = true
		}
		pkgs[i] = pkg
	}

	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	if c.check {
		if err := checkIntegrity(ctx, session, pkgs); err != nil {
			return errors.Trace(err)
		}
	}

	if err := session.Begin(ctx); err != nil {
		return errors.Trace(err)
	}
	for _, pkg := range pkgs {
		if err := session.Register(ctx, pkg); err != nil {
			if rErr := session.Rollback(); rErr != nil {
				logger.Warningf("rolling back: %v", rErr)
			}
			return errors.Trace(err)
		}
		ctx.Infof("registered %s", pkg)
	}
	return errors.Trace(session.Commit())
}

func checkIntegrity(ctx *cmd.Context, session *pkgdb.Session, pkgs []*packages.Package) error {
	defer func() {
		if err := session.IntegrityReset(ctx); err != nil {
			logger.Warningf("resetting integrity check: %v", err)
		}
	}()
	for _, pkg := range pkgs {
		if err := session.IntegrityAppend(ctx, pkg); err != nil {
			return errors.Trace(err)
		}
	}
	if err := session.IntegrityCheck(ctx); err != nil {
		for _, pkg := range pkgs {
			refs, rErr := session.IntegrityConflictLocal(ctx, pkg.Origin)
			if rErr != nil {
				return errors.Trace(rErr)
			}
			for _, ref := range refs {
				ctx.Infof("%s conflicts with installed %s", pkg, ref)
			}
		}
		return errors.Trace(err)
	}
	return nil
}

func readManifest(ctx *cmd.Context, path string) (*packages.Package, error) {
	data, err := os.ReadFile(ctx.AbsPath(path))
	if err != nil {
		return nil, errors.Trace(err)
	}
	pkg, err := manifest.Parse(data)
	return pkg, errors.Annotatef(err, "manifest %s", path)
}

type unregisterCommand struct {
	cmd.CommandBase
	*globals

	origins []string
}

func (c *unregisterCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "unregister",
		Args:    "<origin>...",
		Purpose: "Remove installed packages from the local catalog.",
	}
}

func (c *unregisterCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no origin specified")
	}
	c.origins = args
	return nil
}

func (c *unregisterCommand) Run(ctx *cmd.Context) error {
	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	for _, origin := range c.origins {
		if err := session.Unregister(ctx, origin); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

type automaticCommand struct {
	cmd.CommandBase
	*globals

	unset  bool
	origin string
}

func (c *automaticCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "set-automatic",
		Args:    "<origin>",
		Purpose: "Mark an installed package as installed automatically.",
	}
}

func (c *automaticCommand) SetFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&c.unset, "unset", false, "Clear the mark instead")
}

func (c *automaticCommand) Init(args []string) error {
	if len(args) != 1 {
		return errors.New("expected a single origin")
	}
	c.origin = args[0]
	return nil
}

func (c *automaticCommand) Run(ctx *cmd.Context) error {
	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()
	return errors.Trace(session.SetAutomatic(ctx, c.origin, !c.unset))
}
