// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"

	"github.com/juju/pkgdb"
	"github.com/juju/pkgdb/internal/cmd"
)

type backupCommand struct {
	cmd.CommandBase
	*globals

	path string
}

func (c *backupCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "backup",
		Args:    "[<file>]",
		Purpose: "Dump the installed packages to a bundle.",
		Doc: `
Writes a gzipped tar bundle holding the manifest of every installed package.
The bundle goes to stdout unless a file is given.
`,
	}
}

func (c *backupCommand) Init(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		c.path = args[0]
	default:
		return cmd.CheckEmpty(args[1:])
	}
	return nil
}

func (c *backupCommand) Run(ctx *cmd.Context) (err error) {
	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	w := ctx.Stdout
	if c.path != "" {
		f, err := os.Create(ctx.AbsPath(c.path))
		if err != nil {
			return errors.Trace(err)
		}
		defer func() {
			if cErr := f.Close(); cErr != nil && err == nil {
				err = errors.Trace(cErr)
			}
		}()
		w = f
	}
	counter := &countingWriter{w: w}
	n, err := session.Dump(ctx, counter)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("dumped %d packages (%s)", n, humanize.Bytes(counter.n))
	return nil
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

type restoreCommand struct {
	cmd.CommandBase
	*globals

	path string
}

func (c *restoreCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "restore",
		Args:    "[<file>]",
		Purpose: "Register every package of a bundle.",
		Doc: `
Reads a bundle written by backup, from stdin unless a file is given, and
registers all of its packages in a single transaction.
`,
	}
}

func (c *restoreCommand) Init(args []string) error {
	switch len(args) {
	case 0:
	case 1:
		c.path = args[0]
	default:
		return cmd.CheckEmpty(args[1:])
	}
	return nil
}

func (c *restoreCommand) Run(ctx *cmd.Context) error {
	r := ctx.Stdin
	if c.path != "" {
		f, err := os.Open(ctx.AbsPath(c.path))
		if err != nil {
			return errors.Trace(err)
		}
		defer f.Close()
		r = f
	}

	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	n, err := session.Restore(ctx, r)
	if err != nil {
		return errors.Trace(err)
	}
	ctx.Infof("restored %d packages", n)
	return nil
}

type compactCommand struct {
	cmd.CommandBase
	*globals
}

func (c *compactCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "compact",
		Purpose: "Reclaim free space in the local catalog.",
	}
}

func (c *compactCommand) Run(ctx *cmd.Context) error {
	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	done, err := session.Compact(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if done {
		ctx.Infof("local catalog compacted")
	} else {
		ctx.Infof("local catalog has little free space, nothing to do")
	}
	return nil
}
