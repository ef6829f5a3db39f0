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

const infoDoc = `
Lists the installed packages matching the patterns. A pattern containing a
slash is matched against the origin, anything else against the name or the
name-version pair.

Examples:
    pkgdb info -a
    pkgdb info -g 'py3*'
    pkgdb info --full devel/git
`

type infoCommand struct {
	cmd.CommandBase
	*globals

	out      cmd.Output
	matching matchFlags
	full     bool
	patterns []string
}

func (c *infoCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "info",
		Args:    "<pattern>...",
		Purpose: "List installed packages.",
		Doc:     infoDoc,
	}
}

func (c *infoCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "tabular", packageFormatters)
	c.matching.addFlags(f)
	f.BoolVar(&c.full, "full", false, "Include dependencies, files, categories and licenses")
}

func (c *infoCommand) Init(args []string) error {
	if len(args) == 0 && !c.matching.all {
		return errors.New("no package pattern specified")
	}
	c.patterns = args
	_, err := c.matching.match()
	return errors.Trace(err)
}

func (c *infoCommand) Run(ctx *cmd.Context) error {
	match, _ := c.matching.match()
	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	var attrs []packages.Attribute
	if c.full {
		attrs = []packages.Attribute{packages.Deps, packages.Files, packages.Categories, packages.Licenses}
	}
	patterns := c.patterns
	if match == packages.MatchAll {
		patterns = []string{""}
	}

	var result []*packages.Package
	for _, pattern := range patterns {
		it, err := session.Query(ctx, pattern, match)
		if err != nil {
			return errors.Trace(err)
		}
		pkgs, err := it.All(ctx, attrs...)
		if err != nil {
			return errors.Trace(err)
		}
		if len(pkgs) == 0 {
			ctx.Infof("no installed package matches %q", pattern)
		}
		result = append(result, pkgs...)
	}
	return c.out.Write(ctx, toPackageInfos(result))
}

type whichCommand struct {
	cmd.CommandBase
	*globals

	out  cmd.Output
	path string
}

func (c *whichCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "which",
		Args:    "<file>",
		Purpose: "Show the installed package owning a file.",
	}
}

func (c *whichCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "tabular", packageFormatters)
}

func (c *whichCommand) Init(args []string) error {
	if len(args) != 1 {
		return errors.New("expected a single file path")
	}
	c.path = args[0]
	return nil
}

func (c *whichCommand) Run(ctx *cmd.Context) error {
	session, err := c.open(ctx, pkgdb.Local)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	it, err := session.Which(ctx, ctx.AbsPath(c.path))
	if err != nil {
		return errors.Trace(err)
	}
	pkgs, err := it.All(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if len(pkgs) == 0 {
		return errors.NotFoundf("package owning %s", c.path)
	}
	return c.out.Write(ctx, toPackageInfos(pkgs))
}

var searchFields = map[string]packages.Field{
	"origin":  packages.FieldOrigin,
	"name":    packages.FieldName,
	"namever": packages.FieldNameVersion,
	"comment": packages.FieldComment,
	"desc":    packages.FieldDescription,
}

type searchCommand struct {
	cmd.CommandBase
	*globals

	out      cmd.Output
	matching matchFlags
	field    string
	repo     string
	pattern  string
}

func (c *searchCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "search",
		Args:    "<pattern>",
		Purpose: "Search the repository catalogs.",
		Doc: `
Searches one field of the repository catalogs. Every attached repository is
searched unless --repo names one.
`,
	}
}

func (c *searchCommand) SetFlags(f *gnuflag.FlagSet) {
	c.out.AddFlags(f, "tabular", packageFormatters)
	c.matching.addFlags(f)
	f.StringVar(&c.field, "field", "name", "Field to search (origin|name|namever|comment|desc)")
	f.StringVar(&c.repo, "repo", "", "Only search this repository")
}

func (c *searchCommand) Init(args []string) error {
	if _, ok := searchFields[c.field]; !ok {
		return errors.NotValidf("search field %q", c.field)
	}
	switch {
	case len(args) == 1:
		c.pattern = args[0]
	case len(args) == 0 && c.matching.all:
	default:
		return errors.New("expected a single pattern")
	}
	_, err := c.matching.match()
	return errors.Trace(err)
}

func (c *searchCommand) Run(ctx *cmd.Context) error {
	match, _ := c.matching.match()
	session, err := c.open(ctx, pkgdb.Remote)
	if err != nil {
		return errors.Trace(err)
	}
	defer session.Close()

	it, err := session.Search(ctx, c.pattern, match, searchFields[c.field], c.repo)
	if err != nil {
		return errors.Trace(err)
	}
	pkgs, err := it.All(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	return c.out.Write(ctx, toPackageInfos(pkgs))
}
