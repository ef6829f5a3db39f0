// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/juju/ansiterm"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/pkgdb"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/internal/cmd"
	"github.com/juju/pkgdb/internal/config"
)

// loadConfig reads the configuration file and applies the command line
// overrides.
func (g *globals) loadConfig() (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, errors.Trace(err)
	}
	if g.dbDir != "" {
		cfg.DBDir = g.dbDir
	}
	return cfg, nil
}

// open opens a session on the configured database.
func (g *globals) open(ctx *cmd.Context, mode pkgdb.Mode) (*pkgdb.Session, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, errors.Trace(err)
	}
	session, err := pkgdb.Open(ctx, pkgdb.Config{
		DBDir:           cfg.DBDir,
		ReadOnly:        g.readOnly,
		MultiRepos:      cfg.MultiRepos,
		Repositories:    cfg.RepositoryNames(),
		RegexpCacheSize: cfg.RegexpCacheSize,
	}, mode)
	return session, errors.Trace(err)
}

// matchFlags selects how patterns are matched.
type matchFlags struct {
	all      bool
	glob     bool
	regex    bool
	extended bool
}

func (m *matchFlags) addFlags(f *gnuflag.FlagSet) {
	f.BoolVar(&m.all, "a", false, "Match every package")
	f.BoolVar(&m.glob, "g", false, "Treat patterns as shell globs")
	f.BoolVar(&m.regex, "x", false, "Treat patterns as basic regular expressions")
	f.BoolVar(&m.extended, "e", false, "Treat patterns as extended regular expressions")
}

func (m *matchFlags) match() (packages.Match, error) {
	chosen := 0
	result := packages.MatchExact
	for _, opt := range []struct {
		set   bool
		match packages.Match
	}{
		{m.all, packages.MatchAll},
		{m.glob, packages.MatchGlob},
		{m.regex, packages.MatchRegex},
		{m.extended, packages.MatchExtendedRegex},
	} {
		if opt.set {
			chosen++
			result = opt.match
		}
	}
	if chosen > 1 {
		return 0, errors.New("only one of -a, -g, -x and -e may be given")
	}
	return result, nil
}

// packageInfo is the printed form of a package.
type packageInfo struct {
	Origin     string   `yaml:"origin" json:"origin"`
	Name       string   `yaml:"name" json:"name"`
	Version    string   `yaml:"version" json:"version"`
	NewVersion string   `yaml:"new-version,omitempty" json:"new-version,omitempty"`
	Comment    string   `yaml:"comment,omitempty" json:"comment,omitempty"`
	Repository string   `yaml:"repository,omitempty" json:"repository,omitempty"`
	Size       string   `yaml:"size" json:"size"`
	Automatic  bool     `yaml:"automatic,omitempty" json:"automatic,omitempty"`
	Licenses   []string `yaml:"licenses,omitempty" json:"licenses,omitempty"`
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`
	Deps       []string `yaml:"deps,omitempty" json:"deps,omitempty"`
	Files      []string `yaml:"files,omitempty" json:"files,omitempty"`
}

func toPackageInfo(pkg *packages.Package) packageInfo {
	info := packageInfo{
		Origin:     pkg.Origin,
		Name:       pkg.Name,
		Version:    pkg.Version,
		NewVersion: pkg.NewVersion,
		Comment:    pkg.Comment,
		Size:       humanize.IBytes(uint64(pkg.FlatSize)),
		Automatic:  pkg.Automatic,
		Licenses:   pkg.Licenses,
		Categories: pkg.Categories,
	}
	if !pkg.IsLocal() {
		info.Repository = pkg.Catalog
	}
	if pkg.NewFlatSize > 0 {
		info.Size = humanize.IBytes(uint64(pkg.NewFlatSize))
	}
	for _, dep := range pkg.Deps {
		info.Deps = append(info.Deps, dep.Name+"-"+dep.Version)
	}
	for _, f := range pkg.Files {
		info.Files = append(info.Files, f.Path)
	}
	return info
}

func toPackageInfos(pkgs []*packages.Package) []packageInfo {
	infos := make([]packageInfo, len(pkgs))
	for i, pkg := range pkgs {
		infos[i] = toPackageInfo(pkg)
	}
	return infos
}

// packageFormatters add a tabular listing to the default formatters.
var packageFormatters = map[string]cmd.Formatter{
	"yaml":    cmd.FormatYaml,
	"json":    cmd.FormatJson,
	"tabular": formatPackagesTabular,
}

func formatPackagesTabular(w io.Writer, value any) error {
	infos, ok := value.([]packageInfo)
	if !ok {
		return errors.Errorf("expected []packageInfo, got %T", value)
	}
	tw := ansiterm.NewTabWriter(w, 0, 1, 2, ' ', 0)
	for _, info := range infos {
		version := info.Version
		if info.NewVersion != "" {
			version += " -> " + info.NewVersion
		}
		fmt.Fprintf(tw, "%s-%s\t%s\t%s\n", info.Name, version, info.Size, info.Comment)
	}
	return errors.Trace(tw.Flush())
}
