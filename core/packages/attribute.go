// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package packages

import (
	"github.com/juju/collections/set"
)

// Attribute names a lazily loaded collection of a package.
type Attribute string

const (
	Deps            Attribute = "deps"
	ReverseDeps     Attribute = "rdeps"
	Files           Attribute = "files"
	Dirs            Attribute = "dirs"
	Scripts         Attribute = "scripts"
	Options         Attribute = "options"
	Categories      Attribute = "categories"
	Licenses        Attribute = "licenses"
	Users           Attribute = "users"
	Groups          Attribute = "groups"
	ContentManifest Attribute = "mtree"
)

// AllAttributes holds every attribute in load order.
var AllAttributes = []Attribute{
	Deps, ReverseDeps, Files, Dirs, Scripts, Options,
	Categories, Licenses, Users, Groups, ContentManifest,
}

// LocalOnly reports whether the attribute is only stored for installed
// packages.
func (a Attribute) LocalOnly() bool {
	switch a {
	case Deps, Options, Categories, Licenses:
		return false
	}
	return true
}

// Loaded reports whether the attribute has been loaded into the package.
func (p *Package) Loaded(attr Attribute) bool {
	return p.loaded != nil && p.loaded.Contains(string(attr))
}

// MarkLoaded records that the attribute is fully loaded.
func (p *Package) MarkLoaded(attr Attribute) {
	if p.loaded == nil {
		p.loaded = set.NewStrings()
	}
	p.loaded.Add(string(attr))
}

// Reset discards the attribute collection so a later load reads it again.
func (p *Package) Reset(attr Attribute) {
	switch attr {
	case Deps:
		p.Deps = nil
	case ReverseDeps:
		p.ReverseDeps = nil
	case Files:
		p.Files = nil
	case Dirs:
		p.Dirs = nil
	case Scripts:
		p.Scripts = nil
	case Options:
		p.Options = nil
	case Categories:
		p.Categories = nil
	case Licenses:
		p.Licenses = nil
	case Users:
		p.Users = nil
	case Groups:
		p.Groups = nil
	case ContentManifest:
		p.ContentManifest = ""
	}
	if p.loaded != nil {
		p.loaded.Remove(string(attr))
	}
}
