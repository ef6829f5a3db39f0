// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package manifest reads and writes package manifests, the YAML documents
// describing a package and everything it installs.
package manifest

import (
	"sort"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/juju/pkgdb/core/packages"
)

// document is the serialized form of a manifest.
type document struct {
	Origin       string              `yaml:"origin"`
	Name         string              `yaml:"name"`
	Version      string              `yaml:"version"`
	Comment      string              `yaml:"comment,omitempty"`
	Description  string              `yaml:"desc,omitempty"`
	Message      string              `yaml:"message,omitempty"`
	Arch         string              `yaml:"arch,omitempty"`
	OSVersion    string              `yaml:"osversion,omitempty"`
	Maintainer   string              `yaml:"maintainer,omitempty"`
	WWW          string              `yaml:"www,omitempty"`
	Prefix       string              `yaml:"prefix,omitempty"`
	FlatSize     int64               `yaml:"flatsize,omitempty"`
	Automatic    bool                `yaml:"automatic,omitempty"`
	LicenseLogic string              `yaml:"licenselogic,omitempty"`
	Licenses     []string            `yaml:"licenses,omitempty"`
	Categories   []string            `yaml:"categories,omitempty"`
	Deps         map[string]depEntry `yaml:"deps,omitempty"`
	Files        map[string]string   `yaml:"files,omitempty"`
	Dirs         []dirEntry          `yaml:"dirs,omitempty"`
	Scripts      map[string]string   `yaml:"scripts,omitempty"`
	Options      map[string]string   `yaml:"options,omitempty"`
	Users        []string            `yaml:"users,omitempty"`
	Groups       []string            `yaml:"groups,omitempty"`
	Mtree        string              `yaml:"mtree,omitempty"`
}

type depEntry struct {
	Origin  string `yaml:"origin"`
	Version string `yaml:"version"`
}

// dirEntry accepts either a bare path or a mapping with a try flag.
type dirEntry struct {
	Path string `yaml:"path"`
	Try  bool   `yaml:"try,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *dirEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&d.Path)
	}
	type plain dirEntry
	return node.Decode((*plain)(d))
}

// MarshalYAML implements yaml.Marshaler.
func (d dirEntry) MarshalYAML() (interface{}, error) {
	if !d.Try {
		return d.Path, nil
	}
	type plain dirEntry
	return plain(d), nil
}

// Parse reads a manifest into a package. Maps in the manifest are read in
// key order so the result does not depend on the document layout.
func Parse(data []byte) (*packages.Package, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Annotate(err, "parsing manifest")
	}

	logic, err := packages.ParseLicenseLogic(doc.LicenseLogic)
	if err != nil {
		return nil, errors.Trace(err)
	}
	pkg := &packages.Package{
		Origin:          doc.Origin,
		Name:            doc.Name,
		Version:         doc.Version,
		Comment:         doc.Comment,
		Description:     doc.Description,
		Message:         doc.Message,
		Arch:            doc.Arch,
		OSVersion:       doc.OSVersion,
		Maintainer:      doc.Maintainer,
		WWW:             doc.WWW,
		Prefix:          doc.Prefix,
		FlatSize:        doc.FlatSize,
		Automatic:       doc.Automatic,
		LicenseLogic:    logic,
		Licenses:        doc.Licenses,
		Categories:      doc.Categories,
		ContentManifest: doc.Mtree,
		Kind:            packages.Manifest,
	}

	for _, name := range sortedKeys(doc.Deps) {
		dep := doc.Deps[name]
		pkg.Deps = append(pkg.Deps, packages.Dependency{Name: name, Origin: dep.Origin, Version: dep.Version})
	}
	for _, path := range sortedKeys(doc.Files) {
		pkg.Files = append(pkg.Files, packages.File{Path: path, Checksum: doc.Files[path]})
	}
	for _, dir := range doc.Dirs {
		pkg.Dirs = append(pkg.Dirs, packages.Directory{Path: dir.Path, Try: dir.Try})
	}
	for _, name := range sortedKeys(doc.Scripts) {
		t, err := packages.ParseScriptType(name)
		if err != nil {
			return nil, errors.Trace(err)
		}
		pkg.Scripts = append(pkg.Scripts, packages.Script{Type: t, Body: doc.Scripts[name]})
	}
	sort.Slice(pkg.Scripts, func(i, j int) bool {
		return pkg.Scripts[i].Type < pkg.Scripts[j].Type
	})
	for _, key := range sortedKeys(doc.Options) {
		pkg.Options = append(pkg.Options, packages.Option{Key: key, Value: doc.Options[key]})
	}
	for _, name := range doc.Users {
		pkg.Users = append(pkg.Users, packages.User{Name: name})
	}
	for _, name := range doc.Groups {
		pkg.Groups = append(pkg.Groups, packages.Group{Name: name})
	}

	if err := pkg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return pkg, nil
}

// Emit writes the package as a manifest.
func Emit(pkg *packages.Package) ([]byte, error) {
	doc := document{
		Origin:      pkg.Origin,
		Name:        pkg.Name,
		Version:     pkg.Version,
		Comment:     pkg.Comment,
		Description: pkg.Description,
		Message:     pkg.Message,
		Arch:        pkg.Arch,
		OSVersion:   pkg.OSVersion,
		Maintainer:  pkg.Maintainer,
		WWW:         pkg.WWW,
		Prefix:      pkg.Prefix,
		FlatSize:    pkg.FlatSize,
		Automatic:   pkg.Automatic,
		Licenses:    pkg.Licenses,
		Categories:  pkg.Categories,
		Mtree:       pkg.ContentManifest,
	}
	if pkg.LicenseLogic != 0 && pkg.LicenseLogic != packages.LicenseSingle {
		doc.LicenseLogic = pkg.LicenseLogic.String()
	}
	if len(pkg.Deps) > 0 {
		doc.Deps = make(map[string]depEntry, len(pkg.Deps))
		for _, dep := range pkg.Deps {
			doc.Deps[dep.Name] = depEntry{Origin: dep.Origin, Version: dep.Version}
		}
	}
	if len(pkg.Files) > 0 {
		doc.Files = make(map[string]string, len(pkg.Files))
		for _, f := range pkg.Files {
			doc.Files[f.Path] = f.Checksum
		}
	}
	for _, d := range pkg.Dirs {
		doc.Dirs = append(doc.Dirs, dirEntry{Path: d.Path, Try: d.Try})
	}
	if len(pkg.Scripts) > 0 {
		doc.Scripts = make(map[string]string, len(pkg.Scripts))
		for _, s := range pkg.Scripts {
			doc.Scripts[s.Type.String()] = s.Body
		}
	}
	if len(pkg.Options) > 0 {
		doc.Options = make(map[string]string, len(pkg.Options))
		for _, o := range pkg.Options {
			doc.Options[o.Key] = o.Value
		}
	}
	for _, u := range pkg.Users {
		doc.Users = append(doc.Users, u.Name)
	}
	for _, g := range pkg.Groups {
		doc.Groups = append(doc.Groups, g.Name)
	}

	data, err := yaml.Marshal(doc)
	return data, errors.Annotatef(err, "emitting manifest of %s", pkg)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
