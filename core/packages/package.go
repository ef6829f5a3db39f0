// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package packages

import (
	"fmt"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
)

// Kind describes where a package record was read from.
type Kind int

const (
	// Installed packages are read from the local catalog.
	Installed Kind = iota
	// Remote packages are read from an attached repository catalog.
	Remote
	// Manifest packages have not been read from any catalog yet, they
	// were decoded from a manifest.
	Manifest
)

// String returns a human readable name for the kind.
func (k Kind) String() string {
	switch k {
	case Installed:
		return "installed"
	case Remote:
		return "remote"
	case Manifest:
		return "manifest"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Ref identifies a package in diagnostics.
type Ref struct {
	Origin  string
	Name    string
	Version string
}

// String returns the name-version form of the reference.
func (r Ref) String() string {
	return r.Name + "-" + r.Version
}

// Package is a single package record, either installed or available from a
// repository catalog.
type Package struct {
	// ID is the row id of the package inside its catalog.
	ID int64

	Origin       string
	Name         string
	Version      string
	Comment      string
	Description  string
	Message      string
	Arch         string
	OSVersion    string
	Maintainer   string
	WWW          string
	Prefix       string
	FlatSize     int64
	Automatic    bool
	LicenseLogic LicenseLogic

	// ContentManifest is the serialized mtree content manifest. Only
	// installed packages carry one.
	ContentManifest string

	Kind Kind
	// Catalog is the schema name of the attached catalog the record was
	// read from.
	Catalog string

	// The following are only populated by plan and repository queries.
	NewVersion  string
	NewFlatSize int64
	PackageSize int64
	Checksum    string
	RepoPath    string
	Weight      int64

	Deps        []Dependency
	ReverseDeps []Dependency
	Files       []File
	Dirs        []Directory
	Scripts     []Script
	Options     []Option
	Categories  []string
	Licenses    []string
	Users       []User
	Groups      []Group

	loaded set.Strings
}

// Ref returns the reference to the package.
func (p *Package) Ref() Ref {
	return Ref{Origin: p.Origin, Name: p.Name, Version: p.Version}
}

// String returns the name-version form of the package.
func (p *Package) String() string {
	return p.Ref().String()
}

// IsLocal reports whether the package was read from the local catalog.
func (p *Package) IsLocal() bool {
	return p.Kind == Installed
}

// Validate checks the package carries the fields needed to register it.
func (p *Package) Validate() error {
	if p.Name == "" {
		return errors.NotValidf("package with empty name")
	}
	if p.Version == "" {
		return errors.NotValidf("package %q with empty version", p.Name)
	}
	if p.Origin == "" {
		return errors.NotValidf("package %q with empty origin", p.Name)
	}
	if !strings.Contains(p.Origin, "/") {
		return errors.NotValidf("package %q origin %q", p.Name, p.Origin)
	}
	if err := p.LicenseLogic.Validate(); err != nil {
		return errors.Annotatef(err, "package %q", p.Name)
	}
	for _, s := range p.Scripts {
		if err := s.Type.Validate(); err != nil {
			return errors.Annotatef(err, "package %q", p.Name)
		}
	}
	return nil
}
