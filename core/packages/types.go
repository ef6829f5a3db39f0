// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package packages

import (
	"github.com/juju/errors"
)

// Dependency is an edge to another package, identified by origin.
type Dependency struct {
	Name    string
	Origin  string
	Version string
}

// File is a file installed by a package.
type File struct {
	Path     string
	Checksum string
}

// Directory is a directory owned by a package. Try directories are removed
// on deinstall only if empty.
type Directory struct {
	Path string
	Try  bool
}

// Option is a build option of a package.
type Option struct {
	Key   string
	Value string
}

// User is a system user required by a package. UID is filled in from the
// host when it can be resolved.
type User struct {
	Name string
	UID  string
}

// Group is a system group required by a package.
type Group struct {
	Name string
	GID  string
}

// Script is a maintainer script run at the given phase.
type Script struct {
	Type ScriptType
	Body string
}

// ScriptType is the phase a script runs at. The values are stored in the
// catalog and must not change.
type ScriptType int

const (
	PreInstall ScriptType = iota
	PostInstall
	PreDeinstall
	PostDeinstall
	PreUpgrade
	PostUpgrade
	Install
	Deinstall
	Upgrade
)

var scriptTypeNames = []string{
	"pre-install",
	"post-install",
	"pre-deinstall",
	"post-deinstall",
	"pre-upgrade",
	"post-upgrade",
	"install",
	"deinstall",
	"upgrade",
}

// String returns the name of the script type.
func (t ScriptType) String() string {
	if t < 0 || int(t) >= len(scriptTypeNames) {
		return "unknown"
	}
	return scriptTypeNames[t]
}

// Validate returns an error if the script type is unknown.
func (t ScriptType) Validate() error {
	if t < 0 || int(t) >= len(scriptTypeNames) {
		return errors.NotValidf("script type %d", int(t))
	}
	return nil
}

// ParseScriptType returns the script type with the given name.
func ParseScriptType(name string) (ScriptType, error) {
	for i, n := range scriptTypeNames {
		if n == name {
			return ScriptType(i), nil
		}
	}
	return 0, errors.NotValidf("script type %q", name)
}

// LicenseLogic describes how multiple licenses of a package combine.
type LicenseLogic int

const (
	LicenseSingle LicenseLogic = 1
	LicenseOr     LicenseLogic = '|'
	LicenseAnd    LicenseLogic = '&'
)

// String returns the name of the license logic.
func (l LicenseLogic) String() string {
	switch l {
	case LicenseSingle:
		return "single"
	case LicenseOr:
		return "or"
	case LicenseAnd:
		return "and"
	}
	return "unknown"
}

// Validate returns an error if the license logic is unknown. The zero value
// is accepted and treated as single.
func (l LicenseLogic) Validate() error {
	switch l {
	case 0, LicenseSingle, LicenseOr, LicenseAnd:
		return nil
	}
	return errors.NotValidf("license logic %d", int(l))
}

// ParseLicenseLogic returns the license logic with the given name.
func ParseLicenseLogic(name string) (LicenseLogic, error) {
	switch name {
	case "", "single":
		return LicenseSingle, nil
	case "or", "dual":
		return LicenseOr, nil
	case "and", "multi":
		return LicenseAnd, nil
	}
	return 0, errors.NotValidf("license logic %q", name)
}
