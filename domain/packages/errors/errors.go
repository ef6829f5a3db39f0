// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package errors

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/packages"
)

const (
	// ReadOnly is raised when a write is attempted on a database opened
	// without write access.
	ReadOnly = errors.ConstError("database opened read-only")

	// RemoteNotAttached is raised when a repository operation is requested
	// on a session opened without repository catalogs.
	RemoteNotAttached = errors.ConstError("remote database not attached")

	// RepositoryNotFound is raised when the requested repository catalog is
	// not attached.
	RepositoryNotFound = errors.ConstError("repository not found")

	// NoDefaultRepository is raised when multiple repositories are enabled
	// but none is named "default".
	NoDefaultRepository = errors.ConstError("no default repository defined")

	// ReservedCatalogName is raised when a repository catalog is attached
	// under a reserved name.
	ReservedCatalogName = errors.ConstError("reserved catalog name")

	// AttributeNotSupported is raised when loading an attribute that the
	// package's catalog does not store.
	AttributeNotSupported = errors.ConstError("attribute not supported")

	// TxnInProgress is raised when beginning a transaction or attaching a
	// catalog while a transaction is open.
	TxnInProgress = errors.ConstError("transaction already in progress")

	// NoTxnInProgress is raised when committing or rolling back without an
	// open transaction.
	NoTxnInProgress = errors.ConstError("no transaction in progress")

	// SessionClosed is raised when a closed session is used.
	SessionClosed = errors.ConstError("session closed")

	// FileConflict is raised when two packages claim the same file.
	FileConflict = errors.ConstError("file conflict")

	// DirectoryConflict is raised when a package lists a directory twice.
	DirectoryConflict = errors.ConstError("directory conflict")

	// IntegrityConflict is raised when the integrity check finds paths
	// claimed by more than one package.
	IntegrityConflict = errors.ConstError("integrity conflict")
)

// FileConflictError describes a file registered by a package that is
// already owned by another installed package.
type FileConflictError struct {
	Package packages.Ref
	Owner   packages.Ref
	Path    string
}

// Error implements error.
func (e *FileConflictError) Error() string {
	return fmt.Sprintf("%s conflicts with %s (installs files into the same place). Problematic file: %s",
		e.Package, e.Owner, e.Path)
}

// Unwrap returns FileConflict so the error matches it with errors.Is.
func (e *FileConflictError) Unwrap() error {
	return FileConflict
}

// DirectoryConflictError describes a directory listed twice by a package.
type DirectoryConflictError struct {
	Package packages.Ref
	Path    string
}

// Error implements error.
func (e *DirectoryConflictError) Error() string {
	return fmt.Sprintf("%s lists directory %s more than once", e.Package, e.Path)
}

// Unwrap returns DirectoryConflict so the error matches it with errors.Is.
func (e *DirectoryConflictError) Unwrap() error {
	return DirectoryConflict
}

// Conflict is a path claimed by more than one package.
type Conflict struct {
	Path   string
	Owners []packages.Ref
}

// String returns the diagnostic for the conflict.
func (c Conflict) String() string {
	owners := make([]string, len(c.Owners))
	for i, o := range c.Owners {
		owners[i] = o.String()
		if o.Origin != "" {
			owners[i] += " (" + o.Origin + ")"
		}
	}
	return fmt.Sprintf("%s conflict on %s", strings.Join(owners, ", "), c.Path)
}

// IntegrityError lists every conflict found by an integrity check.
type IntegrityError struct {
	Conflicts []Conflict
}

// Error implements error.
func (e *IntegrityError) Error() string {
	lines := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		lines[i] = c.String()
	}
	return fmt.Sprintf("%d conflicting paths: %s", len(e.Conflicts), strings.Join(lines, "; "))
}

// Unwrap returns IntegrityConflict so the error matches it with errors.Is.
func (e *IntegrityError) Unwrap() error {
	return IntegrityConflict
}
