// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"github.com/juju/collections/set"
)

const (
	// LocalCatalog is the schema name of the local catalog of installed
	// packages.
	LocalCatalog = "main"

	// TempCatalog is the schema name holding temporary tables.
	TempCatalog = "temp"

	// SingleRepository is the alias a lone repository catalog is attached
	// under when multiple repositories are not enabled.
	SingleRepository = "remote"

	// DefaultRepository is the repository used by plans in multi-repository
	// mode when no repository is requested.
	DefaultRepository = "default"

	// LocalFile is the file name of the local catalog inside the database
	// directory.
	LocalFile = "local.sqlite"

	// SingleRepositoryFile is the file name of the lone repository catalog
	// inside the database directory.
	SingleRepositoryFile = "repo.sqlite"

	// CatalogFileSuffix is appended to a repository name to form its file
	// name in multi-repository mode.
	CatalogFileSuffix = ".sqlite"
)

var reservedCatalogs = set.NewStrings(
	"local",
	LocalCatalog,
	TempCatalog,
	SingleRepository,
	"repo",
)

// IsReservedCatalog reports whether name cannot be used for a repository
// catalog.
func IsReservedCatalog(name string) bool {
	return reservedCatalogs.Contains(name)
}

// IsRepositoryCatalog reports whether the attached schema name holds a
// repository catalog.
func IsRepositoryCatalog(name string) bool {
	return name != LocalCatalog && name != TempCatalog
}
