// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package schema

import (
	"github.com/juju/pkgdb/core/database/schema"
)

const (
	// LocalBaseVersion is the oldest local catalog version that can still
	// be upgraded.
	LocalBaseVersion = 5

	// LocalVersion is the current local catalog version.
	LocalVersion = 8
)

// LocalDDL is used to create and upgrade the local catalog of installed
// packages.
func LocalDDL() *schema.Schema {
	return schema.New(LocalBaseVersion, LocalBaseline()...).
		AddMigration(6, userSchema()).
		AddMigration(7, groupSchema()).
		AddMigration(8, depOriginIndex(), packageFormatVersion())
}

// LocalBaseline returns the patches producing the local catalog at
// LocalBaseVersion.
func LocalBaseline() []schema.Patch {
	patches := []func() schema.Patch{
		packageSchema,
		dependencySchema,
		fileSchema,
		directorySchema,
		categorySchema,
		licenseSchema,
	}

	baseline := make([]schema.Patch, len(patches))
	for i, fn := range patches {
		baseline[i] = fn()
	}
	return baseline
}

func packageSchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE mtree (
    id      INTEGER PRIMARY KEY,
    content TEXT UNIQUE
);

CREATE TABLE packages (
    id           INTEGER PRIMARY KEY,
    origin       TEXT UNIQUE NOT NULL,
    name         TEXT NOT NULL,
    version      TEXT NOT NULL,
    comment      TEXT NOT NULL,
    desc         TEXT NOT NULL,
    mtree_id     INTEGER REFERENCES mtree(id) ON DELETE RESTRICT ON UPDATE CASCADE,
    message      TEXT,
    arch         TEXT NOT NULL,
    osversion    TEXT NOT NULL,
    maintainer   TEXT NOT NULL,
    www          TEXT,
    prefix       TEXT NOT NULL,
    flatsize     INTEGER NOT NULL,
    automatic    INTEGER NOT NULL,
    licenselogic INTEGER NOT NULL
);

CREATE TABLE scripts (
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    script     TEXT,
    type       INTEGER,
    PRIMARY KEY (package_id, type)
);

CREATE TABLE options (
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    option     TEXT,
    value      TEXT,
    PRIMARY KEY (package_id, option)
);`[1:])
}

func dependencySchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE deps (
    origin     TEXT NOT NULL,
    name       TEXT NOT NULL,
    version    TEXT NOT NULL,
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    PRIMARY KEY (package_id, origin)
);`[1:])
}

func fileSchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE files (
    path       TEXT PRIMARY KEY,
    sha256     TEXT,
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE
);`[1:])
}

func directorySchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE directories (
    id   INTEGER PRIMARY KEY,
    path TEXT NOT NULL UNIQUE
);

CREATE TABLE pkg_directories (
    package_id   INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    directory_id INTEGER REFERENCES directories(id) ON DELETE RESTRICT ON UPDATE RESTRICT,
    try          INTEGER,
    PRIMARY KEY (package_id, directory_id)
);`[1:])
}

func categorySchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE categories (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE pkg_categories (
    package_id  INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    category_id INTEGER REFERENCES categories(id) ON DELETE RESTRICT ON UPDATE RESTRICT,
    PRIMARY KEY (package_id, category_id)
);`[1:])
}

func licenseSchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE licenses (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE pkg_licenses (
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    license_id INTEGER REFERENCES licenses(id) ON DELETE RESTRICT ON UPDATE RESTRICT,
    PRIMARY KEY (package_id, license_id)
);`[1:])
}

func userSchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE users (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE pkg_users (
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    user_id    INTEGER REFERENCES users(id) ON DELETE RESTRICT ON UPDATE RESTRICT,
    UNIQUE (package_id, user_id)
);`[1:])
}

func groupSchema() schema.Patch {
	return schema.MakePatch(`
CREATE TABLE "groups" (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE pkg_groups (
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    group_id   INTEGER REFERENCES "groups"(id) ON DELETE RESTRICT ON UPDATE RESTRICT,
    UNIQUE (package_id, group_id)
);`[1:])
}

func depOriginIndex() schema.Patch {
	return schema.MakePatch(`CREATE INDEX deporigini ON deps (origin);`)
}

func packageFormatVersion() schema.Patch {
	return schema.MakePatch(`ALTER TABLE packages ADD COLUMN pkg_format_version INTEGER;`)
}
