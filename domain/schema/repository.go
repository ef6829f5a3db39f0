// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package schema

import (
	"github.com/juju/pkgdb/core/database/schema"
)

// RepositoryVersion is the current repository catalog version.
const RepositoryVersion = 1

// RepositoryDDL is used to create repository catalogs. The dependency,
// option, category and license tables share their layout with the local
// catalog so queries over them work against either.
func RepositoryDDL() *schema.Schema {
	return schema.New(RepositoryVersion, schema.MakePatch(`
CREATE TABLE packages (
    id           INTEGER PRIMARY KEY,
    origin       TEXT UNIQUE NOT NULL,
    name         TEXT NOT NULL,
    version      TEXT NOT NULL,
    comment      TEXT NOT NULL,
    desc         TEXT NOT NULL,
    arch         TEXT NOT NULL,
    osversion    TEXT NOT NULL,
    maintainer   TEXT NOT NULL,
    www          TEXT,
    prefix       TEXT NOT NULL,
    pkgsize      INTEGER NOT NULL,
    flatsize     INTEGER NOT NULL,
    licenselogic INTEGER NOT NULL,
    cksum        TEXT NOT NULL,
    path         TEXT NOT NULL
);

CREATE TABLE deps (
    origin     TEXT NOT NULL,
    name       TEXT NOT NULL,
    version    TEXT NOT NULL,
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    PRIMARY KEY (package_id, origin)
);

CREATE INDEX deps_origin ON deps (origin);

CREATE TABLE options (
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    option     TEXT,
    value      TEXT,
    PRIMARY KEY (package_id, option)
);

CREATE TABLE categories (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE pkg_categories (
    package_id  INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    category_id INTEGER REFERENCES categories(id) ON DELETE RESTRICT ON UPDATE RESTRICT,
    PRIMARY KEY (package_id, category_id)
);

CREATE TABLE licenses (
    id   INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE pkg_licenses (
    package_id INTEGER REFERENCES packages(id) ON DELETE CASCADE ON UPDATE CASCADE,
    license_id INTEGER REFERENCES licenses(id) ON DELETE RESTRICT ON UPDATE RESTRICT,
    PRIMARY KEY (package_id, license_id)
);`[1:]))
}
