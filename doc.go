// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package pkgdb is the package database: it tracks installed packages in a
// local catalog, searches attached repository catalogs and plans installs,
// upgrades, downgrades and removals in dependency order.
//
// A Session owns a single SQLite connection. Repository catalogs are
// attached to it by name, so every query can join the local catalog with
// any repository. Sessions are not safe for concurrent use.
package pkgdb
