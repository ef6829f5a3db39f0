// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"
	"database/sql"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
	internaldatabase "github.com/juju/pkgdb/internal/database"
)

const upsertPackage = `
INSERT INTO main.packages (origin, name, version, comment, desc, message, arch,
    osversion, maintainer, www, prefix, flatsize, automatic, licenselogic, mtree_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
    (SELECT id FROM main.mtree WHERE content = ?))
ON CONFLICT(origin) DO UPDATE SET
    name = excluded.name,
    version = excluded.version,
    comment = excluded.comment,
    desc = excluded.desc,
    message = excluded.message,
    arch = excluded.arch,
    osversion = excluded.osversion,
    maintainer = excluded.maintainer,
    www = excluded.www,
    prefix = excluded.prefix,
    flatsize = excluded.flatsize,
    automatic = excluded.automatic,
    licenselogic = excluded.licenselogic,
    mtree_id = excluded.mtree_id`

// Child rows are replaced wholesale on every registration.
var clearChildren = []string{
	"DELETE FROM main.deps WHERE package_id = ?",
	"DELETE FROM main.files WHERE package_id = ?",
	"DELETE FROM main.scripts WHERE package_id = ?",
	"DELETE FROM main.options WHERE package_id = ?",
	"DELETE FROM main.pkg_directories WHERE package_id = ?",
	"DELETE FROM main.pkg_categories WHERE package_id = ?",
	"DELETE FROM main.pkg_licenses WHERE package_id = ?",
	"DELETE FROM main.pkg_users WHERE package_id = ?",
	"DELETE FROM main.pkg_groups WHERE package_id = ?",
}

// Rows of shared tables that no package references any more.
var collectGarbage = []string{
	`DELETE FROM main.directories WHERE id NOT IN
    (SELECT DISTINCT directory_id FROM main.pkg_directories WHERE directory_id IS NOT NULL)`,
	`DELETE FROM main.categories WHERE id NOT IN
    (SELECT DISTINCT category_id FROM main.pkg_categories WHERE category_id IS NOT NULL)`,
	`DELETE FROM main.licenses WHERE id NOT IN
    (SELECT DISTINCT license_id FROM main.pkg_licenses WHERE license_id IS NOT NULL)`,
	`DELETE FROM main.users WHERE id NOT IN
    (SELECT DISTINCT user_id FROM main.pkg_users WHERE user_id IS NOT NULL)`,
	`DELETE FROM main."groups" WHERE id NOT IN
    (SELECT DISTINCT group_id FROM main.pkg_groups WHERE group_id IS NOT NULL)`,
	`DELETE FROM main.mtree WHERE id NOT IN
    (SELECT DISTINCT mtree_id FROM main.packages WHERE mtree_id IS NOT NULL)`,
}

// RegisterPackage records the package and all of its attributes in the
// local catalog. An already registered origin keeps its row id and has its
// attributes replaced. The package ID is updated on success.
func (st *State) RegisterPackage(ctx context.Context, q database.Querier, pkg *packages.Package) error {
	if err := pkg.Validate(); err != nil {
		return errors.Trace(err)
	}

	var content any
	if pkg.ContentManifest != "" {
		content = pkg.ContentManifest
		if _, err := q.ExecContext(ctx, "INSERT OR IGNORE INTO main.mtree (content) VALUES (?)", content); err != nil {
			return errors.Annotate(err, "inserting content manifest")
		}
	}

	logic := pkg.LicenseLogic
	if logic == 0 {
		logic = packages.LicenseSingle
	}
	if _, err := q.ExecContext(ctx, upsertPackage,
		pkg.Origin, pkg.Name, pkg.Version, pkg.Comment, pkg.Description, pkg.Message, pkg.Arch,
		pkg.OSVersion, pkg.Maintainer, pkg.WWW, pkg.Prefix, pkg.FlatSize, pkg.Automatic, int(logic),
		content,
	); err != nil {
		return errors.Annotatef(err, "inserting package %s", pkg)
	}

	var id int64
	if err := q.QueryRowContext(ctx, "SELECT id FROM main.packages WHERE origin = ?", pkg.Origin).Scan(&id); err != nil {
		return errors.Annotatef(err, "reading id of package %s", pkg)
	}

	for _, stmt := range clearChildren {
		if _, err := q.ExecContext(ctx, stmt, id); err != nil {
			return errors.Annotatef(err, "clearing attributes of package %s", pkg)
		}
	}

	if err := st.insertAttributes(ctx, q, id, pkg); err != nil {
		return errors.Trace(err)
	}
	if err := exec(ctx, q, collectGarbage...); err != nil {
		return errors.Trace(err)
	}

	pkg.ID = id
	return nil
}

func (st *State) insertAttributes(ctx context.Context, q database.Querier, id int64, pkg *packages.Package) error {
	for _, dep := range pkg.Deps {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO main.deps (origin, name, version, package_id) VALUES (?, ?, ?, ?)",
			dep.Origin, dep.Name, dep.Version, id,
		); err != nil {
			return errors.Annotatef(err, "inserting dependency %s of %s", dep.Origin, pkg)
		}
	}

	for _, file := range pkg.Files {
		_, err := q.ExecContext(ctx,
			"INSERT INTO main.files (path, sha256, package_id) VALUES (?, ?, ?)",
			file.Path, file.Checksum, id,
		)
		if internaldatabase.IsErrConstraintKey(err) {
			return errors.Trace(st.fileConflict(ctx, q, pkg, file.Path))
		} else if err != nil {
			return errors.Annotatef(err, "inserting file %s of %s", file.Path, pkg)
		}
	}

	for _, dir := range pkg.Dirs {
		if _, err := q.ExecContext(ctx, "INSERT OR IGNORE INTO main.directories (path) VALUES (?)", dir.Path); err != nil {
			return errors.Annotatef(err, "inserting directory %s", dir.Path)
		}
		_, err := q.ExecContext(ctx, `
INSERT INTO main.pkg_directories (package_id, directory_id, try)
VALUES (?, (SELECT id FROM main.directories WHERE path = ?), ?)`,
			id, dir.Path, dir.Try,
		)
		if internaldatabase.IsErrConstraintKey(err) {
			conflict := &pkgerrors.DirectoryConflictError{Package: pkg.Ref(), Path: dir.Path}
			st.logger.Errorf("%s", conflict)
			return errors.Trace(conflict)
		} else if err != nil {
			return errors.Annotatef(err, "inserting directory %s of %s", dir.Path, pkg)
		}
	}

	for _, dim := range []struct {
		table, join, key string
		names            []string
	}{
		{"categories", "pkg_categories", "category_id", pkg.Categories},
		{"licenses", "pkg_licenses", "license_id", pkg.Licenses},
		{"users", "pkg_users", "user_id", userNames(pkg.Users)},
		{`"groups"`, "pkg_groups", "group_id", groupNames(pkg.Groups)},
	} {
		for _, name := range dim.names {
			if err := insertName(ctx, q, dim.table, dim.join, dim.key, id, name); err != nil {
				return errors.Annotatef(err, "inserting %s %q of %s", dim.table, name, pkg)
			}
		}
	}

	for _, script := range pkg.Scripts {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO main.scripts (script, type, package_id) VALUES (?, ?, ?)",
			script.Body, int(script.Type), id,
		); err != nil {
			return errors.Annotatef(err, "inserting %s script of %s", script.Type, pkg)
		}
	}

	for _, opt := range pkg.Options {
		if _, err := q.ExecContext(ctx,
			"INSERT INTO main.options (option, value, package_id) VALUES (?, ?, ?)",
			opt.Key, opt.Value, id,
		); err != nil {
			return errors.Annotatef(err, "inserting option %s of %s", opt.Key, pkg)
		}
	}
	return nil
}

func insertName(ctx context.Context, q database.Querier, table, join, key string, id int64, name string) error {
	if _, err := q.ExecContext(ctx, "INSERT OR IGNORE INTO main."+table+" (name) VALUES (?)", name); err != nil {
		return errors.Trace(err)
	}
	_, err := q.ExecContext(ctx,
		"INSERT OR IGNORE INTO main."+join+" (package_id, "+key+") VALUES (?, (SELECT id FROM main."+table+" WHERE name = ?))",
		id, name,
	)
	return errors.Trace(err)
}

// fileConflict builds the error for a file already owned by another
// package.
func (st *State) fileConflict(ctx context.Context, q database.Querier, pkg *packages.Package, path string) error {
	var owner packages.Ref
	err := q.QueryRowContext(ctx, `
SELECT p.origin, p.name, p.version
FROM main.packages AS p
JOIN main.files AS f ON f.package_id = p.id
WHERE f.path = ?`, path).Scan(&owner.Origin, &owner.Name, &owner.Version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errors.Annotatef(err, "finding owner of %s", path)
	}
	conflict := &pkgerrors.FileConflictError{
		Package: pkg.Ref(),
		Owner:   owner,
		Path:    path,
	}
	st.logger.Errorf("%s", conflict)
	return conflict
}

// UnregisterPackage removes the package with the given origin and every
// shared row only it referenced. Removing an unknown origin is not an
// error.
func (st *State) UnregisterPackage(ctx context.Context, q database.Querier, origin string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM main.packages WHERE origin = ?", origin); err != nil {
		return errors.Annotatef(err, "deleting package %s", origin)
	}
	return errors.Trace(exec(ctx, q, collectGarbage...))
}

// SetAutomatic updates the automatic flag of an installed package.
func (st *State) SetAutomatic(ctx context.Context, q database.Querier, origin string, automatic bool) error {
	res, err := q.ExecContext(ctx, "UPDATE main.packages SET automatic = ? WHERE origin = ?", automatic, origin)
	if err != nil {
		return errors.Annotatef(err, "updating package %s", origin)
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Trace(err)
	} else if n == 0 {
		return errors.NotFoundf("package %s", origin)
	}
	return nil
}

func userNames(users []packages.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Name
	}
	return names
}

func groupNames(groups []packages.Group) []string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}
