// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
	internaldatabase "github.com/juju/pkgdb/internal/database"
)

// LoadAttributes fills in the requested attribute collections of the
// package. Attributes already loaded are left alone. A failed load leaves
// the collection empty and unloaded.
func (st *State) LoadAttributes(ctx context.Context, q database.Querier, pkg *packages.Package, attrs ...packages.Attribute) error {
	for _, attr := range attrs {
		if pkg.Loaded(attr) {
			continue
		}
		if !pkg.IsLocal() && attr.LocalOnly() {
			return errors.Annotatef(pkgerrors.AttributeNotSupported, "%s of repository package %s", attr, pkg)
		}
		if err := st.loadAttribute(ctx, q, pkg, attr); err != nil {
			pkg.Reset(attr)
			return errors.Annotatef(err, "loading %s of %s", attr, pkg)
		}
		pkg.MarkLoaded(attr)
	}
	return nil
}

func (st *State) loadAttribute(ctx context.Context, q database.Querier, pkg *packages.Package, attr packages.Attribute) error {
	catalog := internaldatabase.QuoteIdentifier(catalogOf(pkg))

	switch attr {
	case packages.Deps:
		query := fmt.Sprintf(`
SELECT d.name, d.origin, d.version
FROM %s.deps AS d
WHERE d.package_id = ?
ORDER BY d.origin`, catalog)
		return queryRows(ctx, q, query, []any{pkg.ID}, func(rows *sql.Rows) error {
			var dep packages.Dependency
			if err := rows.Scan(&dep.Name, &dep.Origin, &dep.Version); err != nil {
				return errors.Trace(err)
			}
			pkg.Deps = append(pkg.Deps, dep)
			return nil
		})

	case packages.ReverseDeps:
		query := `
SELECT p.name, p.origin, p.version
FROM main.packages AS p
JOIN main.deps AS d ON p.id = d.package_id
WHERE d.origin = ?
ORDER BY p.origin`
		return queryRows(ctx, q, query, []any{pkg.Origin}, func(rows *sql.Rows) error {
			var dep packages.Dependency
			if err := rows.Scan(&dep.Name, &dep.Origin, &dep.Version); err != nil {
				return errors.Trace(err)
			}
			pkg.ReverseDeps = append(pkg.ReverseDeps, dep)
			return nil
		})

	case packages.Files:
		query := `
SELECT path, sha256
FROM main.files
WHERE package_id = ?
ORDER BY path ASC`
		return queryRows(ctx, q, query, []any{pkg.ID}, func(rows *sql.Rows) error {
			var (
				file packages.File
				sum  sql.NullString
			)
			if err := rows.Scan(&file.Path, &sum); err != nil {
				return errors.Trace(err)
			}
			file.Checksum = sum.String
			pkg.Files = append(pkg.Files, file)
			return nil
		})

	case packages.Dirs:
		query := `
SELECT d.path, pd.try
FROM main.pkg_directories AS pd
JOIN main.directories AS d ON pd.directory_id = d.id
WHERE pd.package_id = ?
ORDER BY d.path DESC`
		return queryRows(ctx, q, query, []any{pkg.ID}, func(rows *sql.Rows) error {
			var (
				dir packages.Directory
				try sql.NullInt64
			)
			if err := rows.Scan(&dir.Path, &try); err != nil {
				return errors.Trace(err)
			}
			dir.Try = try.Int64 != 0
			pkg.Dirs = append(pkg.Dirs, dir)
			return nil
		})

	case packages.Scripts:
		query := `
SELECT script, type
FROM main.scripts
WHERE package_id = ?
ORDER BY type`
		return queryRows(ctx, q, query, []any{pkg.ID}, func(rows *sql.Rows) error {
			var (
				script packages.Script
				body   sql.NullString
			)
			if err := rows.Scan(&body, &script.Type); err != nil {
				return errors.Trace(err)
			}
			script.Body = body.String
			pkg.Scripts = append(pkg.Scripts, script)
			return nil
		})

	case packages.Options:
		query := fmt.Sprintf(`
SELECT option, value
FROM %s.options
WHERE package_id = ?
ORDER BY option`, catalog)
		return queryRows(ctx, q, query, []any{pkg.ID}, func(rows *sql.Rows) error {
			var (
				opt   packages.Option
				value sql.NullString
			)
			if err := rows.Scan(&opt.Key, &value); err != nil {
				return errors.Trace(err)
			}
			opt.Value = value.String
			pkg.Options = append(pkg.Options, opt)
			return nil
		})

	case packages.Categories:
		return loadNames(ctx, q, catalog, "categories", "pkg_categories", "category_id", pkg.ID, &pkg.Categories)

	case packages.Licenses:
		return loadNames(ctx, q, catalog, "licenses", "pkg_licenses", "license_id", pkg.ID, &pkg.Licenses)

	case packages.Users:
		var names []string
		if err := loadNames(ctx, q, catalog, "users", "pkg_users", "user_id", pkg.ID, &names); err != nil {
			return errors.Trace(err)
		}
		for _, name := range names {
			pkg.Users = append(pkg.Users, packages.User{Name: name, UID: st.lookupUser(name)})
		}
		return nil

	case packages.Groups:
		var names []string
		if err := loadNames(ctx, q, catalog, `"groups"`, "pkg_groups", "group_id", pkg.ID, &names); err != nil {
			return errors.Trace(err)
		}
		for _, name := range names {
			pkg.Groups = append(pkg.Groups, packages.Group{Name: name, GID: st.lookupGroup(name)})
		}
		return nil

	case packages.ContentManifest:
		var content sql.NullString
		err := q.QueryRowContext(ctx, `
SELECT m.content
FROM main.mtree AS m
JOIN main.packages AS p ON p.mtree_id = m.id
WHERE p.id = ?`, pkg.ID).Scan(&content)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.Trace(err)
		}
		pkg.ContentManifest = content.String
		return nil
	}
	return errors.NotValidf("attribute %q", attr)
}

// loadNames reads the names of a dimension table joined to the package,
// in descending order.
func loadNames(ctx context.Context, q database.Querier, catalog, table, join, key string, id int64, names *[]string) error {
	query := fmt.Sprintf(`
SELECT t.name
FROM %[1]s.%[3]s AS j
JOIN %[1]s.%[2]s AS t ON j.%[4]s = t.id
WHERE j.package_id = ?
ORDER BY t.name DESC`, catalog, table, join, key)
	return queryRows(ctx, q, query, []any{id}, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errors.Trace(err)
		}
		*names = append(*names, name)
		return nil
	})
}

func (st *State) lookupUser(name string) string {
	if st.lookup == nil {
		return ""
	}
	uid, err := st.lookup.LookupUser(name)
	if err != nil {
		st.logger.Debugf("cannot resolve user %q: %v", name, err)
		return ""
	}
	return uid
}

func (st *State) lookupGroup(name string) string {
	if st.lookup == nil {
		return ""
	}
	gid, err := st.lookup.LookupGroup(name)
	if err != nil {
		st.logger.Debugf("cannot resolve group %q: %v", name, err)
		return ""
	}
	return gid
}

// queryRows runs the query and calls fn for every row. The rows are closed
// on every path.
func queryRows(ctx context.Context, q database.Querier, query string, args []any, fn func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Trace(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(rows.Err())
}

func catalogOf(pkg *packages.Package) string {
	if pkg.Catalog == "" {
		return database.LocalCatalog
	}
	return pkg.Catalog
}
