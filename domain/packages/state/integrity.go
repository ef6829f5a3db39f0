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

const createIntegrity = `
CREATE TEMPORARY TABLE IF NOT EXISTS integritycheck (
    name    TEXT NOT NULL,
    origin  TEXT NOT NULL,
    version TEXT NOT NULL,
    path    TEXT UNIQUE NOT NULL
)`

// IntegrityAppend stages the files of pkg for the integrity check. Every
// file that another staged package already claims is reported with all of
// its owners, staged or installed. The caller must roll back the
// transaction when an error is returned.
func (st *State) IntegrityAppend(ctx context.Context, q database.Querier, pkg *packages.Package) error {
	if err := exec(ctx, q, createIntegrity); err != nil {
		return errors.Trace(err)
	}

	var conflicts []pkgerrors.Conflict
	for _, f := range pkg.Files {
		_, err := q.ExecContext(ctx,
			"INSERT INTO temp.integritycheck (name, origin, version, path) VALUES (?, ?, ?, ?)",
			pkg.Name, pkg.Origin, pkg.Version, f.Path,
		)
		if err == nil {
			continue
		}
		if !internaldatabase.IsErrConstraintUnique(err) {
			return errors.Annotatef(err, "staging %s", f.Path)
		}

		owners, err := collisionOwners(ctx, q, pkg.Origin, f.Path)
		if err != nil {
			return errors.Trace(err)
		}
		conflict := pkgerrors.Conflict{
			Path:   f.Path,
			Owners: append([]packages.Ref{pkg.Ref()}, owners...),
		}
		st.logger.Errorf("%s", conflict)
		conflicts = append(conflicts, conflict)
	}
	if len(conflicts) > 0 {
		return &pkgerrors.IntegrityError{Conflicts: conflicts}
	}
	return nil
}

// collisionOwners returns the staged owner of path and every installed
// owner that is not about to be replaced.
func collisionOwners(ctx context.Context, q database.Querier, origin, path string) ([]packages.Ref, error) {
	var owners []packages.Ref
	err := queryRows(ctx, q, `
SELECT origin, name, version FROM temp.integritycheck
WHERE path = ?1
UNION
SELECT p.origin, p.name, p.version
FROM main.packages AS p
JOIN main.files AS f ON f.package_id = p.id
WHERE f.path = ?1
AND p.origin != ?2
AND p.origin NOT IN (SELECT origin FROM temp.integritycheck)
ORDER BY origin`, []any{path, origin}, func(rows *sql.Rows) error {
		var ref packages.Ref
		if err := rows.Scan(&ref.Origin, &ref.Name, &ref.Version); err != nil {
			return errors.Trace(err)
		}
		owners = append(owners, ref)
		return nil
	})
	return owners, errors.Annotatef(err, "finding owners of %s", path)
}

// IntegrityCheck reports every path claimed more than once by the staged
// packages and the installed packages they do not replace.
func (st *State) IntegrityCheck(ctx context.Context, q database.Querier) error {
	if err := exec(ctx, q, createIntegrity); err != nil {
		return errors.Trace(err)
	}

	var conflicts []pkgerrors.Conflict
	err := queryRows(ctx, q, `
WITH claims(path, origin, name, version) AS (
    SELECT path, origin, name, version FROM temp.integritycheck
    UNION
    SELECT f.path, p.origin, p.name, p.version
    FROM main.files AS f
    JOIN main.packages AS p ON p.id = f.package_id
    WHERE p.origin NOT IN (SELECT origin FROM temp.integritycheck)
)
SELECT path, origin, name, version FROM claims
WHERE path IN (SELECT path FROM claims GROUP BY path HAVING count(*) > 1)
ORDER BY path, origin`, nil, func(rows *sql.Rows) error {
		var (
			path string
			ref  packages.Ref
		)
		if err := rows.Scan(&path, &ref.Origin, &ref.Name, &ref.Version); err != nil {
			return errors.Trace(err)
		}
		if n := len(conflicts); n > 0 && conflicts[n-1].Path == path {
			conflicts[n-1].Owners = append(conflicts[n-1].Owners, ref)
			return nil
		}
		conflicts = append(conflicts, pkgerrors.Conflict{Path: path, Owners: []packages.Ref{ref}})
		return nil
	})
	if err != nil {
		return errors.Annotate(err, "checking integrity")
	}
	if len(conflicts) == 0 {
		return nil
	}
	for _, c := range conflicts {
		st.logger.Errorf("%s", c)
	}
	return &pkgerrors.IntegrityError{Conflicts: conflicts}
}

// IntegrityConflictLocal returns the installed packages, other than the one
// with the given origin, owning a file staged by origin.
func (st *State) IntegrityConflictLocal(ctx context.Context, q database.Querier, origin string) ([]packages.Ref, error) {
	if err := exec(ctx, q, createIntegrity); err != nil {
		return nil, errors.Trace(err)
	}

	var refs []packages.Ref
	err := queryRows(ctx, q, `
SELECT DISTINCT p.origin, p.name, p.version
FROM main.packages AS p
JOIN main.files AS f ON f.package_id = p.id
JOIN temp.integritycheck AS i ON i.path = f.path
WHERE i.origin = ?1 AND p.origin != ?1
ORDER BY p.origin`, []any{origin}, func(rows *sql.Rows) error {
		var ref packages.Ref
		if err := rows.Scan(&ref.Origin, &ref.Name, &ref.Version); err != nil {
			return errors.Trace(err)
		}
		refs = append(refs, ref)
		return nil
	})
	return refs, errors.Annotatef(err, "finding local conflicts of %s", origin)
}

// IntegrityReset discards every staged file.
func IntegrityReset(ctx context.Context, q database.Querier) error {
	return errors.Trace(exec(ctx, q, "DROP TABLE IF EXISTS temp.integritycheck"))
}
