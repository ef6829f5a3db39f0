// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"
	"fmt"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	internaldatabase "github.com/juju/pkgdb/internal/database"
)

// PlanKind names a planning query.
type PlanKind string

const (
	PlanInstall    PlanKind = "install"
	PlanUpgrade    PlanKind = "upgrade"
	PlanDowngrade  PlanKind = "downgrade"
	PlanAutoremove PlanKind = "autoremove"
	PlanDelete     PlanKind = "delete"
)

// The working set of a plan. It lives in the temporary catalog of the
// connection and is recreated for every plan.
const createJobs = `
CREATE TEMPORARY TABLE pkgjobs (
    pkgid       INTEGER,
    origin      TEXT UNIQUE NOT NULL,
    name        TEXT,
    version     TEXT,
    comment     TEXT,
    desc        TEXT,
    message     TEXT,
    arch        TEXT,
    osversion   TEXT,
    maintainer  TEXT,
    www         TEXT,
    prefix      TEXT,
    flatsize    INTEGER,
    newversion  TEXT,
    newflatsize INTEGER,
    pkgsize     INTEGER,
    cksum       TEXT,
    repopath    TEXT,
    automatic   INTEGER,
    weight      INTEGER NOT NULL DEFAULT 0,
    dbname      TEXT
)`

// DropJobs removes the working set of the last plan, if any.
func DropJobs(ctx context.Context, q database.Querier) error {
	return errors.Trace(exec(ctx, q, "DROP TABLE IF EXISTS temp.pkgjobs"))
}

func resetJobs(ctx context.Context, q database.Querier) error {
	return errors.Trace(exec(ctx, q, "DROP TABLE IF EXISTS temp.pkgjobs", createJobs))
}

const jobColumns = `pkgid, origin, name, version, comment, desc, arch, osversion,
    maintainer, www, prefix, flatsize, pkgsize, cksum, repopath, automatic, dbname`

// repositoryJobs selects rows of a repository catalog in jobColumns order.
func repositoryJobs(repo string, automatic string) string {
	return fmt.Sprintf(`
SELECT r.id, r.origin, r.name, r.version, r.comment, r.desc, r.arch, r.osversion,
    r.maintainer, r.www, r.prefix, r.flatsize, r.pkgsize, r.cksum, r.path, %s, %s
FROM %s.packages AS r`,
		automatic, internaldatabase.QuoteString(repo), internaldatabase.QuoteIdentifier(repo))
}

// PrepareInstall fills the working set with the repository packages
// matching the patterns and everything they depend on that is not already
// installed at the same version. It returns the number of closure
// iterations.
func (st *State) PrepareInstall(
	ctx context.Context, q database.Querier, repo string, match packages.Match, patterns []string,
) (int, error) {
	if err := resetJobs(ctx, q); err != nil {
		return 0, errors.Trace(err)
	}

	filter, err := PlanFilter(match, "r")
	if err != nil {
		return 0, errors.Trace(err)
	}
	seed := "INSERT OR IGNORE INTO temp.pkgjobs (" + jobColumns + ")" + repositoryJobs(repo, "0") + where(filter)
	if match == packages.MatchAll {
		patterns = []string{""}
	}
	for _, pattern := range patterns {
		var args []any
		if filter != "" {
			args = append(args, pattern)
		}
		if _, err := q.ExecContext(ctx, seed, args...); err != nil {
			return 0, errors.Annotatef(err, "selecting packages matching %q", pattern)
		}
	}

	if err := exec(ctx, q, dropInstalledSameVersion); err != nil {
		return 0, errors.Trace(err)
	}
	iterations, err := st.closeOverDependencies(ctx, q, repo)
	if err != nil {
		return iterations, errors.Trace(err)
	}
	if err := exec(ctx, q,
		annotateUpgrades,
		// Dependencies already installed and not needing an upgrade stay
		// as they are.
		`DELETE FROM temp.pkgjobs
WHERE automatic = 1 AND newversion IS NULL
AND origin IN (SELECT origin FROM main.packages)`,
	); err != nil {
		return iterations, errors.Trace(err)
	}
	return iterations, errors.Trace(computeWeights(ctx, q, repo))
}

// PrepareUpgrade fills the working set with the repository packages that
// upgrade installed ones, plus new dependencies they pull in. It returns
// the number of closure iterations.
func (st *State) PrepareUpgrade(ctx context.Context, q database.Querier, repo string) (int, error) {
	if err := resetJobs(ctx, q); err != nil {
		return 0, errors.Trace(err)
	}

	// Packages keep the automatic flag they were installed with.
	seed := "INSERT OR IGNORE INTO temp.pkgjobs (" + jobColumns + ")" +
		repositoryJobs(repo, "l.automatic") + `
JOIN main.packages AS l ON r.origin = l.origin`
	if err := exec(ctx, q, seed, dropInstalledSameVersion); err != nil {
		return 0, errors.Trace(err)
	}
	iterations, err := st.closeOverDependencies(ctx, q, repo)
	if err != nil {
		return iterations, errors.Trace(err)
	}
	if err := exec(ctx, q,
		annotateUpgrades,
		// Anything installed that is not an upgrade is either current or
		// a downgrade, neither of which belongs in the plan.
		`DELETE FROM temp.pkgjobs
WHERE newversion IS NULL
AND origin IN (SELECT origin FROM main.packages)`,
	); err != nil {
		return iterations, errors.Trace(err)
	}
	return iterations, errors.Trace(computeWeights(ctx, q, repo))
}

const dropInstalledSameVersion = `
DELETE FROM temp.pkgjobs
WHERE EXISTS (
    SELECT 1 FROM main.packages AS l
    WHERE l.origin = pkgjobs.origin AND l.version = pkgjobs.version
)`

// annotateUpgrades marks rows replacing an installed package with an older
// version, or a package of a different name, as upgrades. The row keeps
// the installed version and gains the new one.
const annotateUpgrades = `
UPDATE temp.pkgjobs SET
    newversion = pkgjobs.version,
    newflatsize = pkgjobs.flatsize,
    version = (SELECT l.version FROM main.packages AS l WHERE l.origin = pkgjobs.origin),
    flatsize = (SELECT l.flatsize FROM main.packages AS l WHERE l.origin = pkgjobs.origin)
WHERE EXISTS (
    SELECT 1 FROM main.packages AS l
    WHERE l.origin = pkgjobs.origin
    AND (PKGLT(l.version, pkgjobs.version) OR l.name != pkgjobs.name)
)`

// closeOverDependencies adds the dependencies of the working set as
// automatic rows until an iteration adds nothing. Dependencies installed at
// the catalog version are skipped.
func (st *State) closeOverDependencies(ctx context.Context, q database.Querier, repo string) (int, error) {
	cat := internaldatabase.QuoteIdentifier(repo)
	stmt := "INSERT OR IGNORE INTO temp.pkgjobs (" + jobColumns + ")" + repositoryJobs(repo, "1") + `
WHERE r.origin IN (
    SELECT d.origin FROM ` + cat + `.deps AS d
    JOIN temp.pkgjobs AS j ON d.package_id = j.pkgid
)
AND r.origin NOT IN (SELECT origin FROM temp.pkgjobs)
AND NOT EXISTS (
    SELECT 1 FROM main.packages AS l
    WHERE l.origin = r.origin AND l.version = r.version
)`
	return st.fixedPoint(ctx, q, stmt)
}

// fixedPoint runs stmt until it affects no rows, returning the number of
// runs.
func (st *State) fixedPoint(ctx context.Context, q database.Querier, stmt string) (int, error) {
	for iteration := 1; ; iteration++ {
		res, err := q.ExecContext(ctx, stmt)
		if err != nil {
			return iteration, errors.Annotatef(err, "closure iteration %d", iteration)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return iteration, errors.Trace(err)
		}
		st.logger.Tracef("closure iteration %d added %d packages", iteration, n)
		if n == 0 {
			return iteration, nil
		}
	}
}

// computeWeights sets the weight of every row to the number of rows of the
// working set that depend on it, directly or not. A row therefore always
// weighs more than any row depending on it.
func computeWeights(ctx context.Context, q database.Querier, catalog string) error {
	cat := internaldatabase.QuoteIdentifier(catalog)
	stmt := `
WITH RECURSIVE
    edge(dependent, dependency) AS (
        SELECT DISTINCT j.origin, d.origin
        FROM temp.pkgjobs AS j
        JOIN ` + cat + `.deps AS d ON d.package_id = j.pkgid
        WHERE d.origin IN (SELECT origin FROM temp.pkgjobs)
        AND d.origin != j.origin
    ),
    reach(dependent, dependency) AS (
        SELECT dependent, dependency FROM edge
        UNION
        SELECT e.dependent, r.dependency
        FROM edge AS e
        JOIN reach AS r ON e.dependency = r.dependent
    )
UPDATE temp.pkgjobs SET weight = (
    SELECT count(DISTINCT r.dependent) FROM reach AS r
    WHERE r.dependency = pkgjobs.origin
    AND r.dependent != pkgjobs.origin
)`
	return errors.Annotate(exec(ctx, q, stmt), "computing weights")
}

// RemotePlanQuery returns the query reading an install or upgrade plan,
// heaviest first so dependencies come before their dependents.
func RemotePlanQuery() string {
	return `
SELECT pkgid, origin, name, version, comment, desc, arch, osversion,
    maintainer, www, prefix, flatsize, newversion, newflatsize, pkgsize,
    cksum, repopath, automatic, weight, dbname
FROM temp.pkgjobs
ORDER BY weight DESC, origin ASC`
}

// LocalPlanQuery returns the query reading a delete or autoremove plan,
// lightest first so dependents go before their dependencies.
func LocalPlanQuery() string {
	return fmt.Sprintf(`
SELECT %s, j.weight, '%s' AS dbname
FROM main.packages AS p
JOIN temp.pkgjobs AS j ON p.id = j.pkgid
ORDER BY j.weight ASC, p.origin ASC`, localColumns, database.LocalCatalog)
}

// DowngradeQuery returns the query listing installed packages whose
// version is newer than the one in the repository catalog.
func DowngradeQuery(repo string) string {
	return fmt.Sprintf(`
SELECT %s,
    r.version AS newversion, r.flatsize AS newflatsize, r.pkgsize,
    r.cksum, r.path AS repopath, '%s' AS dbname
FROM main.packages AS p
JOIN %s.packages AS r ON p.origin = r.origin
WHERE PKGGT(p.version, r.version)
ORDER BY p.name`, localColumns, database.LocalCatalog, internaldatabase.QuoteIdentifier(repo))
}

const localJobColumns = "pkgid, origin, name, version, automatic, dbname"

// PrepareAutoremove fills the working set with automatically installed
// packages that nothing outside the working set depends on. It returns the
// number of closure iterations.
func (st *State) PrepareAutoremove(ctx context.Context, q database.Querier) (int, error) {
	if err := resetJobs(ctx, q); err != nil {
		return 0, errors.Trace(err)
	}
	stmt := "INSERT OR IGNORE INTO temp.pkgjobs (" + localJobColumns + `)
SELECT p.id, p.origin, p.name, p.version, p.automatic, 'main'
FROM main.packages AS p
WHERE p.automatic = 1
AND p.origin NOT IN (SELECT origin FROM temp.pkgjobs)
AND NOT EXISTS (
    SELECT 1 FROM main.deps AS d
    WHERE d.origin = p.origin
    AND d.package_id NOT IN (SELECT pkgid FROM temp.pkgjobs)
)`
	iterations, err := st.fixedPoint(ctx, q, stmt)
	if err != nil {
		return iterations, errors.Trace(err)
	}
	return iterations, errors.Trace(computeWeights(ctx, q, database.LocalCatalog))
}

// PrepareDelete fills the working set with the installed packages matching
// the patterns and, when recursive, everything depending on them. It
// returns the number of closure iterations.
func (st *State) PrepareDelete(
	ctx context.Context, q database.Querier, match packages.Match, patterns []string, recursive bool,
) (int, error) {
	if err := resetJobs(ctx, q); err != nil {
		return 0, errors.Trace(err)
	}

	filter, err := PlanFilter(match, "p")
	if err != nil {
		return 0, errors.Trace(err)
	}
	seed := "INSERT OR IGNORE INTO temp.pkgjobs (" + localJobColumns + `)
SELECT p.id, p.origin, p.name, p.version, p.automatic, 'main'
FROM main.packages AS p` + where(filter)
	if match == packages.MatchAll {
		patterns = []string{""}
	}
	for _, pattern := range patterns {
		var args []any
		if filter != "" {
			args = append(args, pattern)
		}
		if _, err := q.ExecContext(ctx, seed, args...); err != nil {
			return 0, errors.Annotatef(err, "selecting packages matching %q", pattern)
		}
	}

	var iterations int
	if recursive {
		stmt := "INSERT OR IGNORE INTO temp.pkgjobs (" + localJobColumns + `)
SELECT DISTINCT p.id, p.origin, p.name, p.version, p.automatic, 'main'
FROM main.deps AS d
JOIN main.packages AS p ON p.id = d.package_id
WHERE d.origin IN (SELECT origin FROM temp.pkgjobs)
AND p.origin NOT IN (SELECT origin FROM temp.pkgjobs)`
		if iterations, err = st.fixedPoint(ctx, q, stmt); err != nil {
			return iterations, errors.Trace(err)
		}
	}
	return iterations, errors.Trace(computeWeights(ctx, q, database.LocalCatalog))
}
