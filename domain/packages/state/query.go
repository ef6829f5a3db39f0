// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	internaldatabase "github.com/juju/pkgdb/internal/database"
)

// MatchExpr returns a predicate comparing column against the first bound
// parameter. MatchAll returns an empty predicate.
func MatchExpr(match packages.Match, column string) (string, error) {
	switch match {
	case packages.MatchAll:
		return "", nil
	case packages.MatchExact:
		return column + " = ?1", nil
	case packages.MatchGlob:
		return column + " GLOB ?1", nil
	case packages.MatchRegex:
		return column + " REGEXP ?1", nil
	case packages.MatchExtendedRegex:
		return "EREGEXP(?1, " + column + ")", nil
	}
	return "", errors.NotValidf("match mode %d", int(match))
}

// PackageFilter returns the predicate selecting installed packages by
// pattern. A pattern containing a slash is compared with the origin,
// anything else with the name or the name-version pair.
func PackageFilter(pattern string, match packages.Match) (string, error) {
	if match == packages.MatchAll {
		return "", nil
	}
	if strings.Contains(pattern, "/") {
		return MatchExpr(match, "p.origin")
	}
	return anyOf(match, "p.name", "p.name || '-' || p.version")
}

// PlanFilter returns the predicate selecting the seed rows of a plan, which
// match on the name, the origin or the name-version pair.
func PlanFilter(match packages.Match, alias string) (string, error) {
	if match == packages.MatchAll {
		return "", nil
	}
	return anyOf(match,
		alias+".name",
		alias+".origin",
		alias+".name || '-' || "+alias+".version",
	)
}

// SearchFilter returns the predicate of a repository search on the given
// field. MatchAll and FieldNone select every row.
func SearchFilter(match packages.Match, field packages.Field, alias string) (string, error) {
	if match == packages.MatchAll || field == packages.FieldNone {
		return "", nil
	}
	var column string
	switch field {
	case packages.FieldOrigin:
		column = alias + ".origin"
	case packages.FieldName:
		column = alias + ".name"
	case packages.FieldNameVersion:
		column = alias + ".name || '-' || " + alias + ".version"
	case packages.FieldComment:
		column = alias + ".comment"
	case packages.FieldDescription:
		column = alias + ".desc"
	default:
		return "", errors.NotValidf("search field %d", int(field))
	}
	return MatchExpr(match, column)
}

func anyOf(match packages.Match, columns ...string) (string, error) {
	exprs := make([]string, len(columns))
	for i, column := range columns {
		expr, err := MatchExpr(match, column)
		if err != nil {
			return "", errors.Trace(err)
		}
		exprs[i] = expr
	}
	return "(" + strings.Join(exprs, " OR ") + ")", nil
}

// where prefixes a non empty predicate with WHERE.
func where(filter string) string {
	if filter == "" {
		return ""
	}
	return " WHERE " + filter
}

const localColumns = `p.id, p.origin, p.name, p.version, p.comment, p.desc, p.message,
    p.arch, p.osversion, p.maintainer, p.www, p.prefix, p.flatsize, p.automatic,
    p.licenselogic`

// InstalledQuery returns the query listing installed packages matching the
// pattern, ordered by name.
func InstalledQuery(pattern string, match packages.Match) (string, error) {
	filter, err := PackageFilter(pattern, match)
	if err != nil {
		return "", errors.Trace(err)
	}
	return fmt.Sprintf(`
SELECT %s, '%s' AS dbname
FROM main.packages AS p%s
ORDER BY p.name`, localColumns, database.LocalCatalog, where(filter)), nil
}

// WhichQuery returns the query finding the installed package owning the
// path bound as the first parameter.
func WhichQuery() string {
	return fmt.Sprintf(`
SELECT %s, '%s' AS dbname
FROM main.packages AS p
JOIN main.files AS f ON f.package_id = p.id
WHERE f.path = ?1`, localColumns, database.LocalCatalog)
}

// repositorySelect returns the listing of one repository catalog, tagged
// with the catalog name.
func repositorySelect(catalog string) string {
	return fmt.Sprintf(`SELECT id, origin, name, version, comment, desc, arch, osversion,
    maintainer, www, prefix, pkgsize, flatsize, licenselogic, cksum,
    path AS repopath, %s AS dbname
FROM %s.packages`, internaldatabase.QuoteString(catalog), internaldatabase.QuoteIdentifier(catalog))
}

// CatalogUnion returns the union of the listings of the given repository
// catalogs. The local and temporary catalogs are never part of it.
func CatalogUnion(catalogs []string) (string, error) {
	var selects []string
	for _, catalog := range catalogs {
		if !database.IsRepositoryCatalog(catalog) {
			continue
		}
		selects = append(selects, repositorySelect(catalog))
	}
	if len(selects) == 0 {
		return "", errors.NotFoundf("repository catalogs")
	}
	return strings.Join(selects, "\nUNION ALL\n"), nil
}

// SearchQuery returns the query searching the given repository catalogs,
// ordered by name.
func SearchQuery(catalogs []string, match packages.Match, field packages.Field) (string, error) {
	union, err := CatalogUnion(catalogs)
	if err != nil {
		return "", errors.Trace(err)
	}
	filter, err := SearchFilter(match, field, "p")
	if err != nil {
		return "", errors.Trace(err)
	}
	return fmt.Sprintf(`
SELECT * FROM (
%s
) AS p%s
ORDER BY p.name, p.dbname`, union, where(filter)), nil
}
