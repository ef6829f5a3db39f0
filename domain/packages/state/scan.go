// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"database/sql"
	"strconv"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
)

type columnSetter func(pkg *packages.Package, v any)

// columns maps result column names onto package fields. Every query
// returning packages must only select columns from this table.
var columns = map[string]columnSetter{
	"id":           func(p *packages.Package, v any) { p.ID = asInt(v) },
	"pkgid":        func(p *packages.Package, v any) { p.ID = asInt(v) },
	"origin":       func(p *packages.Package, v any) { p.Origin = asString(v) },
	"name":         func(p *packages.Package, v any) { p.Name = asString(v) },
	"version":      func(p *packages.Package, v any) { p.Version = asString(v) },
	"comment":      func(p *packages.Package, v any) { p.Comment = asString(v) },
	"desc":         func(p *packages.Package, v any) { p.Description = asString(v) },
	"message":      func(p *packages.Package, v any) { p.Message = asString(v) },
	"arch":         func(p *packages.Package, v any) { p.Arch = asString(v) },
	"osversion":    func(p *packages.Package, v any) { p.OSVersion = asString(v) },
	"maintainer":   func(p *packages.Package, v any) { p.Maintainer = asString(v) },
	"www":          func(p *packages.Package, v any) { p.WWW = asString(v) },
	"prefix":       func(p *packages.Package, v any) { p.Prefix = asString(v) },
	"flatsize":     func(p *packages.Package, v any) { p.FlatSize = asInt(v) },
	"automatic":    func(p *packages.Package, v any) { p.Automatic = asInt(v) != 0 },
	"licenselogic": func(p *packages.Package, v any) { p.LicenseLogic = packages.LicenseLogic(asInt(v)) },
	"newversion":   func(p *packages.Package, v any) { p.NewVersion = asString(v) },
	"newflatsize":  func(p *packages.Package, v any) { p.NewFlatSize = asInt(v) },
	"pkgsize":      func(p *packages.Package, v any) { p.PackageSize = asInt(v) },
	"cksum":        func(p *packages.Package, v any) { p.Checksum = asString(v) },
	"repopath":     func(p *packages.Package, v any) { p.RepoPath = asString(v) },
	"weight":       func(p *packages.Package, v any) { p.Weight = asInt(v) },
	"dbname":       func(p *packages.Package, v any) { p.Catalog = asString(v) },
}

// ScanPackage reads the current row into a package. The kind of the package
// follows from the catalog named by the dbname column.
func ScanPackage(rows *sql.Rows) (*packages.Package, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Trace(err)
	}
	values := make([]any, len(names))
	for i := range values {
		values[i] = new(any)
	}
	if err := rows.Scan(values...); err != nil {
		return nil, errors.Trace(err)
	}

	pkg := &packages.Package{Catalog: database.LocalCatalog}
	for i, name := range names {
		set, ok := columns[name]
		if !ok {
			return nil, errors.NotValidf("result column %q", name)
		}
		set(pkg, *values[i].(*any))
	}
	if pkg.Catalog == database.LocalCatalog {
		pkg.Kind = packages.Installed
	} else {
		pkg.Kind = packages.Remote
	}
	return pkg, nil
}

func asString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func asInt(v any) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	}
	return 0
}
