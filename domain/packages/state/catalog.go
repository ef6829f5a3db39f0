// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
)

// catalogPackage is a row of the packages table of a repository catalog.
type catalogPackage struct {
	ID           int64  `db:"id"`
	Origin       string `db:"origin"`
	Name         string `db:"name"`
	Version      string `db:"version"`
	Comment      string `db:"comment"`
	Description  string `db:"desc"`
	Arch         string `db:"arch"`
	OSVersion    string `db:"osversion"`
	Maintainer   string `db:"maintainer"`
	WWW          string `db:"www"`
	Prefix       string `db:"prefix"`
	PackageSize  int64  `db:"pkgsize"`
	FlatSize     int64  `db:"flatsize"`
	LicenseLogic int64  `db:"licenselogic"`
	Checksum     string `db:"cksum"`
	Path         string `db:"path"`
}

type catalogOrigin struct {
	Origin string `db:"origin"`
}

type catalogID struct {
	ID int64 `db:"id"`
}

type catalogDep struct {
	PackageID int64  `db:"package_id"`
	Origin    string `db:"origin"`
	Name      string `db:"name"`
	Version   string `db:"version"`
}

type catalogOption struct {
	PackageID int64  `db:"package_id"`
	Option    string `db:"option"`
	Value     string `db:"value"`
}

type catalogName struct {
	Name string `db:"name"`
}

type catalogLink struct {
	PackageID int64 `db:"package_id"`
	TargetID  int64 `db:"target_id"`
}

// CatalogState builds repository catalogs.
type CatalogState struct {
	runner database.TxnRunner
}

// NewCatalogState returns a CatalogState writing through runner, which
// must be bound to a catalog created with the repository schema.
func NewCatalogState(runner database.TxnRunner) *CatalogState {
	return &CatalogState{runner: runner}
}

// AddPackages adds the packages with their dependencies, options,
// categories and licenses to the catalog in one transaction. A package
// already in the catalog under the same origin makes the whole call fail.
func (st *CatalogState) AddPackages(ctx context.Context, pkgs []*packages.Package) error {
	insertPackage, err := sqlair.Prepare(`
INSERT INTO packages (origin, name, version, comment, desc, arch, osversion,
    maintainer, www, prefix, pkgsize, flatsize, licenselogic, cksum, path)
VALUES ($catalogPackage.origin, $catalogPackage.name, $catalogPackage.version,
    $catalogPackage.comment, $catalogPackage.desc, $catalogPackage.arch,
    $catalogPackage.osversion, $catalogPackage.maintainer, $catalogPackage.www,
    $catalogPackage.prefix, $catalogPackage.pkgsize, $catalogPackage.flatsize,
    $catalogPackage.licenselogic, $catalogPackage.cksum, $catalogPackage.path)`, catalogPackage{})
	if err != nil {
		return errors.Trace(err)
	}
	selectID, err := sqlair.Prepare(`SELECT &catalogID.id FROM packages WHERE origin = $catalogOrigin.origin`, catalogID{}, catalogOrigin{})
	if err != nil {
		return errors.Trace(err)
	}
	insertDep, err := sqlair.Prepare(`
INSERT INTO deps (package_id, origin, name, version)
VALUES ($catalogDep.package_id, $catalogDep.origin, $catalogDep.name, $catalogDep.version)`, catalogDep{})
	if err != nil {
		return errors.Trace(err)
	}
	insertOption, err := sqlair.Prepare(`
INSERT INTO options (package_id, option, value)
VALUES ($catalogOption.package_id, $catalogOption.option, $catalogOption.value)`, catalogOption{})
	if err != nil {
		return errors.Trace(err)
	}
	insertCategory, err := sqlair.Prepare(`INSERT OR IGNORE INTO categories (name) VALUES ($catalogName.name)`, catalogName{})
	if err != nil {
		return errors.Trace(err)
	}
	selectCategory, err := sqlair.Prepare(`SELECT &catalogID.id FROM categories WHERE name = $catalogName.name`, catalogID{}, catalogName{})
	if err != nil {
		return errors.Trace(err)
	}
	linkCategory, err := sqlair.Prepare(`
INSERT OR IGNORE INTO pkg_categories (package_id, category_id)
VALUES ($catalogLink.package_id, $catalogLink.target_id)`, catalogLink{})
	if err != nil {
		return errors.Trace(err)
	}
	insertLicense, err := sqlair.Prepare(`INSERT OR IGNORE INTO licenses (name) VALUES ($catalogName.name)`, catalogName{})
	if err != nil {
		return errors.Trace(err)
	}
	selectLicense, err := sqlair.Prepare(`SELECT &catalogID.id FROM licenses WHERE name = $catalogName.name`, catalogID{}, catalogName{})
	if err != nil {
		return errors.Trace(err)
	}
	linkLicense, err := sqlair.Prepare(`
INSERT OR IGNORE INTO pkg_licenses (package_id, license_id)
VALUES ($catalogLink.package_id, $catalogLink.target_id)`, catalogLink{})
	if err != nil {
		return errors.Trace(err)
	}

	err = st.runner.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		for _, pkg := range pkgs {
			if err := pkg.Validate(); err != nil {
				return errors.Trace(err)
			}
			if err := tx.Query(ctx, insertPackage, toCatalogPackage(pkg)).Run(); err != nil {
				return errors.Annotatef(err, "adding %s", pkg)
			}
			var id catalogID
			if err := tx.Query(ctx, selectID, catalogOrigin{Origin: pkg.Origin}).Get(&id); err != nil {
				return errors.Trace(err)
			}
			for _, d := range pkg.Deps {
				dep := catalogDep{PackageID: id.ID, Origin: d.Origin, Name: d.Name, Version: d.Version}
				if err := tx.Query(ctx, insertDep, dep).Run(); err != nil {
					return errors.Annotatef(err, "adding dependency %s of %s", d.Origin, pkg)
				}
			}
			for _, o := range pkg.Options {
				opt := catalogOption{PackageID: id.ID, Option: o.Key, Value: o.Value}
				if err := tx.Query(ctx, insertOption, opt).Run(); err != nil {
					return errors.Annotatef(err, "adding option %s of %s", o.Key, pkg)
				}
			}
			for _, name := range pkg.Categories {
				if err := addDimension(ctx, tx, id.ID, name, insertCategory, selectCategory, linkCategory); err != nil {
					return errors.Annotatef(err, "adding category %s of %s", name, pkg)
				}
			}
			for _, name := range pkg.Licenses {
				if err := addDimension(ctx, tx, id.ID, name, insertLicense, selectLicense, linkLicense); err != nil {
					return errors.Annotatef(err, "adding license %s of %s", name, pkg)
				}
			}
		}
		return nil
	})
	return errors.Annotate(err, "writing catalog")
}

// addDimension inserts the shared row called name if it is missing and
// links it to the package.
func addDimension(
	ctx context.Context, tx *sqlair.TX, packageID int64, name string,
	insert, selectID, link *sqlair.Statement,
) error {
	if err := tx.Query(ctx, insert, catalogName{Name: name}).Run(); err != nil {
		return errors.Trace(err)
	}
	var target catalogID
	if err := tx.Query(ctx, selectID, catalogName{Name: name}).Get(&target); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(tx.Query(ctx, link, catalogLink{PackageID: packageID, TargetID: target.ID}).Run())
}

// Packages returns every package of the catalog, ordered by origin,
// without attributes.
func (st *CatalogState) Packages(ctx context.Context) ([]*packages.Package, error) {
	stmt, err := sqlair.Prepare(`SELECT &catalogPackage.* FROM packages ORDER BY origin`, catalogPackage{})
	if err != nil {
		return nil, errors.Trace(err)
	}

	var rows []catalogPackage
	err = st.runner.Txn(ctx, func(ctx context.Context, tx *sqlair.TX) error {
		err := tx.Query(ctx, stmt).GetAll(&rows)
		if errors.Is(err, sqlair.ErrNoRows) {
			return nil
		}
		return errors.Trace(err)
	})
	if err != nil {
		return nil, errors.Annotate(err, "reading catalog")
	}

	result := make([]*packages.Package, len(rows))
	for i, row := range rows {
		result[i] = &packages.Package{
			ID:           row.ID,
			Origin:       row.Origin,
			Name:         row.Name,
			Version:      row.Version,
			Comment:      row.Comment,
			Description:  row.Description,
			Arch:         row.Arch,
			OSVersion:    row.OSVersion,
			Maintainer:   row.Maintainer,
			WWW:          row.WWW,
			Prefix:       row.Prefix,
			PackageSize:  row.PackageSize,
			FlatSize:     row.FlatSize,
			LicenseLogic: packages.LicenseLogic(row.LicenseLogic),
			Checksum:     row.Checksum,
			RepoPath:     row.Path,
			Kind:         packages.Remote,
		}
	}
	return result, nil
}

func toCatalogPackage(pkg *packages.Package) catalogPackage {
	return catalogPackage{
		Origin:       pkg.Origin,
		Name:         pkg.Name,
		Version:      pkg.Version,
		Comment:      pkg.Comment,
		Description:  pkg.Description,
		Arch:         pkg.Arch,
		OSVersion:    pkg.OSVersion,
		Maintainer:   pkg.Maintainer,
		WWW:          pkg.WWW,
		Prefix:       pkg.Prefix,
		PackageSize:  pkg.PackageSize,
		FlatSize:     pkg.FlatSize,
		LicenseLogic: int64(pkg.LicenseLogic),
		Checksum:     pkg.Checksum,
		Path:         pkg.RepoPath,
	}
}
