// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/domain/packages/state"
	domainschema "github.com/juju/pkgdb/domain/schema"
	"github.com/juju/pkgdb/internal/database"
	"github.com/juju/pkgdb/internal/database/txn"
)

// WriteCatalog adds pkgs to the repository catalog at path, creating the
// file when it does not exist.
func WriteCatalog(ctx context.Context, path string, pkgs []*packages.Package) error {
	return errors.Trace(withCatalog(ctx, path, false, func(st *state.CatalogState) error {
		return st.AddPackages(ctx, pkgs)
	}))
}

// ReadCatalog returns every package of the repository catalog at path,
// ordered by origin.
func ReadCatalog(ctx context.Context, path string) ([]*packages.Package, error) {
	var pkgs []*packages.Package
	err := withCatalog(ctx, path, true, func(st *state.CatalogState) error {
		var err error
		pkgs, err = st.Packages(ctx)
		return errors.Trace(err)
	})
	return pkgs, errors.Trace(err)
}

func withCatalog(ctx context.Context, path string, readOnly bool, fn func(*state.CatalogState) error) (err error) {
	db, err := database.Open(database.Config{Path: path, ReadOnly: readOnly})
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if cErr := db.Close(); cErr != nil && err == nil {
			err = errors.Trace(cErr)
		}
	}()

	txnLogger := loggo.GetLogger("pkgdb.txn")
	runner := txn.NewRunner(txn.NewRetryingTxnRunner(
		txn.WithLogger(txnLogger),
		txn.WithRetryStrategy(txn.DefaultRetryStrategy(clock.WallClock, txnLogger)),
	), db)
	if _, err := domainschema.RepositoryDDL().Ensure(ctx, runner, !readOnly); err != nil {
		return errors.Annotatef(err, "repository catalog %s", path)
	}
	return errors.Trace(fn(state.NewCatalogState(runner)))
}
