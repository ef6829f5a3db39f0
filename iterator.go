// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"
	"database/sql"

	"github.com/juju/errors"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/domain/packages/state"
)

// Iterator steps through the packages returned by a query. It must be
// closed once the caller is done with it.
type Iterator struct {
	session *Session
	rows    *sql.Rows
	pkg     *packages.Package
	err     error
	closed  bool

	// cleanup runs after the rows are closed.
	cleanup func(context.Context, coredatabase.Querier) error
}

func (s *Session) iterate(ctx context.Context, query string, args ...any) (*Iterator, error) {
	rows, err := s.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Iterator{session: s, rows: rows}, nil
}

// Next advances to the next package and loads the requested attributes
// for it. It returns false when there are no more packages or an error
// occurred; Err distinguishes the two.
func (it *Iterator) Next(ctx context.Context, attrs ...packages.Attribute) bool {
	if it.closed || it.err != nil {
		return false
	}
	if !it.rows.Next() {
		it.err = errors.Trace(it.rows.Err())
		it.pkg = nil
		return false
	}
	pkg, err := state.ScanPackage(it.rows)
	if err != nil {
		it.err = errors.Trace(err)
		it.pkg = nil
		return false
	}
	if err := it.session.state.LoadAttributes(ctx, it.session.querier(), pkg, attrs...); err != nil {
		it.err = errors.Annotatef(err, "loading %s", pkg)
		it.pkg = nil
		return false
	}
	it.pkg = pkg
	return true
}

// Package returns the current package.
func (it *Iterator) Package() *packages.Package {
	return it.pkg
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// All drains the iterator, loading attrs for every package, and closes
// it.
func (it *Iterator) All(ctx context.Context, attrs ...packages.Attribute) ([]*packages.Package, error) {
	var pkgs []*packages.Package
	for it.Next(ctx, attrs...) {
		pkgs = append(pkgs, it.Package())
	}
	err := it.Err()
	if cErr := it.Close(ctx); err == nil {
		err = cErr
	}
	return pkgs, errors.Trace(err)
}

// Close releases the iterator. Closing twice is a no-op.
func (it *Iterator) Close(ctx context.Context) error {
	if it == nil || it.closed {
		return nil
	}
	it.closed = true
	it.pkg = nil
	err := errors.Trace(it.rows.Close())
	if it.cleanup != nil && it.session.conn != nil {
		if cErr := it.cleanup(ctx, it.session.querier()); cErr != nil && err == nil {
			err = errors.Trace(cErr)
		}
	}
	return err
}
