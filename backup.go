// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/internal/backup"
)

// Dump writes a bundle of every installed package to w and returns how
// many were written.
func (s *Session) Dump(ctx context.Context, w io.Writer) (int, error) {
	if err := s.usable(); err != nil {
		return 0, errors.Trace(err)
	}
	b, err := s.bundler()
	if err != nil {
		return 0, errors.Trace(err)
	}
	n, err := b.Dump(ctx, w, sessionStore{s})
	return n, errors.Trace(err)
}

// Restore registers every package of the bundle read from r. Either all
// of them are registered or none is.
func (s *Session) Restore(ctx context.Context, r io.Reader) (int, error) {
	if err := s.writable(); err != nil {
		return 0, errors.Trace(err)
	}
	b, err := s.bundler()
	if err != nil {
		return 0, errors.Trace(err)
	}
	n, err := b.Load(ctx, r, sessionStore{s})
	return n, errors.Trace(err)
}

func (s *Session) bundler() (*backup.Bundler, error) {
	return backup.NewBundler(backup.Config{
		Clock:  s.clock,
		Codec:  backup.ManifestCodec{},
		Logger: loggo.GetLogger("pkgdb.backup"),
	})
}

// sessionStore exposes the local catalog of a session to the bundler.
type sessionStore struct {
	session *Session
}

// Installed returns every installed package with all of its attributes.
func (st sessionStore) Installed(ctx context.Context) ([]*packages.Package, error) {
	it, err := st.session.Query(ctx, "", packages.MatchAll)
	if err != nil {
		return nil, errors.Trace(err)
	}
	pkgs, err := it.All(ctx, packages.AllAttributes...)
	return pkgs, errors.Trace(err)
}

// Restore registers pkgs in a single transaction.
func (st sessionStore) Restore(ctx context.Context, pkgs []*packages.Package) error {
	s := st.session
	if err := s.withTx(ctx, func(ctx context.Context, q coredatabase.Querier) error {
		for _, pkg := range pkgs {
			if err := s.state.RegisterPackage(ctx, q, pkg); err != nil {
				return errors.Annotatef(err, "restoring %s", pkg)
			}
		}
		return nil
	}); err != nil {
		return errors.Trace(err)
	}
	s.metrics.registrations.Add(float64(len(pkgs)))
	return nil
}
