// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"

	"github.com/juju/errors"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
)

// Register records pkg in the local catalog, replacing any package with
// the same origin. Nothing is written when it fails.
func (s *Session) Register(ctx context.Context, pkg *packages.Package) error {
	if err := s.writable(); err != nil {
		return errors.Trace(err)
	}
	err := s.withTx(ctx, func(ctx context.Context, q coredatabase.Querier) error {
		return s.state.RegisterPackage(ctx, q, pkg)
	})
	if errors.Is(err, pkgerrors.FileConflict) {
		s.metrics.conflicts.WithLabelValues("register").Inc()
	}
	if err != nil {
		return errors.Annotatef(err, "registering %s", pkg)
	}
	s.metrics.registrations.Inc()
	logger.Debugf("registered %s", pkg)
	return nil
}

// Unregister removes the installed package with the given origin.
func (s *Session) Unregister(ctx context.Context, origin string) error {
	if err := s.writable(); err != nil {
		return errors.Trace(err)
	}
	if err := s.withTx(ctx, func(ctx context.Context, q coredatabase.Querier) error {
		return s.state.UnregisterPackage(ctx, q, origin)
	}); err != nil {
		return errors.Annotatef(err, "unregistering %s", origin)
	}
	s.metrics.unregistrations.Inc()
	logger.Debugf("unregistered %s", origin)
	return nil
}

// SetAutomatic marks the installed package as installed automatically or
// not.
func (s *Session) SetAutomatic(ctx context.Context, origin string, automatic bool) error {
	if err := s.writable(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.withTx(ctx, func(ctx context.Context, q coredatabase.Querier) error {
		return s.state.SetAutomatic(ctx, q, origin, automatic)
	}))
}
