// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"

	"github.com/juju/errors"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
	"github.com/juju/pkgdb/domain/packages/state"
)

// IntegrityAppend stages the files of a package about to be installed.
// Paths already staged by another candidate are reported as an
// *errors.IntegrityError and none of the package's files are kept.
func (s *Session) IntegrityAppend(ctx context.Context, pkg *packages.Package) error {
	if err := s.usable(); err != nil {
		return errors.Trace(err)
	}
	err := s.withTx(ctx, func(ctx context.Context, q coredatabase.Querier) error {
		return s.state.IntegrityAppend(ctx, q, pkg)
	})
	s.countConflicts(err)
	return errors.Trace(err)
}

// IntegrityCheck reports every staged path that an installed package, not
// about to be replaced, also owns.
func (s *Session) IntegrityCheck(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return errors.Trace(err)
	}
	err := s.state.IntegrityCheck(ctx, s.querier())
	s.countConflicts(err)
	return errors.Trace(err)
}

// IntegrityConflictLocal returns the installed packages owning files
// staged by the candidate with the given origin.
func (s *Session) IntegrityConflictLocal(ctx context.Context, origin string) ([]packages.Ref, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	refs, err := s.state.IntegrityConflictLocal(ctx, s.querier(), origin)
	return refs, errors.Trace(err)
}

// IntegrityReset discards the staged files.
func (s *Session) IntegrityReset(ctx context.Context) error {
	if err := s.usable(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(state.IntegrityReset(ctx, s.querier()))
}

func (s *Session) countConflicts(err error) {
	var ierr *pkgerrors.IntegrityError
	if errors.As(err, &ierr) {
		s.metrics.conflicts.WithLabelValues("integrity").Add(float64(len(ierr.Conflicts)))
	}
}
