// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"

	"github.com/juju/errors"

	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
)

// Compact vacuums the local catalog when enough of it is free space and
// reports whether it did.
func (s *Session) Compact(ctx context.Context) (bool, error) {
	if err := s.writable(); err != nil {
		return false, errors.Trace(err)
	}
	if s.tx != nil {
		return false, errors.Trace(pkgerrors.TxnInProgress)
	}
	done, err := s.state.Compact(ctx, s.conn)
	return done, errors.Annotate(err, "compacting local catalog")
}
