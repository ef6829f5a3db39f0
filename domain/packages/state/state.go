// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/internal/identity"
)

// State implements the storage of the package database on top of an
// attached set of catalogs.
type State struct {
	lookup identity.Lookup
	logger loggo.Logger
}

// NewState returns a new State. Users and groups loaded from the local
// catalog are resolved with lookup, which may be nil.
func NewState(lookup identity.Lookup, logger loggo.Logger) *State {
	return &State{
		lookup: lookup,
		logger: logger,
	}
}

// exec runs each statement in order against q, stopping at the first
// failure.
func exec(ctx context.Context, q database.Querier, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return errors.Annotatef(err, "executing %q", firstLine(stmt))
		}
	}
	return nil
}

func firstLine(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
