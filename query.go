// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/packages"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
	"github.com/juju/pkgdb/domain/packages/state"
)

// Query returns the installed packages matching pattern, ordered by name.
func (s *Session) Query(ctx context.Context, pattern string, match packages.Match) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	query, err := state.InstalledQuery(pattern, match)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.iterate(ctx, query, patternArgs(pattern, match)...)
}

// Which returns the installed package owning path. The iterator is empty
// when no package does.
func (s *Session) Which(ctx context.Context, path string) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	return s.iterate(ctx, state.WhichQuery(), path)
}

// Search looks up pattern in the given field of the repository catalogs.
// An empty repo searches every attached repository.
func (s *Session) Search(
	ctx context.Context, pattern string, match packages.Match, field packages.Field, repo string,
) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	var catalogs []string
	if repo != "" {
		name, err := s.resolveRepository(repo)
		if err != nil {
			return nil, errors.Trace(err)
		}
		catalogs = []string{name}
	} else {
		if s.mode != Remote || len(s.repos) == 0 {
			return nil, errors.Trace(pkgerrors.RemoteNotAttached)
		}
		catalogs = s.repos
	}

	query, err := state.SearchQuery(catalogs, match, field)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if field == packages.FieldNone {
		return s.iterate(ctx, query)
	}
	return s.iterate(ctx, query, patternArgs(pattern, match)...)
}

// IsDirUsed reports whether any installed package lists the directory.
func (s *Session) IsDirUsed(ctx context.Context, path string) (bool, error) {
	if err := s.usable(); err != nil {
		return false, errors.Trace(err)
	}
	n, err := s.state.DirectoryUsers(ctx, s.querier(), path)
	if err != nil {
		return false, errors.Trace(err)
	}
	return n > 0, nil
}

func patternArgs(pattern string, match packages.Match) []any {
	if match == packages.MatchAll {
		return nil
	}
	return []any{pattern}
}
