// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"

	"github.com/juju/errors"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/domain/packages/state"
)

type prepareFunc func(context.Context, coredatabase.Querier) (int, error)

// plan fills the working set with prepare and returns an iterator over it.
// The working set is dropped when the iterator is closed.
func (s *Session) plan(ctx context.Context, kind state.PlanKind, prepare prepareFunc, query string) (*Iterator, error) {
	start := s.clock.Now()
	var iterations int
	if err := s.withTx(ctx, func(ctx context.Context, q coredatabase.Querier) error {
		var err error
		iterations, err = prepare(ctx, q)
		return errors.Trace(err)
	}); err != nil {
		return nil, errors.Annotatef(err, "computing %s plan", kind)
	}

	it, err := s.iterate(ctx, query)
	if err != nil {
		if dErr := state.DropJobs(ctx, s.querier()); dErr != nil {
			logger.Warningf("dropping %s plan: %v", kind, dErr)
		}
		return nil, errors.Annotatef(err, "reading %s plan", kind)
	}
	it.cleanup = state.DropJobs

	label := string(kind)
	s.metrics.plans.WithLabelValues(label).Inc()
	s.metrics.iterations.WithLabelValues(label).Add(float64(iterations))
	s.metrics.planDuration.WithLabelValues(label).Observe(s.clock.Now().Sub(start).Seconds())
	logger.Debugf("%s plan computed in %d closure iterations", kind, iterations)
	return it, nil
}

// QueryInstalls plans the installation of the repository packages matching
// the patterns together with every dependency that is missing or out of
// date. Packages come out in install order, dependencies first.
func (s *Session) QueryInstalls(
	ctx context.Context, match packages.Match, patterns []string, repo string,
) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	catalog, err := s.resolveRepository(repo)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.plan(ctx, state.PlanInstall, func(ctx context.Context, q coredatabase.Querier) (int, error) {
		return s.state.PrepareInstall(ctx, q, catalog, match, patterns)
	}, state.RemotePlanQuery())
}

// QueryUpgrades plans the upgrade of every installed package the
// repository has a newer version of, plus the new dependencies they pull
// in.
func (s *Session) QueryUpgrades(ctx context.Context, repo string) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	catalog, err := s.resolveRepository(repo)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return s.plan(ctx, state.PlanUpgrade, func(ctx context.Context, q coredatabase.Querier) (int, error) {
		return s.state.PrepareUpgrade(ctx, q, catalog)
	}, state.RemotePlanQuery())
}

// QueryDowngrades lists the installed packages whose version is newer than
// the one the repository carries.
func (s *Session) QueryDowngrades(ctx context.Context, repo string) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	catalog, err := s.resolveRepository(repo)
	if err != nil {
		return nil, errors.Trace(err)
	}
	it, err := s.iterate(ctx, state.DowngradeQuery(catalog))
	if err != nil {
		return nil, errors.Annotate(err, "reading downgrade plan")
	}
	s.metrics.plans.WithLabelValues(string(state.PlanDowngrade)).Inc()
	return it, nil
}

// QueryAutoremove plans the removal of automatically installed packages
// nothing else depends on, repeated until no more qualify.
func (s *Session) QueryAutoremove(ctx context.Context) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	return s.plan(ctx, state.PlanAutoremove, s.state.PrepareAutoremove, state.LocalPlanQuery())
}

// QueryDelete plans the removal of the installed packages matching the
// patterns and, when recursive, of everything that depends on them.
func (s *Session) QueryDelete(
	ctx context.Context, match packages.Match, patterns []string, recursive bool,
) (*Iterator, error) {
	if err := s.usable(); err != nil {
		return nil, errors.Trace(err)
	}
	return s.plan(ctx, state.PlanDelete, func(ctx context.Context, q coredatabase.Querier) (int, error) {
		return s.state.PrepareDelete(ctx, q, match, patterns, recursive)
	}, state.LocalPlanQuery())
}
