// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package state

import (
	"context"

	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
	internaldatabase "github.com/juju/pkgdb/internal/database"
)

// VacuumThreshold is the share of free pages above which the local catalog
// is worth compacting.
const VacuumThreshold = 0.25

// DirectoryUsers returns how many installed packages list the directory.
func (st *State) DirectoryUsers(ctx context.Context, q database.Querier, path string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
SELECT count(pd.package_id)
FROM main.pkg_directories AS pd
JOIN main.directories AS d ON d.id = pd.directory_id
WHERE d.path = ?`, path).Scan(&n)
	return n, errors.Annotatef(err, "counting users of %s", path)
}

// Compact rebuilds the local catalog when enough of it is free pages. It
// reports whether a rebuild ran. It must not be called inside a
// transaction.
func (st *State) Compact(ctx context.Context, q database.Querier) (bool, error) {
	ratio, err := internaldatabase.FreePageRatio(ctx, q)
	if err != nil {
		return false, errors.Trace(err)
	}
	if ratio < VacuumThreshold {
		st.logger.Debugf("free page ratio %.2f below %.2f, not compacting", ratio, VacuumThreshold)
		return false, nil
	}
	st.logger.Infof("compacting local catalog, free page ratio %.2f", ratio)
	if err := exec(ctx, q, "VACUUM main"); err != nil {
		return false, errors.Trace(err)
	}
	return true, nil
}
