// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/pkgdb/core/database"
)

var logger = loggo.GetLogger("pkgdb.schema")

const (
	// ErrSchemaTooNew is returned when the stored schema version is newer
	// than any version known to the schema.
	ErrSchemaTooNew = errors.ConstError("schema newer than supported")

	// ErrSchemaOutdated is returned when the stored schema needs creating or
	// upgrading but the database was opened read-only.
	ErrSchemaOutdated = errors.ConstError("schema outdated, opened read-only")

	// ErrNoUpgradePath is returned when no migration exists for a version
	// between the stored and the current one.
	ErrNoUpgradePath = errors.ConstError("no upgrade path")
)

// Patch is a DDL statement, or a list of them, applied in one exec.
type Patch struct {
	stmt string
}

// MakePatch returns a patch for the given statement(s).
func MakePatch(stmt string) Patch {
	return Patch{stmt: stmt}
}

// Stmt returns the statement of the patch.
func (p Patch) Stmt() string {
	return p.stmt
}

// Schema is a versioned database schema. A fresh database is created at the
// newest version in one go, while an existing one is migrated one version
// at a time. The version is stored in the user_version pragma.
type Schema struct {
	baseVersion int
	baseline    []Patch
	migrations  map[int][]Patch
	latest      int
}

// New returns a schema whose baseline patches produce the given version.
func New(baseVersion int, baseline ...Patch) *Schema {
	return &Schema{
		baseVersion: baseVersion,
		baseline:    baseline,
		migrations:  make(map[int][]Patch),
		latest:      baseVersion,
	}
}

// AddMigration registers the patches upgrading the previous version to the
// given one.
func (s *Schema) AddMigration(version int, patches ...Patch) *Schema {
	s.migrations[version] = append(s.migrations[version], patches...)
	if version > s.latest {
		s.latest = version
	}
	return s
}

// Version returns the newest version the schema knows about.
func (s *Schema) Version() int {
	return s.latest
}

// ChangeSet reports the versions before and after Ensure.
type ChangeSet struct {
	Previous int
	Current  int
}

// Ensure brings the database schema up to the newest version.
func (s *Schema) Ensure(ctx context.Context, runner database.StdTxnRunner, writable bool) (ChangeSet, error) {
	var stored int
	if err := runner.StdTxn(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		stored, err = UserVersion(ctx, tx)
		return errors.Trace(err)
	}); err != nil {
		return ChangeSet{}, errors.Annotate(err, "reading schema version")
	}

	change := ChangeSet{Previous: stored, Current: stored}
	switch {
	case stored == s.latest:
		return change, nil
	case stored > s.latest:
		return change, errors.Annotatef(ErrSchemaTooNew, "version %d, supported %d", stored, s.latest)
	case !writable:
		return change, errors.Annotatef(ErrSchemaOutdated, "version %d, current %d", stored, s.latest)
	case stored == 0:
		if err := runner.StdTxn(ctx, s.create); err != nil {
			return change, errors.Annotate(err, "creating schema")
		}
		logger.Debugf("created schema at version %d", s.latest)
		change.Current = s.latest
		return change, nil
	}

	for v := stored + 1; v <= s.latest; v++ {
		patches, ok := s.migrations[v]
		if !ok || v <= s.baseVersion {
			return change, errors.Annotatef(ErrNoUpgradePath, "from version %d to %d", v-1, v)
		}
		logger.Infof("upgrading schema from version %d to %d", v-1, v)
		if err := runner.StdTxn(ctx, func(ctx context.Context, tx *sql.Tx) error {
			if err := applyPatches(ctx, tx, patches); err != nil {
				return errors.Trace(err)
			}
			return errors.Trace(SetUserVersion(ctx, tx, v))
		}); err != nil {
			return change, errors.Annotatef(err, "upgrading schema to version %d", v)
		}
		change.Current = v
	}
	return change, nil
}

func (s *Schema) create(ctx context.Context, tx *sql.Tx) error {
	if err := applyPatches(ctx, tx, s.baseline); err != nil {
		return errors.Trace(err)
	}
	versions := make([]int, 0, len(s.migrations))
	for v := range s.migrations {
		if v > s.baseVersion {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)
	for _, v := range versions {
		if err := applyPatches(ctx, tx, s.migrations[v]); err != nil {
			return errors.Annotatef(err, "version %d", v)
		}
	}
	return errors.Trace(SetUserVersion(ctx, tx, s.latest))
}

func applyPatches(ctx context.Context, tx *sql.Tx, patches []Patch) error {
	for i, patch := range patches {
		if _, err := tx.ExecContext(ctx, patch.stmt); err != nil {
			return errors.Annotatef(err, "applying patch %d", i)
		}
	}
	return nil
}

// UserVersion returns the schema version stored in the database.
func UserVersion(ctx context.Context, q database.Querier) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, errors.Trace(err)
	}
	return v, nil
}

// SetUserVersion records the schema version in the database.
func SetUserVersion(ctx context.Context, q database.Querier, v int) error {
	// Pragmas do not accept bound parameters.
	_, err := q.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v))
	return errors.Trace(err)
}
