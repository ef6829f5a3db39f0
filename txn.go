// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"
	"database/sql"

	"github.com/juju/errors"

	coredatabase "github.com/juju/pkgdb/core/database"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
	"github.com/juju/pkgdb/internal/database/txn"
)

const savepoint = "pkgdb_op"

// Begin opens a bulk transaction. Every write until Commit or Rollback
// runs inside it. Iterators must be closed before the transaction ends.
func (s *Session) Begin(ctx context.Context) error {
	if err := s.writable(); err != nil {
		return errors.Trace(err)
	}
	if s.tx != nil {
		return errors.Trace(pkgerrors.TxnInProgress)
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "beginning transaction")
	}
	s.tx = tx
	return nil
}

// Commit commits the bulk transaction.
func (s *Session) Commit() error {
	if err := s.usable(); err != nil {
		return errors.Trace(err)
	}
	if s.tx == nil {
		return errors.Trace(pkgerrors.NoTxnInProgress)
	}
	tx := s.tx
	s.tx = nil
	return errors.Annotate(tx.Commit(), "committing transaction")
}

// Rollback discards the bulk transaction.
func (s *Session) Rollback() error {
	if err := s.usable(); err != nil {
		return errors.Trace(err)
	}
	if s.tx == nil {
		return errors.Trace(pkgerrors.NoTxnInProgress)
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Annotate(err, "rolling back transaction")
	}
	return nil
}

// InTransaction reports whether a bulk transaction is open.
func (s *Session) InTransaction() bool {
	return s != nil && s.tx != nil
}

// querier returns the handle reads run against.
func (s *Session) querier() coredatabase.Querier {
	if s.tx != nil {
		return s.tx
	}
	return s.conn
}

// withTx runs fn atomically. Outside a bulk transaction fn gets its own
// retried transaction. Inside one it runs under a savepoint, so a failed
// operation leaves the bulk transaction as it was.
func (s *Session) withTx(ctx context.Context, fn func(context.Context, coredatabase.Querier) error) error {
	if s.tx == nil {
		runner := txn.NewStdRunner(s.runner, s.conn)
		return errors.Trace(runner.StdTxn(ctx, func(ctx context.Context, tx *sql.Tx) error {
			return fn(ctx, tx)
		}))
	}

	if _, err := s.tx.ExecContext(ctx, "SAVEPOINT "+savepoint); err != nil {
		return errors.Annotate(err, "opening savepoint")
	}
	if err := fn(ctx, s.tx); err != nil {
		if _, rErr := s.tx.ExecContext(ctx, "ROLLBACK TO "+savepoint); rErr != nil {
			logger.Warningf("rolling back to savepoint: %v", rErr)
		}
		if _, rErr := s.tx.ExecContext(ctx, "RELEASE "+savepoint); rErr != nil {
			logger.Warningf("releasing savepoint: %v", rErr)
		}
		return errors.Trace(err)
	}
	_, err := s.tx.ExecContext(ctx, "RELEASE "+savepoint)
	return errors.Annotate(err, "releasing savepoint")
}
