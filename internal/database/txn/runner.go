// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package txn

import (
	"context"
	"database/sql"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/database"
)

type stdRunner struct {
	runner *RetryingTxnRunner
	db     database.TxnBeginner
}

// NewStdRunner returns a runner of retried transactions begun on db, which
// may be a pinned connection.
func NewStdRunner(runner *RetryingTxnRunner, db database.TxnBeginner) database.StdTxnRunner {
	return &stdRunner{runner: runner, db: db}
}

// StdTxn implements database.StdTxnRunner.
func (r *stdRunner) StdTxn(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	return r.runner.Retry(ctx, func() error {
		return errors.Trace(r.runner.StdTxn(ctx, r.db, fn))
	})
}

type txnRunner struct {
	runner *RetryingTxnRunner
	db     *sqlair.DB
}

// NewRunner returns a runner of retried transactions against db, using
// either sqlair or the standard library.
func NewRunner(runner *RetryingTxnRunner, db *sql.DB) database.TxnRunner {
	return &txnRunner{runner: runner, db: sqlair.NewDB(db)}
}

// Txn implements database.TxnRunner.
func (r *txnRunner) Txn(ctx context.Context, fn func(context.Context, *sqlair.TX) error) error {
	return r.runner.Retry(ctx, func() error {
		return errors.Trace(r.runner.Txn(ctx, r.db, fn))
	})
}

// StdTxn implements database.TxnRunner.
func (r *txnRunner) StdTxn(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	return r.runner.Retry(ctx, func() error {
		return errors.Trace(r.runner.StdTxn(ctx, r.db.PlainDB(), fn))
	})
}
