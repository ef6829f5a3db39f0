// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package txn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"
	"time"

	"github.com/canonical/sqlair"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/retry"
	"github.com/mattn/go-sqlite3"

	"github.com/juju/pkgdb/core/database"
)

// RetryStrategy runs fn until it succeeds or fails with an error that
// cannot be retried.
type RetryStrategy func(context.Context, func() error) error

type option struct {
	logger        loggo.Logger
	retryStrategy RetryStrategy
}

// Option configures a RetryingTxnRunner.
type Option func(*option)

// WithLogger sets the logger of the runner.
func WithLogger(logger loggo.Logger) Option {
	return func(o *option) {
		o.logger = logger
	}
}

// WithRetryStrategy replaces the default retry strategy.
func WithRetryStrategy(strategy RetryStrategy) Option {
	return func(o *option) {
		o.retryStrategy = strategy
	}
}

func newOptions() *option {
	logger := loggo.GetLogger("pkgdb.txn")
	return &option{
		logger:        logger,
		retryStrategy: DefaultRetryStrategy(clock.WallClock, logger),
	}
}

// RetryingTxnRunner runs transactions, retrying the whole transaction when
// the database reports it is busy.
type RetryingTxnRunner struct {
	logger        loggo.Logger
	retryStrategy RetryStrategy
}

// NewRetryingTxnRunner returns a new RetryingTxnRunner.
func NewRetryingTxnRunner(opts ...Option) *RetryingTxnRunner {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &RetryingTxnRunner{
		logger:        o.logger,
		retryStrategy: o.retryStrategy,
	}
}

// Txn executes the input function against the sqlair database within a
// transaction. The transaction is rolled back if fn returns an error.
// No retries are attempted, callers wrap it in Retry for that.
func (t *RetryingTxnRunner) Txn(ctx context.Context, db *sqlair.DB, fn func(context.Context, *sqlair.TX) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}

	tx, err := db.Begin(ctx, nil)
	if err != nil {
		return errors.Trace(err)
	}
	if err := fn(ctx, tx); err != nil {
		if rErr := tx.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) {
			t.logger.Warningf("failed to roll back transaction: %v", rErr)
		}
		return errors.Trace(err)
	}
	if err := tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Trace(err)
	}
	return nil
}

// StdTxn executes the input function against the database within a
// transaction. The transaction is rolled back if fn returns an error.
// No retries are attempted, callers wrap it in Retry for that.
func (t *RetryingTxnRunner) StdTxn(ctx context.Context, db database.TxnBeginner, fn func(context.Context, *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Trace(err)
	}
	if err := fn(ctx, tx); err != nil {
		if rErr := tx.Rollback(); rErr != nil && !errors.Is(rErr, sql.ErrTxDone) {
			t.logger.Warningf("failed to roll back transaction: %v", rErr)
		}
		return errors.Trace(err)
	}
	if err := tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Trace(err)
	}
	return nil
}

// Retry defines a generic retry function for applying a function that
// interacts with the database. It will retry in cases of transient known
// database errors.
func (t *RetryingTxnRunner) Retry(ctx context.Context, fn func() error) error {
	return t.retryStrategy(ctx, fn)
}

// DefaultRetryStrategy returns a retry strategy that retries busy and
// locked errors with a doubling delay.
func DefaultRetryStrategy(clock clock.Clock, logger loggo.Logger) RetryStrategy {
	return func(ctx context.Context, fn func() error) error {
		return retry.Call(retry.CallArgs{
			Func: fn,
			IsFatalError: func(err error) bool {
				return !IsErrRetryable(err)
			},
			NotifyFunc: func(err error, attempt int) {
				logger.Tracef("retrying transaction, attempt %d: %v", attempt, err)
			},
			Attempts:    250,
			Delay:       time.Millisecond,
			MaxDelay:    100 * time.Millisecond,
			BackoffFunc: retry.DoubleDelay,
			Clock:       clock,
			Stop:        ctx.Done(),
		})
	}
}

// IsErrRetryable returns true if the given error might be transient and
// the interaction can be safely retried.
func IsErrRetryable(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return true
	}
	var errNo sqlite3.ErrNo
	if errors.As(err, &errNo) && (errNo == sqlite3.ErrBusy || errNo == sqlite3.ErrLocked) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	msg := err.Error()
	for _, transient := range []string{
		"database is locked",
		"cannot start a transaction within a transaction",
		"bad connection",
		"checkpoint in progress",
	} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
