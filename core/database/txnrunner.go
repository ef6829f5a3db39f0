// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"context"
	"database/sql"

	"github.com/canonical/sqlair"
)

// Querier is satisfied by both *sql.Conn and *sql.Tx, so helpers can run
// either inside a caller's transaction or directly on a connection.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxnBeginner is satisfied by both *sql.DB and *sql.Conn.
type TxnBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// StdTxnRunner runs transactions using the standard library.
type StdTxnRunner interface {
	// StdTxn executes the input function against the database, within a
	// transaction that depends on the input context.
	// Retry semantics are applied automatically based on transient failures.
	StdTxn(context.Context, func(context.Context, *sql.Tx) error) error
}

// TxnRunner defines an interface for running transactions against a
// database.
type TxnRunner interface {
	StdTxnRunner

	// Txn executes the input function against the database using the
	// sqlair package, within a transaction that depends on the input
	// context.
	// Retry semantics are applied automatically based on transient failures.
	Txn(context.Context, func(context.Context, *sqlair.TX) error) error
}
