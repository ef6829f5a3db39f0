// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package txn_test

import (
	"context"
	"database/sql"
	"time"

	"github.com/canonical/sqlair"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	jc "github.com/juju/testing/checkers"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/mock/gomock"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb/internal/database/testing"
	"github.com/juju/pkgdb/internal/database/txn"
)

type transactionRunnerSuite struct {
	testing.SQLiteSuite

	clock *MockClock
}

var _ = gc.Suite(&transactionRunnerSuite{})

func (s *transactionRunnerSuite) TestTxn(c *gc.C) {
	runner := txn.NewRetryingTxnRunner()

	err := runner.StdTxn(context.Background(), s.DB(), func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT 1")
		if err != nil {
			return errors.Trace(err)
		}
		defer rows.Close()
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *transactionRunnerSuite) TestTxnWithCancelledContext(c *gc.C) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := txn.NewRetryingTxnRunner()

	err := runner.StdTxn(ctx, s.DB(), func(ctx context.Context, tx *sql.Tx) error {
		c.Fatal("should not be called")
		return nil
	})
	c.Assert(err, gc.ErrorMatches, "context canceled")
}

func (s *transactionRunnerSuite) TestTxnInserts(c *gc.C) {
	runner := txn.NewRetryingTxnRunner()

	s.createTable(c)

	err := runner.StdTxn(context.Background(), s.DB(), func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO foo (id, name) VALUES (1, 'test')")
		return errors.Trace(err)
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.Count(c, "foo", ""), gc.Equals, 1)
}

func (s *transactionRunnerSuite) TestTxnRollback(c *gc.C) {
	runner := txn.NewRetryingTxnRunner()

	s.createTable(c)

	err := runner.StdTxn(context.Background(), s.DB(), func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO foo (id, name) VALUES (1, 'test')")
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Errorf("fail")
	})
	c.Assert(err, gc.ErrorMatches, "fail")

	// Now verify that the transaction was rolled back.
	c.Check(s.Count(c, "foo", ""), gc.Equals, 0)
}

type fooRow struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

func (s *transactionRunnerSuite) TestSqlairTxn(c *gc.C) {
	runner := txn.NewRetryingTxnRunner()

	s.createTable(c)

	insert, err := sqlair.Prepare("INSERT INTO foo (id, name) VALUES ($fooRow.id, $fooRow.name)", fooRow{})
	c.Assert(err, jc.ErrorIsNil)

	err = runner.Txn(context.Background(), sqlair.NewDB(s.DB()), func(ctx context.Context, tx *sqlair.TX) error {
		return errors.Trace(tx.Query(ctx, insert, fooRow{ID: 1, Name: "test"}).Run())
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Check(s.Count(c, "foo", "name = 'test'"), gc.Equals, 1)
}

func (s *transactionRunnerSuite) TestBoundRunner(c *gc.C) {
	s.createTable(c)

	conn, err := s.DB().Conn(context.Background())
	c.Assert(err, jc.ErrorIsNil)
	defer conn.Close()

	runner := txn.NewStdRunner(txn.NewRetryingTxnRunner(), conn)
	err = runner.StdTxn(context.Background(), func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO foo (id, name) VALUES (1, 'test')")
		return errors.Trace(err)
	})
	c.Assert(err, jc.ErrorIsNil)

	var name string
	err = conn.QueryRowContext(context.Background(), "SELECT name FROM foo WHERE id = 1").Scan(&name)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(name, gc.Equals, "test")
}

func (s *transactionRunnerSuite) TestRetryForNonRetryableError(c *gc.C) {
	runner := txn.NewRetryingTxnRunner()

	var count int
	err := runner.Retry(context.Background(), func() error {
		count++
		return errors.Errorf("fail")
	})
	c.Assert(err, gc.ErrorMatches, "fail")
	c.Assert(count, gc.Equals, 1)
}

func (s *transactionRunnerSuite) TestRetryWithACancelledContext(c *gc.C) {
	ctx, cancel := context.WithCancel(context.Background())

	runner := txn.NewRetryingTxnRunner()

	var count int
	err := runner.Retry(ctx, func() error {
		defer cancel()

		count++
		return errors.Errorf("fail")
	})
	c.Assert(err, gc.ErrorMatches, "fail")
	c.Assert(count, gc.Equals, 1)
}

func (s *transactionRunnerSuite) TestRetryForRetryableError(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	s.clock.EXPECT().After(gomock.Any()).DoAndReturn(func(d time.Duration) <-chan time.Time {
		ch := make(chan time.Time)
		close(ch)
		return ch
	}).AnyTimes()

	runner := txn.NewRetryingTxnRunner(txn.WithRetryStrategy(txn.DefaultRetryStrategy(s.clock, loggo.GetLogger("test"))))

	var count int
	err := runner.Retry(context.Background(), func() error {
		count++
		return sqlite3.ErrBusy
	})
	c.Assert(err, gc.ErrorMatches, "attempt count exceeded: .*")
	c.Assert(count, gc.Equals, 250)
}

func (s *transactionRunnerSuite) TestRetryRecovers(c *gc.C) {
	defer s.setupMocks(c).Finish()

	s.clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	s.clock.EXPECT().After(gomock.Any()).DoAndReturn(func(d time.Duration) <-chan time.Time {
		ch := make(chan time.Time)
		close(ch)
		return ch
	}).AnyTimes()

	runner := txn.NewRetryingTxnRunner(txn.WithRetryStrategy(txn.DefaultRetryStrategy(s.clock, loggo.GetLogger("test"))))

	var count int
	err := runner.Retry(context.Background(), func() error {
		count++
		if count < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(count, gc.Equals, 3)
}

func (s *transactionRunnerSuite) createTable(c *gc.C) {
	s.Exec(c, "CREATE TABLE foo (id INT PRIMARY KEY, name VARCHAR(255))")
}

func (s *transactionRunnerSuite) setupMocks(c *gc.C) *gomock.Controller {
	ctrl := gomock.NewController(c)

	s.clock = NewMockClock(ctrl)

	return ctrl
}
