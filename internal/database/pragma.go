// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"context"

	"github.com/juju/errors"

	coredatabase "github.com/juju/pkgdb/core/database"
)

// AttachedDatabase is a row of the database_list pragma.
type AttachedDatabase struct {
	Seq  int
	Name string
	File string
}

// DatabaseList returns the databases attached to the connection, including
// the main and temp databases.
func DatabaseList(ctx context.Context, q coredatabase.Querier) ([]AttachedDatabase, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA database_list")
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()

	var dbs []AttachedDatabase
	for rows.Next() {
		var db AttachedDatabase
		if err := rows.Scan(&db.Seq, &db.Name, &db.File); err != nil {
			return nil, errors.Trace(err)
		}
		dbs = append(dbs, db)
	}
	return dbs, errors.Trace(rows.Err())
}

// FreePageRatio returns the ratio of free pages to all pages of the main
// database.
func FreePageRatio(ctx context.Context, q coredatabase.Querier) (float64, error) {
	var pages, free int64
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return 0, errors.Annotate(err, "reading page count")
	}
	if err := q.QueryRowContext(ctx, "PRAGMA freelist_count").Scan(&free); err != nil {
		return 0, errors.Annotate(err, "reading free page count")
	}
	if pages == 0 {
		return 0, nil
	}
	return float64(free) / float64(pages), nil
}
