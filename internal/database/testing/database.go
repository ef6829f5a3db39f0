// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	coredatabase "github.com/juju/pkgdb/core/database"
)

// DumpTable dumps the contents of the given table to stdout.
// This is useful for debugging tests. It is not intended for use
// in production code.
func DumpTable(c *gc.C, q coredatabase.Querier, table string, extraTables ...string) {
	for _, t := range append([]string{table}, extraTables...) {
		rows, err := q.QueryContext(context.Background(), fmt.Sprintf("SELECT * FROM %s", t))
		c.Assert(err, jc.ErrorIsNil)

		cols, err := rows.Columns()
		c.Assert(err, jc.ErrorIsNil)

		buffer := new(bytes.Buffer)
		writer := tabwriter.NewWriter(buffer, 0, 8, 4, ' ', 0)
		for _, col := range cols {
			fmt.Fprintf(writer, "%s\t", col)
		}

		fmt.Fprintln(writer)

		vals := make([]any, len(cols))
		for i := range vals {
			vals[i] = new(any)
		}

		for rows.Next() {
			err = rows.Scan(vals...)
			c.Assert(err, jc.ErrorIsNil)

			for _, val := range vals {
				fmt.Fprintf(writer, "%v\t", *val.(*any))
			}
			fmt.Fprintln(writer)
		}
		err = rows.Err()
		c.Assert(err, jc.ErrorIsNil)
		_ = rows.Close()
		writer.Flush()

		fmt.Fprintf(os.Stdout, "Table - %s:\n", t)

		var width int
		scanner := bufio.NewScanner(bytes.NewBuffer(buffer.Bytes()))
		for scanner.Scan() {
			if num := len(scanner.Text()); num > width {
				width = num
			}
		}

		fmt.Fprintln(os.Stdout, strings.Repeat("-", width))
		fmt.Fprintln(os.Stdout, buffer.String())
		fmt.Fprintln(os.Stdout, strings.Repeat("-", width))
		fmt.Fprintln(os.Stdout)
	}
}
