// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package core holds the concepts and pure logic of the package database:
package records and their attributes, catalog names, version ordering and
the schema machinery.

It is important to be aware of what should *not* go here:

  - if it runs SQL against a catalog, it belongs in domain.
  - if it is concerned with the driver, transactions or serialization, it
    belongs in internal.

It is fine to import from any subpackage of "github.com/juju/pkgdb/core",
but nothing outside core.
*/
package core
