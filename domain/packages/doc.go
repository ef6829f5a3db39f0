// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package packages holds the storage layer of the package database: the
// registration and removal protocol for installed packages, lazy loading of
// package attributes, dependency closure planning and file integrity
// checks.
//
// All state functions run against a caller supplied querier, which is
// either a transaction or the session's pinned connection. They never
// commit or roll back on their own.
package packages
