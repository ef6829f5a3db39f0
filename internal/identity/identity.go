// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package identity resolves system users and groups named by packages.
package identity

import (
	"os/user"

	"github.com/juju/errors"
)

// Lookup resolves user and group names to their numeric ids.
type Lookup interface {
	// LookupUser returns the uid of the named user.
	LookupUser(name string) (string, error)

	// LookupGroup returns the gid of the named group.
	LookupGroup(name string) (string, error)
}

// NewOSLookup returns a Lookup backed by the host user database.
func NewOSLookup() Lookup {
	return osLookup{}
}

type osLookup struct{}

// LookupUser implements Lookup.
func (osLookup) LookupUser(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		var unknown user.UnknownUserError
		if errors.As(err, &unknown) {
			return "", errors.NotFoundf("user %q", name)
		}
		return "", errors.Trace(err)
	}
	return u.Uid, nil
}

// LookupGroup implements Lookup.
func (osLookup) LookupGroup(name string) (string, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		var unknown user.UnknownGroupError
		if errors.As(err, &unknown) {
			return "", errors.NotFoundf("group %q", name)
		}
		return "", errors.Trace(err)
	}
	return g.Gid, nil
}

// Static is a Lookup over fixed tables, for hosts without a user database.
type Static struct {
	Users  map[string]string
	Groups map[string]string
}

// LookupUser implements Lookup.
func (s Static) LookupUser(name string) (string, error) {
	if uid, ok := s.Users[name]; ok {
		return uid, nil
	}
	return "", errors.NotFoundf("user %q", name)
}

// LookupGroup implements Lookup.
func (s Static) LookupGroup(name string) (string, error) {
	if gid, ok := s.Groups[name]; ok {
		return gid, nil
	}
	return "", errors.NotFoundf("group %q", name)
}
