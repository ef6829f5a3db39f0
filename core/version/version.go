// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package version orders package version strings.
//
// A version has the form VERSION[_REVISION][,EPOCH]. Epochs are compared
// first, then the version proper component by component, then the port
// revision. Within the version, "alpha", "beta", "pre" and "rc" (and any
// other letters) sort before the release, while "pl" sorts after it.
package version

import (
	"strconv"
	"strings"
)

// Comparator orders two version strings, returning a negative number when
// a sorts before b, zero when they are equal and a positive number
// otherwise.
type Comparator func(a, b string) int

type parsed struct {
	version  string
	revision int
	epoch    int
}

func parse(v string) parsed {
	var p parsed
	if i := strings.LastIndexByte(v, ','); i >= 0 {
		p.epoch, _ = strconv.Atoi(v[i+1:])
		v = v[:i]
	}
	if i := strings.LastIndexByte(v, '_'); i >= 0 {
		p.revision, _ = strconv.Atoi(v[i+1:])
		v = v[:i]
	}
	p.version = v
	return p
}

// Compare is the default Comparator.
func Compare(a, b string) int {
	pa, pb := parse(a), parse(b)
	if c := compareInt(pa.epoch, pb.epoch); c != 0 {
		return c
	}
	if c := compareComponents(tokenize(pa.version), tokenize(pb.version)); c != 0 {
		return c
	}
	return compareInt(pa.revision, pb.revision)
}

// Less reports whether a sorts before b.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

type tokenKind int

const (
	// Ordering of kinds when two tokens of different kinds meet at the
	// same position.
	kindPreRelease tokenKind = iota
	kindEnd
	kindPatchLevel
	kindNumber
)

type token struct {
	kind  tokenKind
	num   int
	alpha string
}

func tokenize(v string) []token {
	var tokens []token
	for i := 0; i < len(v); {
		c := v[i]
		switch {
		case isDigit(c):
			j := i
			for j < len(v) && isDigit(v[j]) {
				j++
			}
			n, _ := strconv.Atoi(v[i:j])
			tokens = append(tokens, token{kind: kindNumber, num: n})
			i = j
		case isAlpha(c):
			j := i
			for j < len(v) && isAlpha(v[j]) {
				j++
			}
			word := strings.ToLower(v[i:j])
			kind := kindPreRelease
			if word == "pl" {
				kind = kindPatchLevel
			}
			tokens = append(tokens, token{kind: kind, alpha: word})
			i = j
		default:
			i++
		}
	}
	return tokens
}

var preReleaseRank = map[string]int{
	"a":     1,
	"alpha": 1,
	"b":     2,
	"beta":  2,
	"pre":   3,
	"rc":    4,
}

func compareComponents(a, b []token) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ta, tb := tokenAt(a, i), tokenAt(b, i)
		if c := compareToken(ta, tb); c != 0 {
			return c
		}
	}
	return 0
}

func tokenAt(tokens []token, i int) token {
	if i < len(tokens) {
		return tokens[i]
	}
	return token{kind: kindEnd}
}

func compareToken(a, b token) int {
	// A missing component is equivalent to zero when compared with a number,
	// so 1.0 and 1.0.0 are equal.
	if a.kind == kindEnd && b.kind == kindNumber {
		return compareInt(0, b.num)
	}
	if a.kind == kindNumber && b.kind == kindEnd {
		return compareInt(a.num, 0)
	}
	if a.kind != b.kind {
		return compareInt(int(a.kind), int(b.kind))
	}
	switch a.kind {
	case kindNumber:
		return compareInt(a.num, b.num)
	case kindPreRelease:
		ra, rb := preReleaseRank[a.alpha], preReleaseRank[b.alpha]
		if ra != rb {
			if ra == 0 {
				return 1
			}
			if rb == 0 {
				return -1
			}
			return compareInt(ra, rb)
		}
		return strings.Compare(a.alpha, b.alpha)
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
