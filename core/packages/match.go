// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package packages

// Match selects how a pattern is compared against a column.
type Match int

const (
	// MatchAll ignores the pattern and selects every row.
	MatchAll Match = iota
	// MatchExact compares for equality.
	MatchExact
	// MatchGlob uses shell glob semantics.
	MatchGlob
	// MatchRegex uses POSIX basic regular expressions.
	MatchRegex
	// MatchExtendedRegex uses POSIX extended regular expressions.
	MatchExtendedRegex
)

// String returns the name of the match mode.
func (m Match) String() string {
	switch m {
	case MatchAll:
		return "all"
	case MatchExact:
		return "exact"
	case MatchGlob:
		return "glob"
	case MatchRegex:
		return "regex"
	case MatchExtendedRegex:
		return "eregex"
	}
	return "unknown"
}

// Field selects the column a repository search compares against.
type Field int

const (
	FieldNone Field = iota
	FieldOrigin
	FieldName
	FieldNameVersion
	FieldComment
	FieldDescription
)

// String returns the name of the field.
func (f Field) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldOrigin:
		return "origin"
	case FieldName:
		return "name"
	case FieldNameVersion:
		return "name-version"
	case FieldComment:
		return "comment"
	case FieldDescription:
		return "desc"
	}
	return "unknown"
}
