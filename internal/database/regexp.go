// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/juju/errors"

	"github.com/juju/pkgdb/core/version"
)

// DefaultRegexpCacheSize is the number of compiled patterns kept per cache.
const DefaultRegexpCacheSize = 128

// RegexpCache compiles and caches POSIX regular expressions used by the
// regexp and eregexp SQL functions.
type RegexpCache struct {
	cache *lru.Cache
}

// NewRegexpCache returns a cache holding at most size compiled patterns.
func NewRegexpCache(size int) (*RegexpCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &RegexpCache{cache: cache}, nil
}

// MatchBasic reports whether s matches the POSIX basic regular expression.
func (c *RegexpCache) MatchBasic(pattern, s string) (bool, error) {
	re, err := c.compile(pattern, false)
	if err != nil {
		return false, errors.Trace(err)
	}
	return re.MatchString(s), nil
}

// MatchExtended reports whether s matches the POSIX extended regular
// expression.
func (c *RegexpCache) MatchExtended(pattern, s string) (bool, error) {
	re, err := c.compile(pattern, true)
	if err != nil {
		return false, errors.Trace(err)
	}
	return re.MatchString(s), nil
}

// Purge drops every compiled pattern.
func (c *RegexpCache) Purge() {
	c.cache.Purge()
}

func (c *RegexpCache) compile(pattern string, extended bool) (*regexp.Regexp, error) {
	key := "b:" + pattern
	if extended {
		key = "e:" + pattern
	}
	if re, ok := c.cache.Get(key); ok {
		return re.(*regexp.Regexp), nil
	}

	expr := pattern
	if !extended {
		expr = TranslateBasic(pattern)
	}
	re, err := regexp.CompilePOSIX(expr)
	if err != nil {
		return nil, errors.Annotatef(err, "invalid regular expression %q", pattern)
	}
	c.cache.Add(key, re)
	return re, nil
}

// TranslateBasic rewrites a POSIX basic regular expression into the
// extended syntax understood by the regexp package.
func TranslateBasic(pattern string) string {
	var b strings.Builder
	// In a basic expression '*' is literal at the start of the expression
	// or of a group, and '^' only anchors there.
	atStart := true
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		next := false
		switch c {
		case '\\':
			if i+1 == len(pattern) {
				b.WriteString(`\\`)
				break
			}
			i++
			switch n := pattern[i]; n {
			case '(', '|':
				b.WriteByte(n)
				next = true
			case ')', '{', '}', '+', '?':
				b.WriteByte(n)
			default:
				b.WriteByte('\\')
				b.WriteByte(n)
			}
		case '(', ')', '{', '}', '|', '+', '?':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '*':
			if atStart {
				b.WriteString(`\*`)
			} else {
				b.WriteByte('*')
			}
		case '^':
			if atStart {
				b.WriteByte('^')
				next = true
			} else {
				b.WriteString(`\^`)
			}
		case '$':
			if i == len(pattern)-1 || strings.HasPrefix(pattern[i+1:], `\)`) {
				b.WriteByte('$')
			} else {
				b.WriteString(`\$`)
			}
		case '[':
			end := bracketEnd(pattern, i)
			b.WriteString(strings.ReplaceAll(pattern[i:end], `\`, `\\`))
			i = end - 1
		default:
			b.WriteByte(c)
		}
		atStart = next
	}
	return b.String()
}

// bracketEnd returns the index just past the bracket expression starting at
// i, or the length of the pattern if it is not terminated.
func bracketEnd(pattern string, i int) int {
	j := i + 1
	if j < len(pattern) && pattern[j] == '^' {
		j++
	}
	if j < len(pattern) && pattern[j] == ']' {
		j++
	}
	for j < len(pattern) {
		switch {
		case pattern[j] == ']':
			return j + 1
		case pattern[j] == '[' && j+1 < len(pattern) && strings.IndexByte(":=.", pattern[j+1]) >= 0:
			closing := string([]byte{pattern[j+1], ']'})
			if k := strings.Index(pattern[j+2:], closing); k >= 0 {
				j += k + 4
				continue
			}
			j++
		default:
			j++
		}
	}
	return len(pattern)
}

// Functions returns the SQL functions every package database connection
// carries: regexp and eregexp take the pattern first, pkglt and pkggt
// compare version strings.
func Functions(cache *RegexpCache, cmp version.Comparator) []Function {
	return []Function{{
		Name: "regexp",
		Impl: cache.MatchBasic,
		Pure: true,
	}, {
		Name: "eregexp",
		Impl: cache.MatchExtended,
		Pure: true,
	}, {
		Name: "pkglt",
		Impl: func(a, b string) bool { return cmp(a, b) < 0 },
		Pure: true,
	}, {
		Name: "pkggt",
		Impl: func(a, b string) bool { return cmp(a, b) > 0 },
		Pure: true,
	}}
}
