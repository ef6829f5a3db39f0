// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package database_test

import (
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/pkgdb/internal/database"
)

type regexpSuite struct {
	testing.IsolationSuite
}

var _ = gc.Suite(&regexpSuite{})

func (s *regexpSuite) TestTranslateBasic(c *gc.C) {
	for i, test := range []struct {
		basic    string
		expected string
	}{
		{`foo`, `foo`},
		{`fo*`, `fo*`},
		{`*foo`, `\*foo`},
		{`^*foo`, `^\*foo`},
		{`\(ab\)*`, `(ab)*`},
		{`\(*a\)`, `(\*a)`},
		{`a\{2,3\}`, `a{2,3}`},
		{`a+b?`, `a\+b\?`},
		{`a\+b\?`, `a+b?`},
		{`(x|y)`, `\(x\|y\)`},
		{`x\|y`, `x|y`},
		{`a^b`, `a\^b`},
		{`a$b$`, `a\$b$`},
		{`[[:alpha:]]*`, `[[:alpha:]]*`},
		{`[]a]`, `[]a]`},
		{`[\.]`, `[\\.]`},
		{`py3[0-9]-.*`, `py3[0-9]-.*`},
	} {
		c.Logf("test %d: %s", i, test.basic)
		c.Check(database.TranslateBasic(test.basic), gc.Equals, test.expected)
	}
}

func (s *regexpSuite) TestMatchBasic(c *gc.C) {
	cache, err := database.NewRegexpCache(4)
	c.Assert(err, jc.ErrorIsNil)

	for i, test := range []struct {
		pattern string
		s       string
		match   bool
	}{
		{`^foo`, "foobar", true},
		{`^foo$`, "foobar", false},
		{`\(ab\)\{2\}`, "xabab", true},
		{`a+`, "a+", true},
		{`a+`, "aa", false},
		{`^py3[0-9]-`, "py39-setuptools", true},
	} {
		c.Logf("test %d: %s ~ %s", i, test.s, test.pattern)
		match, err := cache.MatchBasic(test.pattern, test.s)
		c.Assert(err, jc.ErrorIsNil)
		c.Check(match, gc.Equals, test.match)
	}
}

func (s *regexpSuite) TestMatchExtended(c *gc.C) {
	cache, err := database.NewRegexpCache(4)
	c.Assert(err, jc.ErrorIsNil)

	match, err := cache.MatchExtended(`^(foo|bar)+$`, "foobar")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(match, jc.IsTrue)

	match, err = cache.MatchExtended(`a+`, "a+")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(match, jc.IsTrue)

	match, err = cache.MatchExtended(`^a+$`, "a+")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(match, jc.IsFalse)
}

func (s *regexpSuite) TestInvalidPattern(c *gc.C) {
	cache, err := database.NewRegexpCache(4)
	c.Assert(err, jc.ErrorIsNil)

	_, err = cache.MatchExtended(`(`, "x")
	c.Check(err, gc.ErrorMatches, `invalid regular expression "\(": .*`)
}

func (s *regexpSuite) TestCacheSurvivesPurge(c *gc.C) {
	cache, err := database.NewRegexpCache(1)
	c.Assert(err, jc.ErrorIsNil)

	for _, pattern := range []string{"a", "b", "a"} {
		match, err := cache.MatchBasic(pattern, "ab")
		c.Assert(err, jc.ErrorIsNil)
		c.Check(match, jc.IsTrue)
	}
	cache.Purge()

	match, err := cache.MatchBasic("c", "ab")
	c.Assert(err, jc.ErrorIsNil)
	c.Check(match, jc.IsFalse)
}
