// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config reads the package database configuration file.
package config

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/naturalsort"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultDBDir is the directory holding the catalogs when none is
	// configured.
	DefaultDBDir = "/var/db/pkg"

	// DefaultRegexpCacheSize is the number of compiled patterns kept per
	// session.
	DefaultRegexpCacheSize = 128

	// EnvDBDir overrides the configured database directory.
	EnvDBDir = "PKG_DBDIR"
)

const (
	dbDirKey           = "dbdir"
	multiReposKey      = "multirepos"
	reposKey           = "repos"
	regexpCacheSizeKey = "regexp_cache_size"
)

var configFields = schema.Fields{
	dbDirKey:           schema.String(),
	multiReposKey:      schema.Bool(),
	reposKey:           schema.StringMap(schema.String()),
	regexpCacheSizeKey: schema.Int(),
}

var configDefaults = schema.Defaults{
	dbDirKey:           DefaultDBDir,
	multiReposKey:      false,
	reposKey:           schema.Omit,
	regexpCacheSizeKey: int64(DefaultRegexpCacheSize),
}

// Config holds the settings of the package database.
type Config struct {
	// DBDir is the directory holding the local catalog and the
	// repository catalogs.
	DBDir string

	// MultiRepos enables one catalog file per configured repository.
	MultiRepos bool

	// Repositories maps repository names onto their URLs.
	Repositories map[string]string

	RegexpCacheSize int
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DBDir:           DefaultDBDir,
		RegexpCacheSize: DefaultRegexpCacheSize,
	}
}

// Parse reads a YAML configuration document. Missing keys take their
// defaults and unknown keys are ignored.
func Parse(data []byte) (Config, error) {
	source := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &source); err != nil {
		return Config{}, errors.Annotate(err, "parsing config")
	}

	coerced, err := schema.FieldMap(configFields, configDefaults).Coerce(source, nil)
	if err != nil {
		return Config{}, errors.Annotate(err, "config schema check failed")
	}
	valid := coerced.(map[string]interface{})

	cfg := Config{
		DBDir:           valid[dbDirKey].(string),
		MultiRepos:      valid[multiReposKey].(bool),
		RegexpCacheSize: int(valid[regexpCacheSizeKey].(int64)),
	}
	if cfg.RegexpCacheSize <= 0 {
		return Config{}, errors.NotValidf("%s %d", regexpCacheSizeKey, cfg.RegexpCacheSize)
	}
	if repos, ok := valid[reposKey].(map[string]interface{}); ok {
		cfg.Repositories = make(map[string]string, len(repos))
		for name, url := range repos {
			cfg.Repositories[name] = url.(string)
		}
	}
	return cfg, nil
}

// Load reads the configuration file at path. A missing file yields the
// defaults. The database directory can be overridden from the
// environment.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err == nil {
		if cfg, err = Parse(data); err != nil {
			return Config{}, errors.Annotatef(err, "reading %s", path)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, errors.Trace(err)
	}

	if dir := os.Getenv(EnvDBDir); dir != "" {
		cfg.DBDir = dir
	}
	return cfg, nil
}

// RepositoryNames returns the configured repository names in natural
// order.
func (c Config) RepositoryNames() []string {
	names := make([]string, 0, len(c.Repositories))
	for name := range c.Repositories {
		names = append(names, name)
	}
	naturalsort.Sort(names)
	return names
}
