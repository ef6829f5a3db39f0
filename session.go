// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package pkgdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/naturalsort"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	coredatabase "github.com/juju/pkgdb/core/database"
	"github.com/juju/pkgdb/core/database/schema"
	"github.com/juju/pkgdb/core/version"
	pkgerrors "github.com/juju/pkgdb/domain/packages/errors"
	"github.com/juju/pkgdb/domain/packages/state"
	domainschema "github.com/juju/pkgdb/domain/schema"
	"github.com/juju/pkgdb/internal/database"
	"github.com/juju/pkgdb/internal/database/txn"
	"github.com/juju/pkgdb/internal/identity"
)

// Mode selects the catalogs a session attaches.
type Mode int

const (
	// Local sessions only open the local catalog.
	Local Mode = iota
	// Remote sessions also attach the repository catalogs.
	Remote
)

// String returns the name of the mode.
func (m Mode) String() string {
	if m == Remote {
		return "remote"
	}
	return "local"
}

// Config holds the settings of a session.
type Config struct {
	// DBDir is the directory holding the local catalog and the
	// repository catalogs.
	DBDir string

	// ReadOnly opens the local catalog read-only even when it could be
	// written.
	ReadOnly bool

	// MultiRepos attaches one catalog per name in Repositories instead
	// of the single repository catalog.
	MultiRepos bool

	// Repositories names the repository catalogs attached in multi
	// repository mode. One of them must be "default".
	Repositories []string

	// Comparator orders version strings. It defaults to version.Compare.
	Comparator version.Comparator

	// Identity resolves users and groups of installed packages. It
	// defaults to the host user database.
	Identity identity.Lookup

	// Clock defaults to the wall clock.
	Clock clock.Clock

	// Registerer receives the session metrics when set.
	Registerer prometheus.Registerer

	// RegexpCacheSize bounds the compiled patterns kept by the session.
	RegexpCacheSize int
}

// Validate returns an error if the config cannot be used to open a
// session.
func (c Config) Validate() error {
	if c.DBDir == "" {
		return errors.NotValidf("empty DBDir")
	}
	if c.RegexpCacheSize < 0 {
		return errors.NotValidf("negative RegexpCacheSize")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Comparator == nil {
		c.Comparator = version.Compare
	}
	if c.Identity == nil {
		c.Identity = identity.NewOSLookup()
	}
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
	if c.RegexpCacheSize == 0 {
		c.RegexpCacheSize = database.DefaultRegexpCacheSize
	}
	return c
}

// Session is an open package database.
type Session struct {
	mode     Mode
	dbDir    string
	readOnly bool

	db     *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	runner *txn.RetryingTxnRunner
	cache  *database.RegexpCache

	state   *state.State
	repos   []string
	metrics *Collector

	registerer prometheus.Registerer
	registered bool
	clock      clock.Clock
}

var logger = loggo.GetLogger("pkgdb")

// Open opens the package database in dbDir, creating the local catalog
// when it does not exist and the directory is writable. The local schema
// is brought up to date when the session can write. Remote sessions also
// attach the repository catalogs.
func Open(ctx context.Context, cfg Config, mode Mode) (_ *Session, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	cfg = cfg.withDefaults()

	path := filepath.Join(cfg.DBDir, coredatabase.LocalFile)
	writable := !cfg.ReadOnly && unix.Access(cfg.DBDir, unix.W_OK) == nil
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !writable {
			return nil, errors.NotFoundf("local catalog %s", path)
		}
		logger.Infof("creating local catalog %s", path)
	} else if err != nil {
		return nil, errors.Trace(err)
	} else if writable && unix.Access(path, unix.W_OK) != nil {
		writable = false
	}

	cache, err := database.NewRegexpCache(cfg.RegexpCacheSize)
	if err != nil {
		return nil, errors.Trace(err)
	}
	db, err := database.Open(database.Config{
		Path:      path,
		ReadOnly:  !writable,
		Functions: database.Functions(cache, cfg.Comparator),
	})
	if err != nil {
		return nil, errors.Trace(err)
	}

	s := &Session{
		mode:     mode,
		dbDir:    cfg.DBDir,
		readOnly: !writable,
		db:       db,
		cache:    cache,
		runner: txn.NewRetryingTxnRunner(
			txn.WithRetryStrategy(txn.DefaultRetryStrategy(cfg.Clock, loggo.GetLogger("pkgdb.txn"))),
		),
		state:      state.NewState(cfg.Identity, loggo.GetLogger("pkgdb.state")),
		metrics:    NewMetricsCollector(),
		registerer: cfg.Registerer,
		clock:      cfg.Clock,
	}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if s.conn, err = db.Conn(ctx); err != nil {
		return nil, errors.Annotatef(err, "opening %s", path)
	}
	change, err := domainschema.LocalDDL().Ensure(ctx, txn.NewStdRunner(s.runner, s.conn), writable)
	if err != nil {
		return nil, errors.Annotatef(err, "local catalog %s", path)
	}
	if change.Previous != change.Current {
		logger.Infof("local catalog schema at version %d (was %d)", change.Current, change.Previous)
	}

	if mode == Remote {
		if err := s.attachRepositories(ctx, cfg); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if s.registerer != nil {
		if err := s.registerer.Register(s.metrics); err != nil {
			return nil, errors.Annotate(err, "registering metrics")
		}
		s.registered = true
	}
	return s, nil
}

func (s *Session) attachRepositories(ctx context.Context, cfg Config) error {
	if !cfg.MultiRepos {
		path := filepath.Join(cfg.DBDir, coredatabase.SingleRepositoryFile)
		return errors.Trace(s.attach(ctx, coredatabase.SingleRepository, path))
	}

	seen := set.NewStrings()
	for _, name := range cfg.Repositories {
		switch {
		case coredatabase.IsReservedCatalog(name):
			logger.Warningf("repository name %q is reserved, skipping", name)
			continue
		case seen.Contains(name):
			logger.Warningf("repository %q listed more than once, skipping", name)
			continue
		}
		seen.Add(name)

		path := filepath.Join(cfg.DBDir, name+coredatabase.CatalogFileSuffix)
		if err := s.attach(ctx, name, path); errors.Is(err, pkgerrors.RepositoryNotFound) {
			logger.Warningf("repository %q has no catalog, skipping: %v", name, err)
		} else if err != nil {
			return errors.Trace(err)
		}
	}
	if !s.attached(coredatabase.DefaultRepository) {
		return errors.Trace(pkgerrors.NoDefaultRepository)
	}
	return nil
}

// Attach attaches the repository catalog file under name. Attaching a
// name twice is a no-op.
func (s *Session) Attach(ctx context.Context, name, path string) error {
	if err := s.usable(); err != nil {
		return errors.Trace(err)
	}
	if s.tx != nil {
		return errors.Trace(pkgerrors.TxnInProgress)
	}
	if coredatabase.IsReservedCatalog(name) {
		return errors.Annotatef(pkgerrors.ReservedCatalogName, "%q", name)
	}
	return errors.Trace(s.attach(ctx, name, path))
}

// attach attaches a catalog without checking the name, so the single
// repository can be attached under its reserved alias.
func (s *Session) attach(ctx context.Context, name, path string) error {
	if s.attached(name) {
		logger.Warningf("repository %q already attached", name)
		return nil
	}
	if unix.Access(path, unix.R_OK) != nil {
		return errors.Annotatef(pkgerrors.RepositoryNotFound, "catalog %q at %s", name, path)
	}

	if _, err := s.conn.ExecContext(ctx, "ATTACH DATABASE ? AS "+database.QuoteIdentifier(name), path); err != nil {
		return errors.Annotatef(err, "attaching %s as %q", path, name)
	}
	if err := s.checkRepositoryVersion(ctx, name); err != nil {
		if _, dErr := s.conn.ExecContext(ctx, "DETACH DATABASE "+database.QuoteIdentifier(name)); dErr != nil {
			logger.Warningf("detaching %q: %v", name, dErr)
		}
		return errors.Trace(err)
	}
	s.repos = append(s.repos, name)
	logger.Debugf("attached repository %q from %s", name, path)
	return nil
}

func (s *Session) checkRepositoryVersion(ctx context.Context, name string) error {
	var v int
	err := s.conn.QueryRowContext(ctx, "PRAGMA "+database.QuoteIdentifier(name)+".user_version").Scan(&v)
	if err != nil {
		return errors.Annotatef(err, "reading version of repository %q", name)
	}
	switch {
	case v > domainschema.RepositoryVersion:
		return errors.Annotatef(schema.ErrSchemaTooNew, "repository %q version %d, supported %d",
			name, v, domainschema.RepositoryVersion)
	case v < domainschema.RepositoryVersion:
		return errors.NotSupportedf("repository %q catalog version %d", name, v)
	}
	return nil
}

func (s *Session) attached(name string) bool {
	for _, repo := range s.repos {
		if repo == name {
			return true
		}
	}
	return false
}

// Catalogs returns the names of the attached repository catalogs in
// natural order.
func (s *Session) Catalogs() []string {
	names := append([]string(nil), s.repos...)
	naturalsort.Sort(names)
	return names
}

// ReadOnly reports whether the local catalog was opened read-only.
func (s *Session) ReadOnly() bool {
	return s.readOnly
}

// Close detaches every catalog and releases the connection. Any open
// transaction is rolled back. Closing a nil or closed session is a no-op.
func (s *Session) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if s.tx != nil {
		keep(errors.Annotate(s.tx.Rollback(), "rolling back open transaction"))
		s.tx = nil
	}
	if s.conn != nil {
		ctx := context.Background()
		for _, name := range s.repos {
			if _, err := s.conn.ExecContext(ctx, "DETACH DATABASE "+database.QuoteIdentifier(name)); err != nil {
				logger.Warningf("detaching %q: %v", name, err)
			}
		}
		keep(errors.Trace(s.conn.Close()))
		s.conn = nil
	}
	keep(errors.Trace(s.db.Close()))
	s.db = nil
	s.repos = nil
	s.cache.Purge()

	if s.registered {
		s.registerer.Unregister(s.metrics)
		s.registered = false
	}
	return firstErr
}

func (s *Session) usable() error {
	if s == nil || s.conn == nil {
		return errors.Trace(pkgerrors.SessionClosed)
	}
	return nil
}

func (s *Session) writable() error {
	if err := s.usable(); err != nil {
		return errors.Trace(err)
	}
	if s.readOnly {
		return errors.Trace(pkgerrors.ReadOnly)
	}
	return nil
}

// resolveRepository returns the catalog a repository operation runs
// against.
func (s *Session) resolveRepository(repo string) (string, error) {
	if s.mode != Remote || len(s.repos) == 0 {
		return "", errors.Trace(pkgerrors.RemoteNotAttached)
	}
	if repo == "" {
		if s.attached(coredatabase.SingleRepository) {
			return coredatabase.SingleRepository, nil
		}
		repo = coredatabase.DefaultRepository
	}
	if !s.attached(repo) {
		return "", errors.Annotatef(pkgerrors.RepositoryNotFound, "%q", repo)
	}
	return repo, nil
}
