// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package backup writes every installed package to a compressed bundle
// and restores a local catalog from one.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"path"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/pkgdb/core/packages"
	"github.com/juju/pkgdb/internal/manifest"
)

const (
	manifestEntry = "+MANIFEST"
	mtreeEntry    = "+MTREE_DIRS"
)

// Store is the package database a bundle is read from or written to.
type Store interface {
	// Installed returns every installed package with all of its
	// attributes loaded.
	Installed(ctx context.Context) ([]*packages.Package, error)

	// Restore registers the packages in a single transaction.
	Restore(ctx context.Context, pkgs []*packages.Package) error
}

// Codec converts packages to and from manifests.
type Codec interface {
	Emit(*packages.Package) ([]byte, error)
	Parse([]byte) (*packages.Package, error)
}

// ManifestCodec is the Codec writing YAML manifests.
type ManifestCodec struct{}

// Emit implements Codec.
func (ManifestCodec) Emit(pkg *packages.Package) ([]byte, error) {
	return manifest.Emit(pkg)
}

// Parse implements Codec.
func (ManifestCodec) Parse(data []byte) (*packages.Package, error) {
	return manifest.Parse(data)
}

// Config holds the dependencies of a Bundler.
type Config struct {
	Clock  clock.Clock
	Codec  Codec
	Logger loggo.Logger
}

// Validate returns an error if the config is incomplete.
func (c Config) Validate() error {
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Codec == nil {
		return errors.NotValidf("nil Codec")
	}
	return nil
}

// Bundler dumps and loads bundles.
type Bundler struct {
	clock  clock.Clock
	codec  Codec
	logger loggo.Logger
}

// NewBundler returns a Bundler for the given config.
func NewBundler(config Config) (*Bundler, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Bundler{
		clock:  config.Clock,
		codec:  config.Codec,
		logger: config.Logger,
	}, nil
}

// Dump writes every installed package of store to w and returns how many
// were written. Each package gets a directory holding its manifest and,
// when it has one, its content manifest.
func (b *Bundler) Dump(ctx context.Context, w io.Writer, store Store) (int, error) {
	pkgs, err := store.Installed(ctx)
	if err != nil {
		return 0, errors.Annotate(err, "listing installed packages")
	}

	zw := gzip.NewWriter(w)
	tw := tar.NewWriter(zw)
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return 0, errors.Trace(err)
		}

		stripped := *pkg
		stripped.ContentManifest = ""
		data, err := b.codec.Emit(&stripped)
		if err != nil {
			return 0, errors.Trace(err)
		}

		dir := pkg.String()
		if err := b.writeEntry(tw, path.Join(dir, manifestEntry), data); err != nil {
			return 0, errors.Trace(err)
		}
		if pkg.ContentManifest != "" {
			if err := b.writeEntry(tw, path.Join(dir, mtreeEntry), []byte(pkg.ContentManifest)); err != nil {
				return 0, errors.Trace(err)
			}
		}
		b.logger.Debugf("dumped %s", pkg)
	}
	if err := tw.Close(); err != nil {
		return 0, errors.Trace(err)
	}
	if err := zw.Close(); err != nil {
		return 0, errors.Trace(err)
	}
	return len(pkgs), nil
}

func (b *Bundler) writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  b.clock.Now(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Annotatef(err, "writing header of %s", name)
	}
	_, err := tw.Write(data)
	return errors.Annotatef(err, "writing %s", name)
}

type bundleEntry struct {
	manifest []byte
	mtree    string
}

// Load reads a bundle written by Dump and restores its packages into
// store, returning how many were restored. Unknown entries are skipped.
func (b *Bundler) Load(ctx context.Context, r io.Reader, store Store) (int, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return 0, errors.Annotate(err, "reading bundle")
	}
	defer zr.Close()

	var (
		order   []string
		entries = make(map[string]*bundleEntry)
	)
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return 0, errors.Annotate(err, "reading bundle")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		dir, base := path.Split(hdr.Name)
		if base != manifestEntry && base != mtreeEntry {
			b.logger.Warningf("skipping unknown bundle entry %q", hdr.Name)
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return 0, errors.Annotatef(err, "reading %s", hdr.Name)
		}

		entry, ok := entries[dir]
		if !ok {
			entry = &bundleEntry{}
			entries[dir] = entry
			order = append(order, dir)
		}
		if base == manifestEntry {
			entry.manifest = data
		} else {
			entry.mtree = string(data)
		}
	}

	pkgs := make([]*packages.Package, 0, len(order))
	for _, dir := range order {
		entry := entries[dir]
		if entry.manifest == nil {
			return 0, errors.NotValidf("bundle entry %q without manifest", dir)
		}
		pkg, err := b.codec.Parse(entry.manifest)
		if err != nil {
			return 0, errors.Annotatef(err, "bundle entry %q", dir)
		}
		pkg.ContentManifest = entry.mtree
		pkgs = append(pkgs, pkg)
	}
	if err := store.Restore(ctx, pkgs); err != nil {
		return 0, errors.Annotate(err, "restoring packages")
	}
	return len(pkgs), nil
}
