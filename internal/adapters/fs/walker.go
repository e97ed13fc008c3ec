// Package fs implements filesystem walking and content hashing.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/again/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Walker implements ports.Walker on the OS filesystem.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// pendingFile is a regular file awaiting its content digest.
type pendingFile struct {
	idx int    // index into the manifest
	abs string // absolute path on disk
}

// Walk enumerates the tree rooted at root and returns its canonical manifest.
//
// The walk is read-only and restartable: for an unchanged tree it returns an
// identical manifest on every invocation, regardless of the filesystem's
// directory iteration order. Symlinks are recorded with their verbatim target
// and never followed, so link cycles cannot produce an infinite walk.
func (w *Walker) Walk(ctx context.Context, root string, matcher ports.Matcher) (domain.Manifest, error) {
	info, err := os.Lstat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInputNotFound, "cannot hash input"), "path", root)
		}
		return nil, walkErr(err, root)
	}

	// A single-file input gets a one-entry manifest keyed by its base name.
	if info.Mode().IsRegular() {
		manifest := domain.Manifest{{Path: filepath.Base(root), Kind: domain.KindFile}}
		if err := hashInto(manifest, 0, root); err != nil {
			return nil, err
		}
		return manifest, nil
	}

	manifest, pending, err := collect(ctx, root, matcher)
	if err != nil {
		return nil, err
	}

	// Content digests are independent per file; compute them concurrently
	// and let the final sort restore the one canonical order.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return hashInto(manifest, p.idx, p.abs)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	manifest.Sort()
	return manifest, nil
}

// collect gathers entries in a single sequential pass, deferring file
// content digests.
func collect(ctx context.Context, root string, matcher ports.Matcher) (domain.Manifest, []pendingFile, error) {
	var manifest domain.Manifest
	var pending []pendingFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return walkErr(err, path)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return walkErr(err, path)
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if matcher != nil && matcher.Excluded(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return walkErr(err, path)
			}
			manifest = append(manifest, domain.ManifestEntry{
				Path:   rel,
				Kind:   domain.KindSymlink,
				Target: target,
			})
		case d.IsDir():
			manifest = append(manifest, domain.ManifestEntry{
				Path: rel,
				Kind: domain.KindDir,
			})
		case d.Type().IsRegular():
			manifest = append(manifest, domain.ManifestEntry{
				Path: rel,
				Kind: domain.KindFile,
			})
			pending = append(pending, pendingFile{idx: len(manifest) - 1, abs: path})
		default:
			// Sockets, devices and other irregular files carry no cacheable
			// content and are skipped.
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return manifest, pending, nil
}

// hashInto fills in the content digest, size and executable bit for the
// manifest entry at idx from the file at abs.
func hashInto(manifest domain.Manifest, idx int, abs string) error {
	digest, size, mode, err := hashFile(abs)
	if err != nil {
		return walkErr(err, abs)
	}
	manifest[idx].Digest = digest
	manifest[idx].Size = size
	manifest[idx].Executable = mode&0o111 != 0
	return nil
}

func walkErr(err error, path string) error {
	return zerr.With(zerr.Wrap(err, domain.ErrWalkFailed.Error()), "path", path)
}
