package cas

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/zerr"
)

// Materialize reproduces the entry's tree at dst. The destination is always
// stomped, never merged: the tree is cloned into a private sibling directory
// first and swapped over dst with a rename.
//
// Regular files are hard-linked into place where the filesystem allows it
// and byte-copied otherwise. Hard links make writing through an existing
// destination unsafe: its files may alias published store trees, so no file
// under dst is ever opened in place.
func (s *Store) Materialize(entry *domain.Entry, dst string) error {
	treeDir := filepath.Join(entry.Path, domain.TreeDirName)
	if _, err := os.Stat(treeDir); err != nil {
		// Entries may be reclaimed between lookup and use.
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(domain.ErrCacheMiss, "entry reclaimed before use"), "key", entry.Key.String())
		}
		return zerr.Wrap(err, domain.ErrMaterializeFailed.Error())
	}

	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "dst", dst)
	}

	// The staging directory is a sibling of dst so the final rename stays
	// on one filesystem.
	tmp, err := os.MkdirTemp(parent, ".again-out-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "dst", dst)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	staged := filepath.Join(tmp, domain.TreeDirName)
	if err := cloneTree(treeDir, staged); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "dst", dst)
	}

	// The swap is serialized per store: concurrent materializations to one
	// destination must not interleave between the removal and the rename.
	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	if err := os.RemoveAll(dst); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "dst", dst)
	}
	if err := os.Rename(staged, dst); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMaterializeFailed.Error()), "dst", dst)
	}
	return nil
}

// cloneTree recreates src at dst, linking files when possible.
func cloneTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(linkTarget, target)
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		case d.Type().IsRegular():
			return linkOrCopy(path, target)
		default:
			return nil
		}
	})
}

// linkOrCopy hard-links src to dst, falling back to a byte copy when the
// link fails (cross-device destinations, filesystems without link support).
// dst is always a fresh staging path; exclusive create keeps it that way.
func linkOrCopy(src, dst string) error {
	if err := os.Link(src, dst); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	in, err := os.Open(src) //nolint:gosec // store-internal path
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm()) //nolint:gosec // fresh staging path
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
