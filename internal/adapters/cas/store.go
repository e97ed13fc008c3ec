// Package cas implements the content-addressed cache store.
//
// Entries live under <root>/entries/<prefix>/<key> and become visible through
// a single directory rename out of <root>/staging, so a reader either sees a
// complete entry or none at all. Lookups never take a lock: published entries
// are immutable, which makes unlocked reads safe.
package cas

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	cp "github.com/otiai10/copy"
	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/again/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.Store on a local directory.
type Store struct {
	root   string
	logger ports.Logger

	// swapMu serializes the remove-and-rename step of Materialize so
	// concurrent calls sharing a destination cannot observe each other's
	// half-finished swap.
	swapMu sync.Mutex
}

// NewStore creates a store rooted at root. The directory tree is created
// lazily on first publish.
func NewStore(root string, logger ports.Logger) *Store {
	return &Store{root: root, logger: logger}
}

// Root returns the store root path.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) entriesDir() string { return filepath.Join(s.root, domain.EntriesDirName) }
func (s *Store) stagingDir() string { return filepath.Join(s.root, domain.StagingDirName) }
func (s *Store) locksDir() string   { return filepath.Join(s.root, domain.LocksDirName) }

func (s *Store) entryPath(key domain.Key) string {
	return filepath.Join(s.entriesDir(), key.Prefix(), key.String())
}

// Lookup returns the entry for key, or domain.ErrCacheMiss if absent.
func (s *Store) Lookup(key domain.Key) (*domain.Entry, error) {
	entryDir := s.entryPath(key)
	data, err := os.ReadFile(filepath.Join(entryDir, domain.RecordFileName)) //nolint:gosec // store-internal path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrCacheMiss, "no entry published"), "key", key.String())
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStoreReadFailed.Error()), "key", key.String())
	}

	var record domain.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrEntryCorrupt.Error()), "key", key.String())
	}
	if !record.Verify() {
		return nil, zerr.With(domain.ErrEntryCorrupt, "key", key.String())
	}

	return &domain.Entry{Key: key, Path: entryDir, Record: record}, nil
}

// Publish atomically makes the tree at srcDir visible under key.
//
// The tree is first copied into a private staging directory together with its
// sealed sidecar record, then moved into place with one rename while holding
// the per-key lock. If another publisher won the race, the staged copy is
// discarded and the winner's entry returned: by content addressing, the same
// key implies the same observable output.
func (s *Store) Publish(ctx context.Context, key domain.Key, srcDir string, record domain.Record) (*domain.Entry, error) {
	for _, dir := range []string{s.entriesDir(), s.stagingDir(), s.locksDir()} {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
		}
	}

	stage, err := os.MkdirTemp(s.stagingDir(), key.Prefix()+"-*")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	// Staged output is discarded on every exit path; after a successful
	// rename the directory no longer exists and this is a no-op.
	defer func() { _ = os.RemoveAll(stage) }()

	if err := s.stage(ctx, key, srcDir, stage, &record); err != nil {
		return nil, err
	}

	lock := s.lockFor(key)
	if err := lock.acquire(ctx); err != nil {
		return nil, err
	}
	defer lock.release()

	// Another process may have published while we staged.
	if entry, err := s.Lookup(key); err == nil {
		s.debugf("discarding staged copy, entry already published key=" + key.String())
		return entry, nil
	}

	if err := s.intoPlace(stage, s.entryPath(key)); err != nil {
		// A concurrent publish outside our lock discipline is benign as
		// long as a valid entry is now in place.
		if entry, lerr := s.Lookup(key); lerr == nil {
			return entry, nil
		}
		return nil, err
	}

	return s.Lookup(key)
}

// stage copies the output tree and writes the sealed record into the staging
// directory.
func (s *Store) stage(ctx context.Context, key domain.Key, srcDir, stage string, record *domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	treeDir := filepath.Join(stage, domain.TreeDirName)
	if err := cp.Copy(srcDir, treeDir, cp.Options{
		OnSymlink: func(string) cp.SymlinkAction { return cp.Shallow },
	}); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrStoreWriteFailed.Error()), "src", srcDir)
	}

	size, err := treeBytes(treeDir)
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	record.Key = key.String()
	record.TreeBytes = size
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.Seal()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.WriteFile(filepath.Join(stage, domain.RecordFileName), data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// intoPlace moves the staged entry to its final location. Falls back to a
// same-device staging copy when the rename crosses filesystems.
func (s *Store) intoPlace(stage, entryDir string) error {
	if err := os.MkdirAll(filepath.Dir(entryDir), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	err := os.Rename(stage, entryDir)
	if err == nil {
		return nil
	}

	if errors.Is(err, syscall.EXDEV) {
		return s.crossDeviceMove(stage, entryDir)
	}
	return zerr.Wrap(err, domain.ErrStoreRenameFailed.Error())
}

// crossDeviceMove copies the staged entry to a temp directory next to the
// destination, then renames within the destination's filesystem.
func (s *Store) crossDeviceMove(stage, entryDir string) error {
	tmp, err := os.MkdirTemp(filepath.Dir(entryDir), ".move-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreRenameFailed.Error())
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	local := filepath.Join(tmp, "entry")
	if err := cp.Copy(stage, local, cp.Options{
		OnSymlink: func(string) cp.SymlinkAction { return cp.Shallow },
	}); err != nil {
		return zerr.Wrap(err, domain.ErrStoreRenameFailed.Error())
	}
	if err := os.Rename(local, entryDir); err != nil {
		return zerr.Wrap(err, domain.ErrStoreRenameFailed.Error())
	}
	return nil
}

// Entries enumerates all valid published records. Corrupt sidecars are
// skipped with a warning rather than failing the listing.
func (s *Store) Entries() ([]domain.Record, error) {
	prefixes, err := os.ReadDir(s.entriesDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var records []domain.Record
	for _, prefix := range prefixes {
		if !prefix.IsDir() {
			continue
		}
		keys, err := os.ReadDir(filepath.Join(s.entriesDir(), prefix.Name()))
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
		}
		for _, keyDir := range keys {
			entry, err := s.Lookup(domain.Key(keyDir.Name()))
			if err != nil {
				s.debugf("skipping unreadable entry key=" + keyDir.Name())
				continue
			}
			records = append(records, entry.Record)
		}
	}
	return records, nil
}

// Remove deletes the entry for key, if present. The entry is renamed into
// staging first so readers never observe a partially deleted entry.
func (s *Store) Remove(key domain.Key) error {
	entryDir := s.entryPath(key)
	if _, err := os.Lstat(entryDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err := os.MkdirAll(s.stagingDir(), domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	doomed, err := os.MkdirTemp(s.stagingDir(), "rm-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	defer func() { _ = os.RemoveAll(doomed) }()

	if err := os.Rename(entryDir, filepath.Join(doomed, "entry")); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	return nil
}

// treeBytes sums the size of regular files under dir.
func treeBytes(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

func (s *Store) debugf(msg string) {
	if s.logger != nil {
		s.logger.Debug(msg)
	}
}
