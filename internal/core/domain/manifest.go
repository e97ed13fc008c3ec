// Package domain contains the core types for fingerprinting and caching.
package domain

import "sort"

// EntryKind classifies a manifest entry.
type EntryKind uint8

const (
	// KindFile is a regular file.
	KindFile EntryKind = iota
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link. Links are recorded, never followed.
	KindSymlink
)

// tag returns a single-byte kind marker fed into the fingerprint.
func (k EntryKind) tag() byte {
	switch k {
	case KindDir:
		return 'd'
	case KindSymlink:
		return 'l'
	default:
		return 'f'
	}
}

// String returns a human-readable kind name.
func (k EntryKind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "file"
	}
}

// ManifestEntry describes one tracked filesystem entry relative to the walk root.
type ManifestEntry struct {
	// Path is the slash-normalized path relative to the walk root.
	Path string
	// Kind is the entry kind.
	Kind EntryKind
	// Size is the file size in bytes. Zero for directories and symlinks.
	Size int64
	// Executable is true when any execute bit is set on a regular file.
	Executable bool
	// Digest is the lowercase-hex sha256 of the file content. Files only.
	Digest string
	// Target is the verbatim link target. Symlinks only.
	Target string
}

// Manifest is a deterministically ordered list of tracked entries.
// Entries are sorted lexicographically by path, independent of the
// filesystem's native iteration order.
type Manifest []ManifestEntry

// Sort orders the manifest lexicographically by path.
func (m Manifest) Sort() {
	sort.Slice(m, func(i, j int) bool {
		return m[i].Path < m[j].Path
	})
}

// Sorted reports whether the manifest is in canonical order.
func (m Manifest) Sorted() bool {
	return sort.SliceIsSorted(m, func(i, j int) bool {
		return m[i].Path < m[j].Path
	})
}
