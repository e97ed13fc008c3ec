package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Record is the sidecar metadata stored next to a cached output tree.
// It is written once during publish and never mutated afterwards.
type Record struct {
	// Key is the cache key the entry is addressed by.
	Key string `json:"key"`
	// CreatedAt is the publish timestamp.
	CreatedAt time.Time `json:"createdAt"`
	// ExitCode is the exit code of the command that produced the tree.
	// Only successful runs are published, so this is zero today; kept
	// explicit for diagnosability.
	ExitCode int `json:"exitCode"`
	// ManifestDigest is the digest of the input manifest used for the key.
	ManifestDigest string `json:"manifestDigest"`
	// TreeBytes is the total size of regular files in the captured tree.
	TreeBytes int64 `json:"treeBytes"`
	// Checksum guards the record against torn or hand-edited sidecars.
	Checksum string `json:"checksum"`
}

// Seal fills in the integrity checksum. Must be called before the record
// is persisted.
func (r *Record) Seal() {
	r.Checksum = r.checksum()
}

// Verify reports whether the record's checksum matches its fields.
func (r *Record) Verify() bool {
	return r.Checksum != "" && r.Checksum == r.checksum()
}

func (r *Record) checksum() string {
	h := xxhash.New()
	_, _ = h.WriteString(r.Key)
	_, _ = h.WriteString(strconv.FormatInt(r.CreatedAt.UnixNano(), 10))
	_, _ = h.WriteString(strconv.Itoa(r.ExitCode))
	_, _ = h.WriteString(r.ManifestDigest)
	_, _ = h.WriteString(strconv.FormatInt(r.TreeBytes, 10))
	return fmt.Sprintf("%016x", h.Sum64())
}

// Entry is a published cache entry: a key-addressed directory containing
// the captured output tree and its sidecar record. Immutable once visible.
type Entry struct {
	// Key is the cache key.
	Key Key
	// Path is the absolute path of the entry directory.
	Path string
	// Record is the sidecar record loaded from disk.
	Record Record
}
