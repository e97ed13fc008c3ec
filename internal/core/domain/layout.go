package domain

import "path/filepath"

const (
	// AgainDirName is the name of the internal metadata directory.
	AgainDirName = ".again"

	// StoreDirName is the name of the cache store directory.
	StoreDirName = "store"

	// EntriesDirName is the directory holding published cache entries.
	EntriesDirName = "entries"

	// StagingDirName is the directory holding in-progress publishes.
	StagingDirName = "staging"

	// LocksDirName is the directory holding per-key lock files.
	LocksDirName = "locks"

	// TreeDirName is the directory inside an entry holding the captured output tree.
	TreeDirName = "tree"

	// RecordFileName is the sidecar record inside an entry.
	RecordFileName = "record.json"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "again.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the default root directory for the cache store.
func DefaultStorePath() string {
	return filepath.Join(AgainDirName, StoreDirName)
}
