package domain

import "go.trai.ch/zerr"

var (
	// ErrCacheMiss is returned when no entry exists for a key.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrEntryCorrupt is returned when an entry's sidecar record fails its
	// integrity check.
	ErrEntryCorrupt = zerr.New("cache entry record is corrupt")

	// ErrWalkFailed is returned when the input tree cannot be read.
	ErrWalkFailed = zerr.New("failed to walk input tree")

	// ErrInputNotFound is returned when the input path does not exist.
	ErrInputNotFound = zerr.New("input path not found")

	// ErrIgnoreLoadFailed is returned when ignore rules cannot be collected.
	ErrIgnoreLoadFailed = zerr.New("failed to load ignore rules")

	// ErrStoreReadFailed is returned when a cache entry cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache entry")

	// ErrStoreWriteFailed is returned when staging a cache entry fails.
	ErrStoreWriteFailed = zerr.New("failed to write cache entry")

	// ErrStoreRenameFailed is returned when a staged entry cannot be moved
	// into its final location.
	ErrStoreRenameFailed = zerr.New("failed to move staged entry into place")

	// ErrMaterializeFailed is returned when a cached tree cannot be copied
	// to the requested output path.
	ErrMaterializeFailed = zerr.New("failed to materialize cached output")

	// ErrLockTimeout is returned when the per-key lock cannot be acquired
	// within the configured timeout.
	ErrLockTimeout = zerr.New("timed out acquiring cache key lock")

	// ErrCommandFailed is returned when the executed command exits non-zero.
	// The original exit code is attached as the "exit_code" attribute.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCommandStartFailed is returned when the command cannot be started.
	ErrCommandStartFailed = zerr.New("failed to start command")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrRunFailed is returned by the application layer when a run fails for
	// engine-level reasons, as opposed to the command's own failure.
	ErrRunFailed = zerr.New("run failed")
)
