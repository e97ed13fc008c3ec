package ports

import (
	"context"

	"go.trai.ch/again/internal/core/domain"
)

// Store maps cache keys to published output trees.
//
// Entries are immutable once visible: Lookup either returns a complete,
// self-consistent entry or domain.ErrCacheMiss, never a partial publish.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type Store interface {
	// Lookup returns the entry for key, or domain.ErrCacheMiss if absent.
	// It never blocks on an in-progress publish of a different key.
	Lookup(key domain.Key) (*domain.Entry, error)

	// Publish atomically makes the tree at srcDir visible under key.
	// If another publisher won the race for the same key, the staged copy
	// is discarded and the existing entry returned: the first successful
	// publish for a key wins.
	Publish(ctx context.Context, key domain.Key, srcDir string, record domain.Record) (*domain.Entry, error)

	// Materialize reproduces the entry's tree at dst. Whatever previously
	// occupied dst is removed first, never merged.
	Materialize(entry *domain.Entry, dst string) error

	// Entries enumerates all published records. Reclamation hook; the
	// engine itself never prunes.
	Entries() ([]domain.Record, error)

	// Remove deletes the entry for key, if present. Reclamation hook.
	Remove(key domain.Key) error
}
