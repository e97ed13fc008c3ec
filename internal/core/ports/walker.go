// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/again/internal/core/domain"
)

// Walker enumerates the tracked entries under an input root.
//
//go:generate mockgen -source=walker.go -destination=mocks/mock_walker.go -package=mocks
type Walker interface {
	// Walk produces the canonical manifest for the tree rooted at root.
	// The matcher decides which paths are excluded; an excluded directory
	// prunes its whole subtree. The result is sorted lexicographically by
	// relative path and is identical across repeated invocations for an
	// unchanged tree.
	Walk(ctx context.Context, root string, matcher Matcher) (domain.Manifest, error)
}

// Matcher is the ignore predicate consumed by the walker.
type Matcher interface {
	// Excluded reports whether the slash-normalized relative path should be
	// skipped. isDir distinguishes directory rules from file rules.
	Excluded(rel string, isDir bool) bool
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(rel string, isDir bool) bool

// Excluded implements Matcher.
func (f MatcherFunc) Excluded(rel string, isDir bool) bool {
	return f(rel, isDir)
}
