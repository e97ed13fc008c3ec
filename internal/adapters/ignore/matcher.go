// Package ignore builds the exclusion predicate applied while hashing input
// trees. It layers cascading .gitignore rules over a hidden-file rule and a
// small always-excluded set.
package ignore

import (
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/zerr"
)

// alwaysExcluded are directory names skipped at any depth regardless of
// options: version control metadata and our own store must never feed the
// fingerprint.
var alwaysExcluded = map[string]struct{}{
	".git":              {},
	".jj":               {},
	domain.AgainDirName: {},
}

// Options configure a Matcher.
type Options struct {
	// UseGitignore enables cascading .gitignore evaluation. Rules in a
	// subdirectory refine rules in ancestors; a negated pattern re-includes
	// a previously excluded path.
	UseGitignore bool
	// IncludeHidden keeps dot-prefixed entries in the manifest.
	IncludeHidden bool
}

// Matcher implements ports.Matcher for an input root.
type Matcher struct {
	gitignore     gitignore.Matcher
	includeHidden bool
}

// NewMatcher collects the ignore rules under root and returns the combined
// predicate. Collection happens once up front; matching is pure afterwards.
func NewMatcher(root string, opts Options) (*Matcher, error) {
	m := &Matcher{includeHidden: opts.IncludeHidden}

	if opts.UseGitignore {
		patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrIgnoreLoadFailed.Error()), "root", root)
		}
		if len(patterns) > 0 {
			m.gitignore = gitignore.NewMatcher(patterns)
		}
	}

	return m, nil
}

// Excluded reports whether the slash-normalized relative path is skipped.
func (m *Matcher) Excluded(rel string, isDir bool) bool {
	segments := strings.Split(rel, "/")
	base := segments[len(segments)-1]

	if _, ok := alwaysExcluded[base]; ok && isDir {
		return true
	}
	if !m.includeHidden && strings.HasPrefix(base, ".") {
		return true
	}
	if m.gitignore != nil && m.gitignore.Match(segments, isDir) {
		return true
	}
	return false
}
