package domain

// Settings are the effective run settings after merging defaults, the
// config file and command-line flags.
type Settings struct {
	// StorePath is the cache store root.
	StorePath string
	// UseGitignore controls whether .gitignore rules apply while hashing.
	UseGitignore bool
	// IncludeHidden controls whether dot-prefixed entries are hashed.
	IncludeHidden bool
}

// DefaultSettings returns the settings used when no config file is present.
func DefaultSettings() *Settings {
	return &Settings{
		StorePath:     DefaultStorePath(),
		UseGitignore:  true,
		IncludeHidden: false,
	}
}
