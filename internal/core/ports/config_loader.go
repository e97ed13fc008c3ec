package ports

import "go.trai.ch/again/internal/core/domain"

// ConfigLoader resolves the effective settings for a working directory.
type ConfigLoader interface {
	// Load finds the nearest config file above cwd and returns its settings
	// merged over the defaults. A missing config file is not an error.
	Load(cwd string) (*domain.Settings, error)
}
