// Package config provides the configuration loader for again.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"

	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/again/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file found by walking
// up from the working directory.
type Loader struct {
	fs     FileSystem
	logger ports.Logger
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a loader backed by the real filesystem.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{fs: NewOSFS(), logger: logger}
}

// NewLoaderWithFS creates a loader on an injected filesystem.
func NewLoaderWithFS(fsys FileSystem, logger ports.Logger) *Loader {
	return &Loader{fs: fsys, logger: logger}
}

// Load finds the nearest again.yaml at or above cwd and returns its settings
// merged over the defaults. When no config file exists the defaults apply
// unchanged; that is not an error.
//
// A relative store path in the file is resolved against the directory the
// file lives in, so every invocation below that directory shares one store.
func (l *Loader) Load(cwd string) (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	configPath, found := l.findConfiguration(cwd)
	if !found {
		return settings, nil
	}

	data, err := l.fs.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", configPath)
	}

	applyFile(settings, &file, filepath.Dir(configPath))
	return settings, nil
}

// findConfiguration walks from cwd toward the filesystem root looking for
// the config file. The nearest one wins.
func (l *Loader) findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		configPath := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := l.fs.Stat(configPath); err == nil && !info.IsDir() {
			return configPath, true
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) && l.logger != nil {
			l.logger.Debug("cannot stat " + configPath + ": " + err.Error())
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", false
		}
		currentDir = parentDir
	}
}

func applyFile(settings *domain.Settings, file *File, configDir string) {
	if file.Store != "" {
		if filepath.IsAbs(file.Store) {
			settings.StorePath = filepath.Clean(file.Store)
		} else {
			settings.StorePath = filepath.Clean(filepath.Join(configDir, file.Store))
		}
	}

	if file.Ignore != nil {
		if file.Ignore.Gitignore != nil {
			settings.UseGitignore = *file.Ignore.Gitignore
		}
		if file.Ignore.Hidden != nil {
			settings.IncludeHidden = *file.Ignore.Hidden
		}
	}
}
