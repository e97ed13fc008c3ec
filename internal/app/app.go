// Package app implements the application layer for again.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.trai.ch/again/internal/adapters/ignore"
	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/again/internal/core/ports"
	"go.trai.ch/again/internal/engine/runner"
	"go.trai.ch/zerr"
)

// StoreFactory builds a store rooted at the given path. Injected so tests
// can substitute the store without touching the wiring.
type StoreFactory func(root string) ports.Store

// App carries the long-lived collaborators and resolves per-run settings.
type App struct {
	configLoader ports.ConfigLoader
	walker       ports.Walker
	executor     ports.Executor
	logger       ports.Logger
	newStore     StoreFactory

	// runners are shared per store root so concurrent runs against the
	// same store arbitrate through one singleflight group.
	mu      sync.Mutex
	runners map[string]*runner.Runner
}

// New creates an App.
func New(
	loader ports.ConfigLoader,
	walker ports.Walker,
	executor ports.Executor,
	log ports.Logger,
	newStore StoreFactory,
) *App {
	return &App{
		configLoader: loader,
		walker:       walker,
		executor:     executor,
		logger:       log,
		newStore:     newStore,
		runners:      make(map[string]*runner.Runner),
	}
}

// RunOptions configures the Run method. Flag values override the config
// file, which overrides the defaults.
type RunOptions struct {
	InputPath  string
	OutputPath string
	Command    string
	Args       []string

	// NoIgnore disables .gitignore handling while hashing.
	NoIgnore bool
	// IncludeHidden hashes dot-prefixed entries too.
	IncludeHidden bool
	// CachePath overrides the store root from config/defaults.
	CachePath string

	// Stdout and Stderr receive the command's output on a miss. Nil
	// defaults to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run resolves the effective settings, fingerprints the input and either
// replays the cached output or executes the command and captures it.
func (a *App) Run(ctx context.Context, opts RunOptions) (*runner.Report, error) {
	settings, err := a.resolveSettings(opts.CachePath)
	if err != nil {
		return nil, err
	}
	if opts.NoIgnore {
		settings.UseGitignore = false
	}
	if opts.IncludeHidden {
		settings.IncludeHidden = true
	}

	matcher, err := a.buildMatcher(opts.InputPath, settings)
	if err != nil {
		return nil, err
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	report, err := a.runnerFor(settings.StorePath).Run(ctx, runner.Request{
		InputPath:  opts.InputPath,
		OutputPath: opts.OutputPath,
		Command:    opts.Command,
		Args:       opts.Args,
		Matcher:    matcher,
		Stdout:     stdout,
		Stderr:     stderr,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCommandFailed) {
			return report, err
		}
		return nil, zerr.Wrap(err, domain.ErrRunFailed.Error())
	}

	switch {
	case report.CacheHit:
		a.logger.Info(fmt.Sprintf("cache hit, restored output to %s", opts.OutputPath))
	default:
		a.logger.Info("cache miss, captured command output")
	}
	return report, nil
}

// CleanOptions configures the Clean method.
type CleanOptions struct {
	// All additionally removes the metadata directory, not just the store.
	All bool
	// CachePath overrides the store root from config/defaults.
	CachePath string
}

// Clean removes the cache store, and with All the whole metadata directory.
func (a *App) Clean(_ context.Context, opts CleanOptions) error {
	settings, err := a.resolveSettings(opts.CachePath)
	if err != nil {
		return err
	}

	var errs error
	remove := func(path, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, "failed to remove "+name))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(settings.StorePath, "cache store")
	if opts.All {
		remove(domain.AgainDirName, "metadata directory")
	}

	return errs
}

func (a *App) resolveSettings(cachePathFlag string) (*domain.Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, zerr.Wrap(err, "cannot determine working directory")
	}

	settings, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, err
	}
	if cachePathFlag != "" {
		settings.StorePath = cachePathFlag
	}
	return settings, nil
}

// buildMatcher assembles the ignore predicate for the input tree.
// Gitignore evaluation only applies to directory inputs; a single-file
// input has no tree to filter.
func (a *App) buildMatcher(inputPath string, settings *domain.Settings) (ports.Matcher, error) {
	useGitignore := settings.UseGitignore
	if info, err := os.Stat(inputPath); err == nil && !info.IsDir() {
		useGitignore = false
	}

	matcher, err := ignore.NewMatcher(inputPath, ignore.Options{
		UseGitignore:  useGitignore,
		IncludeHidden: settings.IncludeHidden,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrIgnoreLoadFailed.Error()), "input", inputPath)
	}
	return matcher, nil
}

func (a *App) runnerFor(storePath string) *runner.Runner {
	a.mu.Lock()
	defer a.mu.Unlock()

	if r, ok := a.runners[storePath]; ok {
		return r
	}
	r := runner.New(a.walker, a.newStore(storePath), a.executor, a.logger)
	a.runners[storePath] = r
	return r
}
