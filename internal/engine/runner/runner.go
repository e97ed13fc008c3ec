// Package runner orchestrates one cached command run: hash the input,
// arbitrate concurrent runs for the same key, then replay or execute.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/again/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Request describes one run.
type Request struct {
	// InputPath is the tree (or single file) to fingerprint.
	InputPath string
	// OutputPath is where the command writes and cached output is restored.
	OutputPath string
	// WorkingDir is the directory the command runs in. Empty inherits the
	// caller's working directory.
	WorkingDir string
	// Command and Args form the command line to run on a miss.
	Command string
	Args    []string
	// Matcher filters the input tree while hashing.
	Matcher ports.Matcher
	// Stdout and Stderr receive the command's output on a miss.
	Stdout io.Writer
	Stderr io.Writer
}

// Report summarizes a finished run.
type Report struct {
	// Key is the cache key derived from the input and the command line.
	Key domain.Key
	// CacheHit is true when the output came from the store rather than a
	// command execution by this invocation.
	CacheHit bool
	// Executed is true when this invocation ran the command itself.
	Executed bool
	// ExitCode is the command's exit code. Zero unless the command failed.
	ExitCode int
}

// Runner implements the run state machine on the walker, store and
// executor ports.
type Runner struct {
	walker   ports.Walker
	store    ports.Store
	executor ports.Executor
	logger   ports.Logger
	flight   singleflight.Group
}

// New creates a Runner.
func New(walker ports.Walker, store ports.Store, executor ports.Executor, logger ports.Logger) *Runner {
	return &Runner{
		walker:   walker,
		store:    store,
		executor: executor,
		logger:   logger,
	}
}

// leadResult is what the singleflight leader hands to its followers.
type leadResult struct {
	entry *domain.Entry
	// executed is true when the leader ran the command rather than
	// finding a published entry.
	executed bool
}

// Run executes the state machine. Concurrent calls that resolve to the same
// key share one execution: the first caller leads, the rest block on its
// result. A command's own failure is returned as domain.ErrCommandFailed to
// every waiter together with a Report carrying the original exit code.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	manifest, err := r.walker.Walk(ctx, req.InputPath, req.Matcher)
	if err != nil {
		return nil, err
	}

	key := domain.Fingerprint(manifest, req.Command, req.Args)
	r.debugf(fmt.Sprintf("fingerprinted %d entries key=%s", len(manifest), key))

	ledByMe := false
	v, err, _ := r.flight.Do(key.String(), func() (any, error) {
		ledByMe = true
		return r.lead(ctx, key, manifest, req)
	})

	// A follower whose leader failed for reasons other than the command
	// itself retries as leader exactly once. Command failures propagate to
	// all waiters verbatim.
	if err != nil && !ledByMe && !errors.Is(err, domain.ErrCommandFailed) {
		r.debugf("leader failed, retrying once: " + err.Error())
		v, err, _ = r.flight.Do(key.String(), func() (any, error) {
			ledByMe = true
			return r.lead(ctx, key, manifest, req)
		})
	}

	if err != nil {
		if errors.Is(err, domain.ErrCommandFailed) {
			return &Report{Key: key, Executed: ledByMe, ExitCode: exitCodeOf(err)}, err
		}
		return nil, err
	}

	res, ok := v.(leadResult)
	if !ok || res.entry == nil {
		return nil, zerr.Wrap(domain.ErrRunFailed, "arbitration produced no entry")
	}

	// Materializing is the only step with an externally visible effect on
	// the requested output path, for leaders and followers alike.
	if err := r.store.Materialize(res.entry, req.OutputPath); err != nil {
		return nil, err
	}

	if ledByMe && res.executed {
		return &Report{Key: key, Executed: true}, nil
	}
	return &Report{Key: key, CacheHit: true}, nil
}

// lead runs the leader's side: re-check the store, then execute and
// publish on a miss. Only a zero exit code publishes.
func (r *Runner) lead(ctx context.Context, key domain.Key, manifest domain.Manifest, req Request) (leadResult, error) {
	entry, err := r.store.Lookup(key)
	if err == nil {
		r.debugf("cache hit key=" + key.String())
		return leadResult{entry: entry}, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		return leadResult{}, err
	}

	r.debugf("cache miss key=" + key.String())

	// Clear the output path first. Leftover files from an earlier
	// materialization may be hard links into the store; a command that
	// truncates them in place would silently rewrite published entries.
	if err := os.RemoveAll(req.OutputPath); err != nil {
		return leadResult{}, zerr.With(zerr.Wrap(err, "cannot clear output path"), "output", req.OutputPath)
	}

	code, execErr := r.executor.Execute(ctx, ports.ExecSpec{
		Command:    req.Command,
		Args:       req.Args,
		WorkingDir: req.WorkingDir,
		Stdout:     req.Stdout,
		Stderr:     req.Stderr,
	})
	if execErr != nil {
		return leadResult{}, execErr
	}
	if code != 0 {
		failure := zerr.Wrap(domain.ErrCommandFailed, fmt.Sprintf("command exited with code %d", code))
		return leadResult{}, zerr.With(failure, "exit_code", code)
	}

	record := domain.Record{
		ExitCode:       0,
		ManifestDigest: domain.ManifestDigest(manifest),
	}
	entry, err = r.store.Publish(ctx, key, req.OutputPath, record)
	if err != nil {
		return leadResult{}, err
	}

	r.debugf(fmt.Sprintf("published key=%s bytes=%d", key, entry.Record.TreeBytes))
	return leadResult{entry: entry, executed: true}, nil
}

// exitCodeOf recovers the exit code attached to a command failure. Falls
// back to 1 when the chain carries none.
func exitCodeOf(err error) int {
	for current := err; current != nil; current = errors.Unwrap(current) {
		if zErr, ok := current.(*zerr.Error); ok { //nolint:errorlint // walking each link explicitly
			if code, ok := zErr.Metadata()["exit_code"].(int); ok {
				return code
			}
		}
	}
	return 1
}

func (r *Runner) debugf(msg string) {
	if r.logger != nil {
		r.logger.Debug(msg)
	}
}
