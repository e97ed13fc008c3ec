// Package shell runs build commands through os/exec.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/again/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor on the local system.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates an executor. The logger may be nil.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs the command and waits for it. The command's exit code comes
// back in the first return value; err is reserved for commands that never
// ran (missing binary, bad working directory, cancelled context).
//
// The command inherits the parent environment and streams directly to the
// spec's writers. Output is never captured or reinterpreted, so whatever the
// command prints reaches the user byte for byte.
func (e *Executor) Execute(ctx context.Context, spec ports.ExecSpec) (int, error) {
	if spec.Command == "" {
		return 0, zerr.With(domain.ErrCommandStartFailed, "reason", "empty command")
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...) //nolint:gosec // user provided command
	cmd.Dir = spec.WorkingDir
	cmd.Env = os.Environ()
	cmd.Stdout = writerOrDiscard(spec.Stdout)
	cmd.Stderr = writerOrDiscard(spec.Stderr)
	cmd.Stdin = os.Stdin

	if e.logger != nil {
		e.logger.Debug("executing " + renderCommand(spec))
	}

	if err := cmd.Start(); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrCommandStartFailed.Error()), "command", spec.Command)
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Prefer the context error when cancellation killed the process, so
		// callers see the interrupt rather than a signal exit code.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return exitErr.ExitCode(), ctxErr
		}
		return exitErr.ExitCode(), nil
	}
	return 0, zerr.With(zerr.Wrap(err, domain.ErrCommandStartFailed.Error()), "command", spec.Command)
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

func renderCommand(spec ports.ExecSpec) string {
	if len(spec.Args) == 0 {
		return spec.Command
	}
	return spec.Command + " " + strings.Join(spec.Args, " ")
}
