package ports

import (
	"context"
	"io"
)

// ExecSpec describes one command invocation.
type ExecSpec struct {
	// Command is the executable name.
	Command string
	// Args are the command arguments, in order.
	Args []string
	// WorkingDir is the directory the command runs in.
	WorkingDir string
	// Stdout and Stderr receive the command's output verbatim. The engine
	// does not interpret either stream.
	Stdout io.Writer
	Stderr io.Writer
}

// Executor runs commands on behalf of the engine.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command and returns its exit code. A non-zero exit
	// code is reported via the return value, not an error; err is reserved
	// for failures to run the command at all.
	Execute(ctx context.Context, spec ExecSpec) (int, error)
}
