package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/again/internal/wiring"
)

func quietProvider(t *testing.T) ComponentProvider {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	return func(_ context.Context) (*wiring.Components, func(), error) {
		c := wiring.New()
		c.Logger.SetOutput(&bytes.Buffer{})
		return c, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, quietProvider(t))
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*wiring.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_CommandExitCode verifies that a cached command's failure exits
// with the command's own code.
func TestRun_CommandExitCode(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "src", "a.txt"), []byte("hello"), 0o600))

	exitCode := run(context.Background(), []string{
		"run", "--cache-path", filepath.Join(workDir, "cache"),
		"src", "out", "--", "sh", "-c", "exit 5",
	}, io.Discard, quietProvider(t))

	assert.Equal(t, 5, exitCode)
}

// TestRun_EngineFailure verifies that engine-level failures exit with 1.
func TestRun_EngineFailure(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	exitCode := run(context.Background(), []string{
		"run", "--cache-path", filepath.Join(workDir, "cache"),
		"does-not-exist", "out", "--", "true",
	}, io.Discard, quietProvider(t))

	assert.Equal(t, 1, exitCode)
}

// TestRun_Signal verifies that the context is canceled on signal.
func TestRun_Signal(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(workDir, "src", "a.txt"), []byte("hello"), 0o600))

	provider := quietProvider(t)
	ctx, cancel := context.WithCancel(context.Background())
	retCh := make(chan int)

	go func() {
		retCh <- run(ctx, []string{
			"run", "--cache-path", filepath.Join(workDir, "cache"),
			"src", "out", "--", "sleep", "10",
		}, io.Discard, provider)
	}()

	// Wait a bit to ensure run() reaches the executor.
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case ret := <-retCh:
		assert.NotEqual(t, 0, ret)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for run() to return")
	}
}
