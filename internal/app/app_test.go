package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/again/internal/adapters/cas"
	"go.trai.ch/again/internal/adapters/config"
	"go.trai.ch/again/internal/adapters/fs"
	"go.trai.ch/again/internal/adapters/logger"
	"go.trai.ch/again/internal/adapters/shell"
	"go.trai.ch/again/internal/app"
	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/again/internal/core/ports"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	lg := logger.New()
	lg.SetOutput(&bytes.Buffer{})

	return app.New(
		config.NewLoader(lg),
		fs.NewWalker(),
		shell.NewExecutor(lg),
		lg,
		func(root string) ports.Store { return cas.NewStore(root, lg) },
	)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// The canonical round trip: a miss executes and captures, an unchanged
// input replays, and changes to ignored files do not disturb the key.
func TestApp_Run_RoundTrip(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	writeFile(t, filepath.Join(workDir, "src", "a.txt"), "hello")
	writeFile(t, filepath.Join(workDir, "src", ".gitignore"), "ignored.txt\n")
	writeFile(t, filepath.Join(workDir, "src", "ignored.txt"), "scratch")

	a := newTestApp(t)
	opts := app.RunOptions{
		InputPath:  "src",
		OutputPath: "out",
		CachePath:  filepath.Join(workDir, "cache"),
		Command:    "sh",
		Args:       []string{"-c", "mkdir -p out && tr a-z A-Z < src/a.txt > out/result.txt"},
	}

	first, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, first.Executed)
	assert.False(t, first.CacheHit)

	data, err := os.ReadFile(filepath.Join(workDir, "out", "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(data))

	// Ignored churn must not invalidate the key; wipe the output to prove
	// the second run restores from the store.
	writeFile(t, filepath.Join(workDir, "src", "ignored.txt"), "changed scratch")
	require.NoError(t, os.RemoveAll(filepath.Join(workDir, "out")))

	second, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.False(t, second.Executed)
	assert.Equal(t, first.Key, second.Key)

	data, err = os.ReadFile(filepath.Join(workDir, "out", "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(data))

	// A tracked input change flips the key and executes again.
	writeFile(t, filepath.Join(workDir, "src", "a.txt"), "hello world")

	third, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, third.Executed)
	assert.NotEqual(t, first.Key, third.Key)

	data, err = os.ReadFile(filepath.Join(workDir, "out", "result.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO WORLD", string(data))
}

func TestApp_Run_NoIgnoreChangesKey(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	writeFile(t, filepath.Join(workDir, "src", "a.txt"), "hello")
	writeFile(t, filepath.Join(workDir, "src", ".gitignore"), "ignored.txt\n")
	writeFile(t, filepath.Join(workDir, "src", "ignored.txt"), "scratch")

	a := newTestApp(t)
	opts := app.RunOptions{
		InputPath:  "src",
		OutputPath: "out",
		CachePath:  filepath.Join(workDir, "cache"),
		Command:    "sh",
		Args:       []string{"-c", "mkdir -p out && cp src/a.txt out/"},
	}

	withIgnore, err := a.Run(context.Background(), opts)
	require.NoError(t, err)

	opts.NoIgnore = true
	withoutIgnore, err := a.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.NotEqual(t, withIgnore.Key, withoutIgnore.Key,
		"hashing previously ignored files must change the key")
}

func TestApp_Run_CommandFailureNotCached(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	writeFile(t, filepath.Join(workDir, "src", "a.txt"), "hello")

	a := newTestApp(t)
	opts := app.RunOptions{
		InputPath:  "src",
		OutputPath: "out",
		CachePath:  filepath.Join(workDir, "cache"),
		Command:    "sh",
		Args:       []string{"-c", "exit 3"},
	}

	report, err := a.Run(context.Background(), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCommandFailed)
	require.NotNil(t, report)
	assert.Equal(t, 3, report.ExitCode)

	// The failure was not published: an identical run executes again
	// instead of replaying.
	report, err = a.Run(context.Background(), opts)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.True(t, report.Executed)
}

func TestApp_Run_SingleFileInput(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	writeFile(t, filepath.Join(workDir, "input.txt"), "payload")

	a := newTestApp(t)
	opts := app.RunOptions{
		InputPath:  "input.txt",
		OutputPath: "out",
		CachePath:  filepath.Join(workDir, "cache"),
		Command:    "sh",
		Args:       []string{"-c", "mkdir -p out && wc -c < input.txt > out/size.txt"},
	}

	first, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, first.Executed)

	second, err := a.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
}

func TestApp_Run_MissingInput(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	a := newTestApp(t)
	_, err := a.Run(context.Background(), app.RunOptions{
		InputPath:  "does-not-exist",
		OutputPath: "out",
		CachePath:  filepath.Join(workDir, "cache"),
		Command:    "true",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestApp_Clean(t *testing.T) {
	workDir := t.TempDir()
	t.Chdir(workDir)

	writeFile(t, filepath.Join(workDir, "src", "a.txt"), "hello")

	a := newTestApp(t)
	cachePath := filepath.Join(workDir, "cache")
	_, err := a.Run(context.Background(), app.RunOptions{
		InputPath:  "src",
		OutputPath: "out",
		CachePath:  cachePath,
		Command:    "sh",
		Args:       []string{"-c", "mkdir -p out && touch out/done"},
	})
	require.NoError(t, err)
	require.DirExists(t, cachePath)

	require.NoError(t, a.Clean(context.Background(), app.CleanOptions{CachePath: cachePath}))
	assert.NoDirExists(t, cachePath)

	// --all also removes the metadata directory.
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, domain.AgainDirName), 0o750))
	require.NoError(t, a.Clean(context.Background(), app.CleanOptions{CachePath: cachePath, All: true}))
	assert.NoDirExists(t, filepath.Join(workDir, domain.AgainDirName))
}
