package config_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/again/internal/adapters/config"
	"go.trai.ch/again/internal/core/domain"
	"go.trai.ch/zerr"
)

func newLoader(files map[string]string) *config.Loader {
	fsys := fstest.MapFS{}
	for path, content := range files {
		fsys[path] = &fstest.MapFile{Data: []byte(content)}
	}
	return config.NewLoaderWithFS(config.NewMapFSAdapter("/work", fsys), nil)
}

func TestLoader_Load_Defaults(t *testing.T) {
	t.Parallel()

	loader := newLoader(nil)

	settings, err := loader.Load("/work/project")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestLoader_Load_File(t *testing.T) {
	t.Parallel()

	loader := newLoader(map[string]string{
		"again.yaml": "version: \"1\"\nstore: build-cache\nignore:\n  gitignore: false\n  hidden: true\n",
	})

	settings, err := loader.Load("/work")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "build-cache"), settings.StorePath)
	assert.False(t, settings.UseGitignore)
	assert.True(t, settings.IncludeHidden)
}

func TestLoader_Load_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	loader := newLoader(map[string]string{
		"again.yaml": "version: \"1\"\nignore:\n  hidden: true\n",
	})

	settings, err := loader.Load("/work")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStorePath(), settings.StorePath)
	assert.True(t, settings.UseGitignore, "unset gitignore keeps the default")
	assert.True(t, settings.IncludeHidden)
}

// The nearest config file above the working directory wins.
func TestLoader_Load_WalksUp(t *testing.T) {
	t.Parallel()

	loader := newLoader(map[string]string{
		"again.yaml":     "store: outer-store\n",
		"sub/again.yaml": "store: inner-store\n",
	})

	settings, err := loader.Load("/work/sub/deep/nested")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "sub", "inner-store"), settings.StorePath)

	settings, err = loader.Load("/work/other")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/work", "outer-store"), settings.StorePath)
}

func TestLoader_Load_AbsoluteStorePath(t *testing.T) {
	t.Parallel()

	loader := newLoader(map[string]string{
		"again.yaml": "store: /var/cache/again\n",
	})

	settings, err := loader.Load("/work")
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/again", settings.StorePath)
}

func TestLoader_Load_InvalidYAML(t *testing.T) {
	t.Parallel()

	loader := newLoader(map[string]string{
		"again.yaml": "store: [unclosed\n",
	})

	_, err := loader.Load("/work")
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Contains(t, zErr.Metadata(), "path")
}
