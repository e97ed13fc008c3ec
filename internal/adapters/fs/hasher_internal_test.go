package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	digest, size, mode, err := hashFile(path)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("hello"))
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	assert.Equal(t, int64(5), size)
	assert.True(t, mode.IsRegular())
}

// Files larger than the streaming buffer must hash identically to a
// one-shot digest of the same bytes.
func TestHashFile_LargerThanBuffer(t *testing.T) {
	t.Parallel()

	content := strings.Repeat("abcdefgh", 3*hashBufferSize/8)
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "big.bin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	digest, size, _, err := hashFile(path)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	assert.Equal(t, int64(len(content)), size)
}

func TestHashFile_Missing(t *testing.T) {
	t.Parallel()

	_, _, _, err := hashFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
