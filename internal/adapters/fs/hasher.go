package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sync"
)

// hashBufferSize is the buffer size used when streaming file content.
const hashBufferSize = 32 * 1024

// bufferPool recycles hashing buffers across concurrent file digests.
var bufferPool = sync.Pool{
	New: func() any {
		buffer := make([]byte, hashBufferSize)
		return &buffer
	},
}

// hashFile streams the file at path through sha256 and returns the
// lowercase-hex digest, the byte count and the file mode.
func hashFile(path string) (string, int64, os.FileMode, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the walked tree
	if err != nil {
		return "", 0, 0, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return "", 0, 0, err
	}

	bufPtr := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufPtr)

	h := sha256.New()
	n, err := io.CopyBuffer(h, f, *bufPtr)
	if err != nil {
		return "", 0, 0, err
	}

	return hex.EncodeToString(h.Sum(nil)), n, info.Mode(), nil
}
