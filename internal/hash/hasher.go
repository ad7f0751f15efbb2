package hash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

const bufferSize = 32 * 1024 // 32KB buffer for streaming

// HashFile computes the xxHash of a file using streaming for large files
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return HashReader(file)
}

// HashReader streams r through xxHash and returns the hex digest.
func HashReader(r io.Reader) (string, error) {
	h := xxhash.New()
	buf := make([]byte, bufferSize)

	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Sum returns the hex xxHash digest of data. Loaded datasets carry this as
// their checksum so a reload of unchanged content can be recognized.
func Sum(data []byte) string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, xxhash.Sum64(data))
	return hex.EncodeToString(buf)
}

// Short trims a digest for display.
func Short(digest string) string {
	if len(digest) <= 8 {
		return digest
	}
	return digest[:8]
}
