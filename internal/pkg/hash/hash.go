// Package hash provides the content identity used for photo dedup and sync.
// Two files are the same photo iff their digests match; filenames never
// participate in identity.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// chunkSize keeps memory use flat regardless of file size.
const chunkSize = 32 * 1024

// Reader computes the hex SHA-256 digest of everything readable from r.
func Reader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File computes the digest of a file on the given filesystem.
func File(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Reader(f)
}

// Bytes computes the digest of an in-memory buffer.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
