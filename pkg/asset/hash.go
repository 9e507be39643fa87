// Package asset implements packmule's content-addressable asset cache: hash
// identity, on-disk location and extension inference, per-session download
// deduplication, and the bounded-parallelism pipeline that materializes
// assets from a pluggable source.
package asset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Hash identifies an asset by the lowercase hex SHA-256 digest of its
// content. Outside of an in-progress download, the file stored under a
// hash's resolved path always digests back to the hash.
type Hash string

func (h Hash) String() string {
	return string(h)
}

// Valid reports whether h is a well-formed lowercase hex SHA-256 digest.
func (h Hash) Valid() bool {
	if len(h) != sha256.Size*2 {
		return false
	}
	for _, c := range h {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Equal compares h against another digest case-insensitively. Remote
// services are not consistent about digest casing, so comparisons never are
// either.
func (h Hash) Equal(other Hash) bool {
	return strings.EqualFold(string(h), string(other))
}

// HashFile computes the SHA-256 digest of the file at path.
//
// The file is read in chunks with a context check between chunks so that a
// cancelled session does not stay pinned on a large read. This is the
// verification primitive of the pipeline's resume path.
func HashFile(ctx context.Context, path string) (Hash, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer func() { _ = file.Close() }()

	const chunkSize = 1 * 1024 * 1024
	digest := sha256.New()
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := file.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file for hashing: %w", err)
		}
	}

	return Hash(hex.EncodeToString(digest.Sum(nil))), nil
}

// HashBytes computes the SHA-256 digest of data in memory.
func HashBytes(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}
