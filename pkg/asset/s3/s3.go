// Package s3 implements an asset source backed by Amazon S3 or S3-compatible
// storage.
//
// This is the production implementation of the pipeline's fetch collaborator:
// assets are stored as objects keyed by their content hash (with an optional
// prefix), and FetchAsset streams an object to the pipeline's target path.
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/mossrise/packmule/pkg/asset"
)

// SourceConfig contains configuration for the S3 asset source.
type SourceConfig struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "assets/" results in keys like "assets/ab12...".
	KeyPrefix string
}

// Source fetches assets from an S3 bucket, implementing asset.Source.
//
// Thread safety: safe for concurrent use; the underlying S3 client is
// concurrency-safe and each fetch writes through its own temp file.
type Source struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

// NewSource creates an S3 asset source. The bucket is not validated here;
// a missing bucket surfaces as a per-asset fetch failure.
func NewSource(cfg SourceConfig) (*Source, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	return &Source{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey maps an asset hash to its S3 object key.
func (s *Source) objectKey(hash asset.Hash) string {
	return s.keyPrefix + string(hash)
}

// FetchAsset downloads the object for hash and materializes it at destPath.
//
// The object body is streamed to a uniquely-named temp file in the
// destination directory and renamed into place after a successful sync, so
// destPath never holds a partially-written file behind a nil return. On any
// failure the temp file is removed and destPath is left untouched.
func (s *Source) FetchAsset(ctx context.Context, hash asset.Hash, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(hash)),
	})
	if err != nil {
		return fmt.Errorf("failed to get object for asset %s: %w", hash, err)
	}
	defer func() { _ = out.Body.Close() }()

	tmpPath := filepath.Join(filepath.Dir(destPath),
		fmt.Sprintf(".%s.%s.partial", filepath.Base(destPath), uuid.NewString()))

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := copyWithContext(ctx, tmp, out.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to stream asset %s: %w", hash, err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync asset %s: %w", hash, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move asset %s into place: %w", hash, err)
	}

	return nil
}

// copyWithContext copies src to dst in chunks with a context check between
// chunks, so a cancelled session does not stay pinned on a slow download.
func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	const chunkSize = 1 * 1024 * 1024
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
