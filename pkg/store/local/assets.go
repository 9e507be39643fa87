package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossrise/packmule/pkg/asset"
	"github.com/mossrise/packmule/pkg/store"
)

// Asset read surface. These operate on whatever the cache currently holds;
// they do not schedule downloads.

// defaultAssetsPath is where the asset cache lives unless overridden.
func defaultAssetsPath(basePath string) string {
	return filepath.Join(basePath, "Assets")
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// GetAsset resolves hash to its on-disk path, tolerating an unknown or
// already-assigned extension. The path is returned whether or not a file
// currently exists there.
func (s *Store) GetAsset(ctx context.Context, hash asset.Hash) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.locator.Resolve(hash), nil
}

// GetAssetSize returns the size in bytes of the cached asset, or 0 when the
// asset is not present. Absence is not an error here.
func (s *Store) GetAssetSize(ctx context.Context, hash asset.Hash) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := os.Stat(s.locator.Resolve(hash))
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat asset %s: %w", hash, err)
	}
	return info.Size(), nil
}

// GetAssetMime returns the asset's MIME type, or "" when it cannot be
// determined (asset missing or content unrecognized).
//
// A <hash>.mime sidecar caches the answer: it is consulted first and written
// back after a successful live classification so repeat lookups skip the
// sniff.
func (s *Store) GetAssetMime(ctx context.Context, hash asset.Hash) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sidecar := s.locator.MimeSidecarPath(hash)
	if data, err := os.ReadFile(sidecar); err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	path := s.locator.Resolve(hash)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	result, err := s.opts.Classifier.Classify(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to classify asset %s: %w", hash, err)
	}

	if result.MIME != "" {
		// Cache miss is fine; failing to write the cache is too.
		_ = os.WriteFile(sidecar, []byte(result.MIME), 0644)
	}

	return result.MIME, nil
}

// ReadAsset opens the cached asset for reading. A missing asset fails with
// store.ErrAssetNotFound. The caller owns closing the stream.
func (s *Store) ReadAsset(ctx context.Context, hash asset.Hash) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.locator.Resolve(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("asset %s: %w", hash, store.ErrAssetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open asset %s: %w", hash, err)
	}
	return file, nil
}

// DownloadAsset copies the cached asset to an arbitrary target path,
// creating intermediate directories as needed. Used when this store acts as
// the source side of another migration. A missing asset fails with
// store.ErrAssetNotFound.
func (s *Store) DownloadAsset(ctx context.Context, hash asset.Hash, targetPath string) error {
	src, err := s.ReadAsset(ctx, hash)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	dst, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("failed to create target file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to copy asset %s: %w", hash, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to close target file: %w", err)
	}

	return nil
}

// AssetStats summarizes the asset cache for reporting.
type AssetStats struct {
	// Count is the number of cached asset files (MIME sidecars excluded).
	Count int
	// TotalBytes is their combined size.
	TotalBytes int64
}

// Stats scans the assets root and returns cache statistics. A store whose
// assets directory does not exist yet reports zero stats.
func (s *Store) Stats(ctx context.Context) (AssetStats, error) {
	if err := ctx.Err(); err != nil {
		return AssetStats{}, err
	}

	entries, err := os.ReadDir(s.opts.AssetsPath)
	if errors.Is(err, os.ErrNotExist) {
		return AssetStats{}, nil
	}
	if err != nil {
		return AssetStats{}, fmt.Errorf("failed to read assets directory: %w", err)
	}

	var stats AssetStats
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), asset.MimeSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.Count++
		stats.TotalBytes += info.Size()
	}

	return stats, nil
}
