package asset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mossrise/packmule/internal/logger"
)

// MimeSuffix is the suffix of the sidecar file caching an asset's
// previously-classified MIME type (<hash>.mime).
const MimeSuffix = ".mime"

// Locator resolves content hashes to paths inside the assets root and
// manages extension inference for cached files.
//
// Asset files are named <hash>[.<extension>]. The extension is absent until
// either supplied by the caller or inferred from content after a successful
// fetch or verification, so resolution has to tolerate both forms.
//
// Thread safety: Locator itself is stateless apart from its configuration;
// concurrent calls are safe as long as no two callers operate on the same
// hash, which the pipeline's Registry guarantees.
type Locator struct {
	root       string
	classifier Classifier
}

// NewLocator creates a Locator over the given assets root directory.
func NewLocator(root string, classifier Classifier) *Locator {
	return &Locator{root: root, classifier: classifier}
}

// Root returns the assets root directory.
func (l *Locator) Root() string {
	return l.root
}

// Resolve returns the on-disk path for hash, whether or not a file exists.
//
// It scans the assets root for a file named <hash>.<something> that is not
// the MIME sidecar and returns the first match; otherwise it falls back to
// the extensionless <root>/<hash>. The scan is O(directory size), which is
// acceptable because Resolve runs at job start and read time, never in a
// hot loop.
func (l *Locator) Resolve(hash Hash) string {
	prefix := string(hash) + "."

	entries, err := os.ReadDir(l.root)
	if err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, prefix) && !strings.HasSuffix(name, MimeSuffix) {
				return filepath.Join(l.root, name)
			}
		}
	}

	return filepath.Join(l.root, string(hash))
}

// MimeSidecarPath returns the path of the MIME cache sidecar for hash.
func (l *Locator) MimeSidecarPath(hash Hash) string {
	return filepath.Join(l.root, string(hash)+MimeSuffix)
}

// RenameWithExtension renames the extensionless file at path to
// path.<extension> and returns the target path.
//
// The target is returned whether or not the source file existed: callers use
// it as the job's working path regardless, letting a later fetch materialize
// the file directly under its final name.
func (l *Locator) RenameWithExtension(path, extension string) (string, error) {
	target := path + "." + extension

	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, target); err != nil {
			return target, fmt.Errorf("failed to rename asset: %w", err)
		}
	}

	return target, nil
}

// ClassifyAndRename infers a file extension for the asset at path from its
// content and renames the file accordingly, returning the (possibly
// unchanged) path.
//
// If the file already carries an extension and force is false this is a
// no-op. When classification yields no candidate extension the file is left
// extensionless; that is not an error.
func (l *Locator) ClassifyAndRename(ctx context.Context, path string, force bool) (string, error) {
	ext := filepath.Ext(path)
	if ext != "" && !force {
		return path, nil
	}

	result, err := l.classifier.Classify(ctx, path)
	if err != nil {
		return path, fmt.Errorf("failed to classify asset content: %w", err)
	}
	if len(result.Extensions) == 0 {
		logger.Debug("no extension candidates for %s, leaving as is", filepath.Base(path))
		return path, nil
	}

	target := strings.TrimSuffix(path, ext) + "." + result.Extensions[0]
	if target == path {
		return path, nil
	}
	if err := os.Rename(path, target); err != nil {
		return path, fmt.Errorf("failed to rename asset after classification: %w", err)
	}

	return target, nil
}
