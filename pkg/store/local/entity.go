package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mossrise/packmule/pkg/store"
)

// entitySuffix is the serialization suffix appended to every entity path.
const entitySuffix = ".json"

// loadEntity reads and deserializes the entity at path (without suffix).
//
// A missing file is absence, not an error: (nil, nil) is returned. A file
// that exists but fails to parse is corrupt local data and fails the call
// with store.ErrCorruptEntity.
func loadEntity[T any](ctx context.Context, path string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path + entitySuffix)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entity file: %w", err)
	}

	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("entity file %s: %w: %v", path+entitySuffix, store.ErrCorruptEntity, err)
	}

	return &entity, nil
}

// loadAllEntities deserializes every entity file directly under dir.
//
// A missing directory yields an empty slice. Auxiliary .Storage sub-entity
// files are skipped; they belong to their parent entity and are loaded
// explicitly. Order is unspecified. A single corrupt file aborts the whole
// enumeration: local data corruption is never silently masked.
func loadAllEntities[T any](ctx context.Context, dir string) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entity directory: %w", err)
	}

	result := make([]T, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, entitySuffix) {
			continue
		}
		if strings.HasSuffix(name, storagePathSuffix+entitySuffix) {
			continue
		}

		entity, err := loadEntity[T](ctx, filepath.Join(dir, strings.TrimSuffix(name, entitySuffix)))
		if err != nil {
			return nil, err
		}
		if entity != nil {
			result = append(result, *entity)
		}
	}

	return result, nil
}

// saveEntity serializes the entity to path (without suffix), creating
// intermediate directories as needed and silently overwriting any existing
// file.
//
// The write goes through a uniquely-named temp file in the target directory
// followed by a rename, so a reader never observes a partially-written
// entity.
func saveEntity[T any](ctx context.Context, entity *T, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create entity directory: %w", err)
	}

	data, err := json.MarshalIndent(entity, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize entity: %w", err)
	}

	target := path + entitySuffix
	tmpPath := filepath.Join(filepath.Dir(path),
		fmt.Sprintf(".%s.%s.tmp", filepath.Base(target), uuid.NewString()))

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write entity file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move entity file into place: %w", err)
	}

	return nil
}
