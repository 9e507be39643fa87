package local

import (
	"context"
	"fmt"

	"github.com/mossrise/packmule/internal/logger"
	"github.com/mossrise/packmule/pkg/asset"
	"github.com/mossrise/packmule/pkg/model"
)

// Write accessors. Entities are persisted one file each and silently
// overwritten on re-store. Only StoreRecord has asset side effects.

// StoreUserMetadata persists the owner's profile.
func (s *Store) StoreUserMetadata(ctx context.Context, user *model.User) error {
	return saveEntity(ctx, user, userPath(s.basePath, user.ID))
}

// StoreContact persists one contact of the owner.
func (s *Store) StoreContact(ctx context.Context, ownerID string, friend *model.Friend) error {
	return saveEntity(ctx, friend, contactPath(s.basePath, ownerID, friend.ID))
}

// StoreMessage persists one message under its contact's directory.
func (s *Store) StoreMessage(ctx context.Context, ownerID string, msg *model.Message) error {
	return saveEntity(ctx, msg, messagePath(s.basePath, ownerID, msg.ContactID, msg.ID))
}

// StoreDefinitions persists a batch of cloud variable definitions.
func (s *Store) StoreDefinitions(ctx context.Context, ownerID string, defs []model.CloudVariableDefinition) error {
	for i := range defs {
		if err := saveEntity(ctx, &defs[i], definitionPath(s.basePath, ownerID, defs[i].Path)); err != nil {
			return err
		}
	}
	return nil
}

// StoreVariables persists a batch of cloud variable values.
func (s *Store) StoreVariables(ctx context.Context, ownerID string, vars []model.CloudVariable) error {
	for i := range vars {
		if err := saveEntity(ctx, &vars[i], variablePath(s.basePath, ownerID, vars[i].Path)); err != nil {
			return err
		}
	}
	return nil
}

// StoreRecord persists the record, then scans its asset references - primary
// asset URI, thumbnail URI, and the manifest list - and schedules each
// distinct hash for download through the session pipeline. Scheduling is
// deduplicated per session via the registry, so a hash referenced by any
// number of records is fetched at most once.
//
// overwriteOnConflict is accepted for interface symmetry with remote stores;
// this implementation always overwrites.
func (s *Store) StoreRecord(ctx context.Context, record *model.Record, source asset.Source, progress asset.Progress, overwriteOnConflict bool) error {
	_ = overwriteOnConflict

	pipeline, registry, err := s.session()
	if err != nil {
		return fmt.Errorf("cannot store record %s: %w", record.ID, err)
	}

	if err := saveEntity(ctx, record, recordPath(s.basePath, record.OwnerID, record.ID)); err != nil {
		return err
	}

	// Manifest sizes also serve the direct references: a primary or
	// thumbnail hash that reappears in the manifest gets its byte size
	// from there.
	sizes := make(map[asset.Hash]int64, len(record.Manifest))
	for _, entry := range record.Manifest {
		sizes[asset.Hash(entry.Hash)] = entry.Size
	}

	schedule := func(hash asset.Hash, extension string) {
		if !registry.TryClaim(hash) {
			return
		}
		pipeline.Post(&asset.Job{
			Hash:      hash,
			Size:      sizes[hash],
			Extension: extension,
			Source:    source,
			Progress:  progress,
		})
	}

	if hash, ext, ok := asset.ParseURI(record.AssetURI); ok {
		schedule(hash, ext)
	} else if record.AssetURI != "" {
		logger.Warn("record %s has unparseable asset URI %q", record.ID, record.AssetURI)
	}

	if hash, ext, ok := asset.ParseURI(record.ThumbnailURI); ok {
		schedule(hash, ext)
	} else if record.ThumbnailURI != "" {
		logger.Warn("record %s has unparseable thumbnail URI %q", record.ID, record.ThumbnailURI)
	}

	for _, entry := range record.Manifest {
		hash := asset.Hash(entry.Hash)
		if !hash.Valid() {
			logger.Warn("record %s manifest has malformed hash %q", record.ID, entry.Hash)
			continue
		}
		schedule(hash, "")
	}

	return nil
}

// StoreGroup persists a group plus its auxiliary storage sub-entity at the
// sibling <id>.Storage path.
func (s *Store) StoreGroup(ctx context.Context, ownerID string, group *model.Group, storage *model.Storage) error {
	path := groupPath(s.basePath, ownerID, group.ID)
	if err := saveEntity(ctx, group, path); err != nil {
		return err
	}
	if storage != nil {
		return saveEntity(ctx, storage, storagePath(path))
	}
	return nil
}

// StoreMember persists a group member plus its auxiliary storage sub-entity.
func (s *Store) StoreMember(ctx context.Context, ownerID string, member *model.Member, storage *model.Storage) error {
	path := memberPath(s.basePath, ownerID, member.GroupID, member.UserID)
	if err := saveEntity(ctx, member, path); err != nil {
		return err
	}
	if storage != nil {
		return saveEntity(ctx, storage, storagePath(path))
	}
	return nil
}
