// Package store defines the data-store contract shared by packmule's local
// and remote persistence backends, along with the sentinel errors they
// return.
//
// A migration run moves entities between two DataStore implementations: a
// remote store wrapping the service being migrated from, and the local store
// in pkg/store/local holding the downloaded tree. The contract is therefore
// written from the mover's perspective: read accessors stream entities with
// an optional modified-since cutoff, write accessors persist entities and
// (for records) schedule any referenced assets for transfer.
package store

import (
	"context"
	"io"
	"time"

	"github.com/mossrise/packmule/pkg/asset"
	"github.com/mossrise/packmule/pkg/model"
)

// DataStore is the full read/write contract of a packmule persistence
// backend.
//
// Lifecycle:
//  1. Prepare acquires exclusive use of the backend and starts any
//     background machinery (the local store's asset pipeline).
//  2. Read/write accessors may then be called freely. Write accessors for
//     records schedule asset downloads as a side effect; the calls return
//     without waiting for those downloads.
//  3. Complete waits for all scheduled work to drain and releases the
//     backend. Cancel releases immediately, abandoning in-flight work.
//
// Time cutoffs: accessors taking a `since` parameter return only entities
// with LastUpdateTime >= since; the zero time means no cutoff. Enumeration
// order is unspecified.
//
// Absence: single-entity getters return (nil, nil) when the entity does not
// exist; collection getters return an empty slice. Only genuinely broken
// state (unreadable or corrupt files) produces an error.
type DataStore interface {
	Prepare(ctx context.Context) error
	Complete(ctx context.Context) error
	Cancel() error

	GetUserMetadata(ctx context.Context, ownerID string) (*model.User, error)
	StoreUserMetadata(ctx context.Context, user *model.User) error

	GetContacts(ctx context.Context, ownerID string) ([]model.Friend, error)
	StoreContact(ctx context.Context, ownerID string, friend *model.Friend) error

	GetMessages(ctx context.Context, ownerID, contactID string, since time.Time) ([]model.Message, error)
	StoreMessage(ctx context.Context, ownerID string, msg *model.Message) error
	GetLatestMessageTime(ctx context.Context, ownerID, contactID string) (time.Time, bool, error)

	GetRecord(ctx context.Context, ownerID, recordID string) (*model.Record, error)
	GetRecords(ctx context.Context, ownerID string, since time.Time) ([]model.Record, error)
	GetLatestRecordTime(ctx context.Context, ownerID string) (time.Time, bool, error)

	// StoreRecord persists the record and schedules every distinct asset it
	// references (primary, thumbnail, manifest) for transfer through the
	// backend's pipeline. overwriteOnConflict exists for symmetry with
	// remote stores; the local store always overwrites.
	StoreRecord(ctx context.Context, record *model.Record, source asset.Source, progress asset.Progress, overwriteOnConflict bool) error

	GetVariableDefinitions(ctx context.Context, ownerID string) ([]model.CloudVariableDefinition, error)
	GetVariables(ctx context.Context, ownerID string) ([]model.CloudVariable, error)
	GetVariable(ctx context.Context, ownerID, path string) (*model.CloudVariable, error)
	StoreDefinitions(ctx context.Context, ownerID string, defs []model.CloudVariableDefinition) error
	StoreVariables(ctx context.Context, ownerID string, vars []model.CloudVariable) error

	GetGroups(ctx context.Context, ownerID string, since time.Time) ([]model.Group, error)
	GetMembers(ctx context.Context, ownerID, groupID string) ([]model.Member, error)
	StoreGroup(ctx context.Context, ownerID string, group *model.Group, storage *model.Storage) error
	StoreMember(ctx context.Context, ownerID string, member *model.Member, storage *model.Storage) error

	GetAsset(ctx context.Context, hash asset.Hash) (string, error)
	GetAssetSize(ctx context.Context, hash asset.Hash) (int64, error)
	GetAssetMime(ctx context.Context, hash asset.Hash) (string, error)
	ReadAsset(ctx context.Context, hash asset.Hash) (io.ReadCloser, error)
	DownloadAsset(ctx context.Context, hash asset.Hash, targetPath string) error
}
