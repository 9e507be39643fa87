// Package model defines the entity types persisted by the packmule store.
//
// Entities are plain serializable records: one entity maps to one JSON file
// under the store's base directory. Identity is carried by the entity itself
// (IDs are caller-assigned strings) together with the owning user's ID, which
// selects the directory subtree. None of these types perform I/O.
package model

import "time"

// User is the profile metadata of a migrated account. One per owner,
// stored as <base>/<ownerID>/User.json.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"display_name,omitempty"`
	JoinedAt        time.Time `json:"joined_at"`
	ProfileAssetURI string    `json:"profile_asset_uri,omitempty"`
	LastUpdateTime  time.Time `json:"last_update_time"`
}

// Friend is a contact of the owner.
type Friend struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	AddedAt        time.Time `json:"added_at"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// Message is a single message exchanged with a contact. Messages are grouped
// per contact on disk: <base>/<ownerID>/Messages/<contactID>/<msgID>.json.
type Message struct {
	ID             string    `json:"id"`
	ContactID      string    `json:"contact_id"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// ManifestEntry names one asset a record depends on, by content hash and
// expected size in bytes.
type ManifestEntry struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Record is a user-created item carrying up to two direct asset references
// (primary and thumbnail, as packmule asset URIs) plus a manifest of any
// further assets its payload embeds.
type Record struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Name           string          `json:"name"`
	AssetURI       string          `json:"asset_uri,omitempty"`
	ThumbnailURI   string          `json:"thumbnail_uri,omitempty"`
	Manifest       []ManifestEntry `json:"manifest,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	LastUpdateTime time.Time       `json:"last_update_time"`
}

// CloudVariableDefinition declares a cloud variable. The Path doubles as the
// on-disk file name and must therefore be unique per owner.
type CloudVariableDefinition struct {
	Path           string    `json:"path"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// CloudVariable is the current value of a defined cloud variable.
type CloudVariable struct {
	Path           string    `json:"path"`
	Value          string    `json:"value"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// Group is a group the owner belongs to or administers.
type Group struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// Member is one user's membership in a group.
type Member struct {
	UserID         string    `json:"user_id"`
	GroupID        string    `json:"group_id"`
	Role           string    `json:"role,omitempty"`
	LastUpdateTime time.Time `json:"last_update_time"`
}

// Storage is the auxiliary key/value blob attached to a group or member,
// persisted as a sibling <id>.Storage.json file.
type Storage struct {
	Entries map[string]string `json:"entries,omitempty"`
}
