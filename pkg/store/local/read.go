package local

import (
	"context"
	"time"

	"github.com/mossrise/packmule/pkg/model"
)

// Read accessors over the entity tree. All of them materialize a one-shot
// directory scan and filter client-side; there is no indexing. Collection
// order is unspecified.

// GetUserMetadata returns the owner's profile, or nil if never stored.
func (s *Store) GetUserMetadata(ctx context.Context, ownerID string) (*model.User, error) {
	return loadEntity[model.User](ctx, userPath(s.basePath, ownerID))
}

// GetContacts returns all stored contacts of the owner.
func (s *Store) GetContacts(ctx context.Context, ownerID string) ([]model.Friend, error) {
	return loadAllEntities[model.Friend](ctx, contactsDir(s.basePath, ownerID))
}

// GetMessages returns the messages exchanged with contactID, filtered by the
// modified-since cutoff. The boundary is inclusive: a message whose
// LastUpdateTime equals since is returned. A zero since disables filtering.
func (s *Store) GetMessages(ctx context.Context, ownerID, contactID string, since time.Time) ([]model.Message, error) {
	messages, err := loadAllEntities[model.Message](ctx, messagesDir(s.basePath, ownerID, contactID))
	if err != nil {
		return nil, err
	}
	return filterSince(messages, since, func(m model.Message) time.Time { return m.LastUpdateTime }), nil
}

// GetLatestMessageTime returns the most recent LastUpdateTime among the
// messages exchanged with contactID. ok is false when there are none; a
// contact with zero messages yields absence, not a default date.
func (s *Store) GetLatestMessageTime(ctx context.Context, ownerID, contactID string) (time.Time, bool, error) {
	messages, err := s.GetMessages(ctx, ownerID, contactID, time.Time{})
	if err != nil {
		return time.Time{}, false, err
	}
	return latestTime(messages, func(m model.Message) time.Time { return m.LastUpdateTime })
}

// GetRecord returns a single record, or nil if absent.
func (s *Store) GetRecord(ctx context.Context, ownerID, recordID string) (*model.Record, error) {
	return loadEntity[model.Record](ctx, recordPath(s.basePath, ownerID, recordID))
}

// GetRecords returns the owner's records filtered by the modified-since
// cutoff (inclusive; zero disables). The number fetched is remembered per
// owner and retrievable via RecordCount.
func (s *Store) GetRecords(ctx context.Context, ownerID string, since time.Time) ([]model.Record, error) {
	records, err := loadAllEntities[model.Record](ctx, recordsDir(s.basePath, ownerID))
	if err != nil {
		return nil, err
	}
	records = filterSince(records, since, func(r model.Record) time.Time { return r.LastUpdateTime })

	s.countsMu.Lock()
	s.recordCounts[ownerID] = len(records)
	s.countsMu.Unlock()

	return records, nil
}

// GetLatestRecordTime returns the most recent LastUpdateTime among the
// owner's records. ok is false when the owner has no records.
func (s *Store) GetLatestRecordTime(ctx context.Context, ownerID string) (time.Time, bool, error) {
	records, err := loadAllEntities[model.Record](ctx, recordsDir(s.basePath, ownerID))
	if err != nil {
		return time.Time{}, false, err
	}
	return latestTime(records, func(r model.Record) time.Time { return r.LastUpdateTime })
}

// GetVariableDefinitions returns all cloud variable definitions.
func (s *Store) GetVariableDefinitions(ctx context.Context, ownerID string) ([]model.CloudVariableDefinition, error) {
	return loadAllEntities[model.CloudVariableDefinition](ctx, definitionsDir(s.basePath, ownerID))
}

// GetVariables returns all cloud variable values.
func (s *Store) GetVariables(ctx context.Context, ownerID string) ([]model.CloudVariable, error) {
	return loadAllEntities[model.CloudVariable](ctx, variablesDir(s.basePath, ownerID))
}

// GetVariable returns a single cloud variable by path, or nil if absent.
func (s *Store) GetVariable(ctx context.Context, ownerID, varPath string) (*model.CloudVariable, error) {
	return loadEntity[model.CloudVariable](ctx, variablePath(s.basePath, ownerID, varPath))
}

// GetGroups returns the owner's groups filtered by the modified-since cutoff
// (inclusive; zero disables). The number fetched is remembered per owner and
// retrievable via GroupCount.
func (s *Store) GetGroups(ctx context.Context, ownerID string, since time.Time) ([]model.Group, error) {
	groups, err := loadAllEntities[model.Group](ctx, groupsDir(s.basePath, ownerID))
	if err != nil {
		return nil, err
	}
	groups = filterSince(groups, since, func(g model.Group) time.Time { return g.LastUpdateTime })

	s.countsMu.Lock()
	s.groupCounts[ownerID] = len(groups)
	s.countsMu.Unlock()

	return groups, nil
}

// GetMembers returns the members of a group.
func (s *Store) GetMembers(ctx context.Context, ownerID, groupID string) ([]model.Member, error) {
	return loadAllEntities[model.Member](ctx, membersDir(s.basePath, ownerID, groupID))
}

// GetGroupStorage returns the auxiliary storage of a group, or nil if absent.
func (s *Store) GetGroupStorage(ctx context.Context, ownerID, groupID string) (*model.Storage, error) {
	return loadEntity[model.Storage](ctx, storagePath(groupPath(s.basePath, ownerID, groupID)))
}

// GetMemberStorage returns the auxiliary storage of a member, or nil if
// absent.
func (s *Store) GetMemberStorage(ctx context.Context, ownerID, groupID, userID string) (*model.Storage, error) {
	return loadEntity[model.Storage](ctx, storagePath(memberPath(s.basePath, ownerID, groupID, userID)))
}

// filterSince keeps entities whose update time is >= since. A zero cutoff
// keeps everything.
func filterSince[T any](entities []T, since time.Time, updateTime func(T) time.Time) []T {
	if since.IsZero() {
		return entities
	}

	filtered := entities[:0]
	for _, e := range entities {
		t := updateTime(e)
		if t.Equal(since) || t.After(since) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// latestTime returns the maximum update time across entities, advancing only
// on actual entities so an empty input yields absence.
func latestTime[T any](entities []T, updateTime func(T) time.Time) (time.Time, bool, error) {
	var latest time.Time
	found := false
	for _, e := range entities {
		if t := updateTime(e); !found || t.After(latest) {
			latest = t
			found = true
		}
	}
	return latest, found, nil
}
