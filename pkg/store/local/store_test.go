package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossrise/packmule/pkg/asset"
	"github.com/mossrise/packmule/pkg/model"
	"github.com/mossrise/packmule/pkg/store"
)

// fakeSource serves assets from memory and counts fetches per hash.
type fakeSource struct {
	mu      sync.Mutex
	content map[asset.Hash][]byte
	calls   map[asset.Hash]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		content: make(map[asset.Hash][]byte),
		calls:   make(map[asset.Hash]int),
	}
}

// add registers data under its real content hash and returns that hash.
func (f *fakeSource) add(data []byte) asset.Hash {
	hash := asset.HashBytes(data)
	f.mu.Lock()
	f.content[hash] = data
	f.mu.Unlock()
	return hash
}

func (f *fakeSource) FetchAsset(ctx context.Context, hash asset.Hash, destPath string) error {
	f.mu.Lock()
	data, ok := f.content[hash]
	f.calls[hash]++
	f.mu.Unlock()

	if !ok {
		return fmt.Errorf("no such asset %s", hash)
	}
	return os.WriteFile(destPath, data, 0644)
}

func (f *fakeSource) fetchCount(hash asset.Hash) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[hash]
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(t.TempDir(), Options{
		Pipeline:    asset.PipelineConfig{Parallelism: 2},
		LockTimeout: time.Second,
	})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func preparedStore(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.Prepare(context.Background()))
	return s
}

func assetURI(hash asset.Hash, ext string) string {
	if ext != "" {
		return fmt.Sprintf("packmule://assets/%s.%s", hash, ext)
	}
	return fmt.Sprintf("packmule://assets/%s", hash)
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Prepare(ctx))
	assert.Error(t, s.Prepare(ctx), "double Prepare must fail")
	require.NoError(t, s.Complete(ctx))

	// The lock is free again after Complete.
	other := New(s.BasePath(), Options{LockTimeout: time.Second})
	defer other.Close()
	require.NoError(t, other.Prepare(ctx))
	require.NoError(t, other.Complete(ctx))
}

func TestStoreLockContention(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	other := New(s.BasePath(), Options{LockTimeout: 300 * time.Millisecond})
	defer other.Close()

	err := other.Prepare(ctx)
	require.ErrorIs(t, err, store.ErrStoreInUse)

	require.NoError(t, s.Complete(ctx))
	require.NoError(t, other.Prepare(ctx))
	require.NoError(t, other.Complete(ctx))
}

func TestStoreRecordRequiresSession(t *testing.T) {
	s := newTestStore(t)

	err := s.StoreRecord(context.Background(), &model.Record{ID: "r", OwnerID: "o"}, nil, nil, false)
	assert.Error(t, err)
}

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	absent, err := s.GetUserMetadata(ctx, "owner")
	require.NoError(t, err)
	assert.Nil(t, absent)

	user := &model.User{
		ID:             "owner",
		Username:       "grace",
		JoinedAt:       time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC),
		LastUpdateTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.StoreUserMetadata(ctx, user))

	loaded, err := s.GetUserMetadata(ctx, "owner")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, *user, *loaded)
}

func TestContactsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	empty, err := s.GetContacts(ctx, "owner")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, id := range []string{"c1", "c2"} {
		require.NoError(t, s.StoreContact(ctx, "owner", &model.Friend{ID: id, Username: "u-" + id}))
	}

	contacts, err := s.GetContacts(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestMessagesSinceFilter(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	cutoff := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	times := map[string]time.Time{
		"before": cutoff.Add(-time.Hour),
		"at":     cutoff,
		"after":  cutoff.Add(time.Hour),
	}
	for id, ts := range times {
		msg := &model.Message{ID: id, ContactID: "c1", Body: id, LastUpdateTime: ts}
		require.NoError(t, s.StoreMessage(ctx, "owner", msg))
	}

	all, err := s.GetMessages(ctx, "owner", "c1", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3, "zero cutoff keeps everything")

	filtered, err := s.GetMessages(ctx, "owner", "c1", cutoff)
	require.NoError(t, err)
	require.Len(t, filtered, 2, "cutoff boundary is inclusive")
	for _, m := range filtered {
		assert.NotEqual(t, "before", m.ID)
	}

	latest, ok, err := s.GetLatestMessageTime(ctx, "owner", "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, latest.Equal(times["after"]))

	_, ok, err = s.GetLatestMessageTime(ctx, "owner", "no-such-contact")
	require.NoError(t, err)
	assert.False(t, ok, "contact with no messages yields absence")
}

func TestRecordsSinceFilterAndCounts(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	cutoff := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.StoreRecord(ctx,
		&model.Record{ID: "old", OwnerID: "owner", LastUpdateTime: cutoff.Add(-time.Minute)}, nil, nil, false))
	require.NoError(t, s.StoreRecord(ctx,
		&model.Record{ID: "new", OwnerID: "owner", LastUpdateTime: cutoff.Add(time.Minute)}, nil, nil, false))

	records, err := s.GetRecords(ctx, "owner", cutoff)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)
	assert.Equal(t, 1, s.RecordCount("owner"))

	single, err := s.GetRecord(ctx, "owner", "old")
	require.NoError(t, err)
	require.NotNil(t, single)
	assert.Equal(t, "old", single.ID)

	missing, err := s.GetRecord(ctx, "owner", "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	latest, ok, err := s.GetLatestRecordTime(ctx, "owner")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, latest.Equal(cutoff.Add(time.Minute)))

	_, ok, err = s.GetLatestRecordTime(ctx, "other-owner")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreRecordSchedulesAssets(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)
	source := newFakeSource()

	primary := source.add([]byte("primary payload"))
	thumb := source.add([]byte("thumbnail payload"))
	embedded := source.add([]byte("embedded payload"))

	record := &model.Record{
		ID:           "r1",
		OwnerID:      "owner",
		AssetURI:     assetURI(primary, "bin"),
		ThumbnailURI: assetURI(thumb, "png"),
		Manifest: []model.ManifestEntry{
			{Hash: string(embedded), Size: int64(len("embedded payload"))},
		},
	}
	require.NoError(t, s.StoreRecord(ctx, record, source, asset.NopProgress{}, false))
	require.NoError(t, s.Complete(ctx))

	for _, hash := range []asset.Hash{primary, thumb, embedded} {
		path, err := s.GetAsset(ctx, hash)
		require.NoError(t, err)
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, "asset %s should be cached at %s", hash, path)
		assert.Equal(t, 1, source.fetchCount(hash))
	}
}

func TestStoreRecordDeduplicatesAcrossRecords(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)
	source := newFakeSource()

	shared := source.add([]byte("shared across records"))

	for i := 0; i < 3; i++ {
		record := &model.Record{
			ID:       fmt.Sprintf("r%d", i),
			OwnerID:  "owner",
			AssetURI: assetURI(shared, "dat"),
		}
		require.NoError(t, s.StoreRecord(ctx, record, source, nil, false))
	}
	require.NoError(t, s.Complete(ctx))

	assert.Equal(t, 1, source.fetchCount(shared), "shared hash must be fetched once per session")
}

func TestStoreRecordSkipsMalformedReferences(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)
	source := newFakeSource()

	good := source.add([]byte("well formed"))
	record := &model.Record{
		ID:       "r1",
		OwnerID:  "owner",
		AssetURI: "not a uri at all",
		Manifest: []model.ManifestEntry{
			{Hash: "zzzz", Size: 4},
			{Hash: string(good), Size: int64(len("well formed"))},
		},
	}
	require.NoError(t, s.StoreRecord(ctx, record, source, nil, false))
	require.NoError(t, s.Complete(ctx))

	assert.Equal(t, 1, source.fetchCount(good))
}

func TestVariablesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	defs := []model.CloudVariableDefinition{
		{Path: "score", Name: "Score", Type: "number"},
		{Path: "motd", Name: "Message of the day", Type: "string"},
	}
	require.NoError(t, s.StoreDefinitions(ctx, "owner", defs))

	vars := []model.CloudVariable{
		{Path: "score", Value: "42"},
		{Path: "motd", Value: "hello"},
	}
	require.NoError(t, s.StoreVariables(ctx, "owner", vars))

	gotDefs, err := s.GetVariableDefinitions(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, gotDefs, 2)

	gotVars, err := s.GetVariables(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, gotVars, 2)

	one, err := s.GetVariable(ctx, "owner", "score")
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "42", one.Value)

	missing, err := s.GetVariable(ctx, "owner", "absent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGroupsAndStorage(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	group := &model.Group{ID: "g1", Name: "builders", LastUpdateTime: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	groupStorage := &model.Storage{Entries: map[string]string{"banner": "abc"}}
	require.NoError(t, s.StoreGroup(ctx, "owner", group, groupStorage))

	bare := &model.Group{ID: "g2", Name: "no storage"}
	require.NoError(t, s.StoreGroup(ctx, "owner", bare, nil))

	groups, err := s.GetGroups(ctx, "owner", time.Time{})
	require.NoError(t, err)
	assert.Len(t, groups, 2, "storage sub-entities must not surface as groups")
	assert.Equal(t, 2, s.GroupCount("owner"))

	gotStorage, err := s.GetGroupStorage(ctx, "owner", "g1")
	require.NoError(t, err)
	require.NotNil(t, gotStorage)
	assert.Equal(t, "abc", gotStorage.Entries["banner"])

	noStorage, err := s.GetGroupStorage(ctx, "owner", "g2")
	require.NoError(t, err)
	assert.Nil(t, noStorage)

	member := &model.Member{UserID: "u1", GroupID: "g1", Role: "admin"}
	memberStorage := &model.Storage{Entries: map[string]string{"joined": "2024"}}
	require.NoError(t, s.StoreMember(ctx, "owner", member, memberStorage))

	members, err := s.GetMembers(ctx, "owner", "g1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "admin", members[0].Role)

	gotMemberStorage, err := s.GetMemberStorage(ctx, "owner", "g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, gotMemberStorage)
	assert.Equal(t, "2024", gotMemberStorage.Entries["joined"])
}

func TestAssetAccessors(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)
	source := newFakeSource()

	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	data := append(append([]byte{}, pngHeader...), []byte("image bits")...)
	hash := source.add(data)

	record := &model.Record{ID: "r1", OwnerID: "owner", AssetURI: assetURI(hash, "")}
	require.NoError(t, s.StoreRecord(ctx, record, source, nil, false))
	require.NoError(t, s.Complete(ctx))

	size, err := s.GetAssetSize(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	mime, err := s.GetAssetMime(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	// Second lookup is served from the sidecar.
	mime, err = s.GetAssetMime(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	rc, err := s.ReadAsset(ctx, hash)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.True(t, bytes.Equal(data, got))

	target := filepath.Join(t.TempDir(), "out", "copy.png")
	require.NoError(t, s.DownloadAsset(ctx, hash, target))
	copied, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, copied))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count, "sidecar files are not assets")
	assert.Equal(t, int64(len(data)), stats.TotalBytes)
}

func TestAssetAccessorsMissing(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)
	missing := asset.HashBytes([]byte("never stored"))

	size, err := s.GetAssetSize(ctx, missing)
	require.NoError(t, err)
	assert.Zero(t, size)

	mime, err := s.GetAssetMime(ctx, missing)
	require.NoError(t, err)
	assert.Empty(t, mime)

	_, err = s.ReadAsset(ctx, missing)
	assert.ErrorIs(t, err, store.ErrAssetNotFound)

	err = s.DownloadAsset(ctx, missing, filepath.Join(t.TempDir(), "copy"))
	assert.ErrorIs(t, err, store.ErrAssetNotFound)
}

func TestCancelReleasesLock(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	require.NoError(t, s.Cancel())

	other := New(s.BasePath(), Options{LockTimeout: time.Second})
	defer other.Close()
	require.NoError(t, other.Prepare(ctx))
	require.NoError(t, other.Complete(ctx))
}

func TestCorruptEntitySurfacesSentinel(t *testing.T) {
	ctx := context.Background()
	s := preparedStore(t)

	require.NoError(t, s.StoreContact(ctx, "owner", &model.Friend{ID: "c1"}))

	path := contactPath(s.BasePath(), "owner", "c1") + entitySuffix
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0644))

	_, err := s.GetContacts(ctx, "owner")
	assert.True(t, errors.Is(err, store.ErrCorruptEntity))
}
