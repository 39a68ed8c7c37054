package metadata

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plugmate/plugmate/internal/core/domain"
)

func newTestStore() *Store {
	return NewStore(afero.NewMemMapFs(), "/server/.plugmate/metadata")
}

func testRecord(name string) *domain.Record {
	return domain.NewRecord(
		name,
		domain.RepositoryRef{CatalogType: "github", CatalogID: "owner/repo"},
		domain.VersionFromRaw("v1.0.0"),
		time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	)
}

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := newTestStore()
	record := testRecord("WorldEdit")
	record.Download = domain.DownloadRef{DownloadID: "42", FileName: "WorldEdit-1.0.0.jar"}

	require.NoError(t, store.Put(record))

	loaded, err := store.Get("WorldEdit")
	require.NoError(t, err)
	assert.Equal(t, record, loaded)
}

func TestStore_GetMissingIsNotFound(t *testing.T) {
	store := newTestStore()

	_, err := store.Get("Ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_RejectsPathEscapingNames(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Put(testRecord("Safe")))

	for _, name := range []string{"../Safe", "sub/Safe", `sub\Safe`, "..", "."} {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(name)
			assert.ErrorContains(t, err, "path separators")
			assert.Error(t, store.Delete(name))

			record := testRecord(name)
			assert.Error(t, store.Put(record))
		})
	}

	// Nothing outside the state dir was created.
	outside, err := afero.Exists(store.fs, "/server/.plugmate/Safe.json")
	require.NoError(t, err)
	assert.False(t, outside)
}

func TestStore_HistorySurvivesUpdates(t *testing.T) {
	store := newTestStore()
	record := testRecord("CoreProtect")
	require.NoError(t, store.Put(record))

	loaded, err := store.Get("CoreProtect")
	require.NoError(t, err)
	loaded.Current = domain.VersionFromRaw("v1.1.0")
	loaded.AppendHistory("v1.1.0", time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC), domain.ActionUpdate)
	require.NoError(t, store.Put(loaded))

	final, err := store.Get("CoreProtect")
	require.NoError(t, err)
	require.Len(t, final.History, 2)
	assert.Equal(t, domain.ActionInstall, final.History[0].Action)
	assert.Equal(t, domain.ActionUpdate, final.History[1].Action)
	assert.Equal(t, "v1.0.0", final.History[0].Version, "history is never reordered")
}

func TestStore_LockUnlockStateMachine(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Put(testRecord("Vault")))

	require.NoError(t, store.Lock("Vault"))

	err := store.Lock("Vault")
	assert.ErrorIs(t, err, domain.ErrAlreadyLocked)

	// The record is otherwise unchanged by the failed second lock.
	record, getErr := store.Get("Vault")
	require.NoError(t, getErr)
	assert.True(t, record.Locked)
	assert.Len(t, record.History, 1, "locking never appends history")

	require.NoError(t, store.Unlock("Vault"))
	err = store.Unlock("Vault")
	assert.ErrorIs(t, err, domain.ErrNotLocked)
}

func TestStore_LockMissingPluginIsNotFound(t *testing.T) {
	store := newTestStore()
	assert.ErrorIs(t, store.Lock("Ghost"), domain.ErrNotFound)
	assert.ErrorIs(t, store.Unlock("Ghost"), domain.ErrNotFound)
}

func TestStore_DeleteRemovesRecord(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Put(testRecord("Dynmap")))

	require.NoError(t, store.Delete("Dynmap"))
	_, err := store.Get("Dynmap")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Delete("Dynmap"), domain.ErrNotFound)
}

func TestStore_AllListsEveryRecord(t *testing.T) {
	store := newTestStore()
	require.NoError(t, store.Put(testRecord("Alpha")))
	require.NoError(t, store.Put(testRecord("Beta")))

	records, err := store.All()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStore_AllOnEmptyStateDir(t *testing.T) {
	store := newTestStore()

	records, err := store.All()
	require.NoError(t, err)
	assert.Empty(t, records)
}
