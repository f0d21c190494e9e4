package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/solhaug/microstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveTemporaryBackup_CopiesLedgerFiles(t *testing.T) {
	ds := newTestDatastore(t)
	require.NoError(t, ds.SaveTemporaryBackup())

	for _, name := range ledgerFiles() {
		assert.True(t, exists(filepath.Join(ds.paths.TmpDir(), name)), name)
	}
}

func TestSaveTemporaryBackup_FailsIfTmpExists(t *testing.T) {
	ds := newTestDatastore(t)
	require.NoError(t, os.MkdirAll(ds.paths.TmpDir(), 0755))

	err := ds.SaveTemporaryBackup()
	assert.ErrorIs(t, err, ErrLocalStorage)
}

func TestRestoreFromTemporaryBackup_RevertsLedgerState(t *testing.T) {
	ds := newTestDatastore(t)
	require.NoError(t, ds.SaveTemporaryBackup())

	// mutate after the backup
	require.NoError(t, ds.AddDraft(models.DataStructureUpdate{
		Name: "income", Operation: models.OperationAdd, ReleaseStatus: models.StatusDraft,
	}))
	require.True(t, ds.Draft().Contains("income"))

	restored, err := ds.RestoreFromTemporaryBackup()
	require.NoError(t, err)
	assert.Nil(t, restored) // nothing ever released
	assert.False(t, ds.Draft().Contains("income"))
}

func TestRestoreFromTemporaryBackup_ReturnsLatestVersion(t *testing.T) {
	ds := newTestDatastore(t)
	require.NoError(t, ds.AppendVersion(models.DatastoreVersion{
		Version: "1.0.0", UpdateType: models.UpdateMinor, ReleaseTime: 1663251122,
	}))
	require.NoError(t, ds.WriteMetadataAll(models.Version{1, 0, 0, 0}, ds.DraftMetadata()))
	require.NoError(t, ds.SaveTemporaryBackup())

	restored, err := ds.RestoreFromTemporaryBackup()
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, models.Version{1, 0, 0, 0}, *restored)
}

func TestRestoreFromTemporaryBackup_MissingFile(t *testing.T) {
	ds := newTestDatastore(t)
	require.NoError(t, ds.SaveTemporaryBackup())
	require.NoError(t, os.Remove(filepath.Join(ds.paths.TmpDir(), "draft_version.json")))

	_, err := ds.RestoreFromTemporaryBackup()
	assert.ErrorIs(t, err, ErrLocalStorage)
}

func TestArchiveTemporaryBackup(t *testing.T) {
	ds := newTestDatastore(t)
	ds.now = func() time.Time { return time.Unix(1663251122, 0) }
	require.NoError(t, ds.SaveTemporaryBackup())

	require.NoError(t, ds.ArchiveTemporaryBackup())
	assert.False(t, exists(ds.paths.TmpDir()))
	assert.True(t, exists(filepath.Join(ds.paths.ArchiveDir(), "tmp_1663251122")))
}

func TestArchiveTemporaryBackup_SameSecondDoesNotCollide(t *testing.T) {
	ds := newTestDatastore(t)
	ds.now = func() time.Time { return time.Unix(1663251122, 0) }

	require.NoError(t, ds.SaveTemporaryBackup())
	require.NoError(t, ds.ArchiveTemporaryBackup())
	require.NoError(t, ds.SaveTemporaryBackup())
	require.NoError(t, ds.ArchiveTemporaryBackup())

	assert.False(t, exists(ds.paths.TmpDir()))
	assert.True(t, exists(filepath.Join(ds.paths.ArchiveDir(), "tmp_1663251122")))
	assert.True(t, exists(filepath.Join(ds.paths.ArchiveDir(), "tmp_1663251122_1")))
}

func TestArchiveTemporaryBackup_RejectsUnexpectedContents(t *testing.T) {
	ds := newTestDatastore(t)
	require.NoError(t, ds.SaveTemporaryBackup())
	require.NoError(t, os.WriteFile(filepath.Join(ds.paths.TmpDir(), "stray.txt"), []byte("x"), 0644))

	err := ds.ArchiveTemporaryBackup()
	assert.ErrorIs(t, err, ErrLocalStorage)

	err = ds.DeleteTemporaryBackup()
	assert.ErrorIs(t, err, ErrLocalStorage)
}

func TestDeleteTemporaryBackup(t *testing.T) {
	ds := newTestDatastore(t)
	require.NoError(t, ds.SaveTemporaryBackup())

	require.NoError(t, ds.DeleteTemporaryBackup())
	assert.False(t, exists(ds.paths.TmpDir()))
}

func TestArchiveDraftVersion(t *testing.T) {
	ds := newTestDatastore(t)
	ds.now = func() time.Time { return time.Unix(1663251122, 0) }

	require.NoError(t, ds.ArchiveDraftVersion())
	archived := filepath.Join(ds.paths.ArchiveDir(), "draft_version_1663251122.json")
	require.True(t, exists(archived))

	original, err := os.ReadFile(ds.paths.DraftVersionFile())
	require.NoError(t, err)
	copied, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, original, copied)
}

func TestArchiveDraftVersion_SameSecondDoesNotCollide(t *testing.T) {
	ds := newTestDatastore(t)
	ds.now = func() time.Time { return time.Unix(1663251122, 0) }

	require.NoError(t, ds.ArchiveDraftVersion())
	require.NoError(t, ds.AddDraft(models.DataStructureUpdate{
		Name: "income", Operation: models.OperationAdd, ReleaseStatus: models.StatusDraft,
	}))
	require.NoError(t, ds.ArchiveDraftVersion())

	first, err := os.ReadFile(filepath.Join(ds.paths.ArchiveDir(), "draft_version_1663251122.json"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(ds.paths.ArchiveDir(), "draft_version_1663251122_1.json"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
