package datastore

import (
	"fmt"

	"github.com/solhaug/microstore/internal/models"
)

// DraftMetadata returns a copy of the draft metadata aggregate.
func (d *Datastore) DraftMetadata() models.MetadataAll {
	meta := d.draftMetadata
	meta.DataStructures = append([]models.Metadata(nil), d.draftMetadata.DataStructures...)
	return meta
}

// GetDraftMetadata returns the draft metadata for one dataset.
func (d *Datastore) GetDraftMetadata(name string) (models.Metadata, error) {
	meta, ok := d.draftMetadata.Get(name)
	if !ok {
		return models.Metadata{}, fmt.Errorf("no draft metadata for %s: %w", name, ErrNotFound)
	}
	return meta, nil
}

// UpsertDraftMetadata inserts or replaces one dataset's metadata in the
// draft aggregate and persists it.
func (d *Datastore) UpsertDraftMetadata(meta models.Metadata) error {
	d.draftMetadata.Upsert(meta)
	return d.persistDraftMetadata()
}

// RemoveDraftMetadata removes one dataset's metadata from the draft
// aggregate and persists it.
func (d *Datastore) RemoveDraftMetadata(name string) error {
	if !d.draftMetadata.Remove(name) {
		return fmt.Errorf("no draft metadata for %s: %w", name, ErrNotFound)
	}
	return d.persistDraftMetadata()
}

// ReleasedMetadata returns the latest released consolidated metadata, or
// nil if nothing has ever been released.
func (d *Datastore) ReleasedMetadata() *models.MetadataAll {
	if d.released == nil {
		return nil
	}
	meta := *d.released
	meta.DataStructures = append([]models.Metadata(nil), d.released.DataStructures...)
	return &meta
}

// GetReleasedMetadata returns the latest released metadata for one dataset.
func (d *Datastore) GetReleasedMetadata(name string) (models.Metadata, error) {
	if d.released == nil {
		return models.Metadata{}, fmt.Errorf("no released metadata for %s: %w", name, ErrNotFound)
	}
	meta, ok := d.released.Get(name)
	if !ok {
		return models.Metadata{}, fmt.Errorf("no released metadata for %s: %w", name, ErrNotFound)
	}
	return meta, nil
}

// AppendVersion prepends a published version to the release history ledger
// and persists it. The history is append-only at the head. Bump-engine
// primitive; regular callers never append versions directly.
func (d *Datastore) AppendVersion(version models.DatastoreVersion) error {
	d.versions.Versions = append([]models.DatastoreVersion{version}, d.versions.Versions...)
	return d.persistVersions()
}
