// Package datastore implements the versioned, file-backed datastore: the
// draft version ledger, the release history ledger, the consolidated
// metadata documents, and the backup/restore machinery underneath a bump.
//
// The three JSON ledger files are the durable source of truth. A Datastore
// is an in-memory aggregate over them: constructed by reading all three,
// mutated through methods that each validate, update memory, and persist
// synchronously before returning. A single process owns a datastore root;
// there is no file locking.
package datastore

import (
	"fmt"
	"os"
	"time"

	"github.com/solhaug/microstore/internal/models"
)

// Datastore is the aggregate root over one datastore directory.
type Datastore struct {
	paths         Paths
	draft         models.DraftVersion
	versions      models.DatastoreVersions
	draftMetadata models.MetadataAll
	released      *models.MetadataAll
	now           func() time.Time
}

// Open reads the three ledger files under root and builds the aggregate.
// If at least one version has been released, the latest consolidated
// metadata document is loaded as well.
func Open(root string) (*Datastore, error) {
	ds := &Datastore{
		paths: NewPaths(root),
		now:   time.Now,
	}
	if err := ds.reload(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Init creates a fresh, empty datastore under root: the three ledger files
// and the archive directory. Fails if a draft ledger already exists.
func Init(root string, info models.DatastoreInfo) (*Datastore, error) {
	paths := NewPaths(root)
	if exists(paths.DraftVersionFile()) {
		return nil, fmt.Errorf("datastore already initialized at %s", root)
	}

	for _, dir := range []string{paths.DatastoreDir(), paths.DataDir(), paths.ArchiveDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	ds := &Datastore{
		paths: NewPaths(root),
		now:   time.Now,
	}
	ds.versions = models.DatastoreVersions{
		Name:         info.Name,
		Label:        info.Label,
		Description:  info.Description,
		LanguageCode: info.LanguageCode,
		Versions:     []models.DatastoreVersion{},
	}
	ds.draftMetadata = models.MetadataAll{
		DataStore:      info,
		Version:        "0.0.0.0",
		DataStructures: []models.Metadata{},
	}
	ds.draft = ds.emptyDraft("")

	if err := ds.persistVersions(); err != nil {
		return nil, err
	}
	if err := ds.persistDraftMetadata(); err != nil {
		return nil, err
	}
	if err := ds.persistDraft(); err != nil {
		return nil, err
	}
	return ds, nil
}

// reload re-reads all persisted state from disk, discarding the in-memory
// aggregate. Used at construction and after a backup restore.
func (d *Datastore) reload() error {
	if err := readJSONFile(d.paths.DraftVersionFile(), &d.draft); err != nil {
		return err
	}
	if err := readJSONFile(d.paths.DatastoreVersionsFile(), &d.versions); err != nil {
		return err
	}
	if err := readJSONFile(d.paths.MetadataAllDraftFile(), &d.draftMetadata); err != nil {
		return err
	}

	d.released = nil
	if latest, ok := d.versions.LatestNumber(); ok {
		var released models.MetadataAll
		if err := readJSONFile(d.paths.MetadataAllFile(latest), &released); err != nil {
			return err
		}
		d.released = &released
	}
	return nil
}

// Paths returns the path layout of this datastore.
func (d *Datastore) Paths() Paths { return d.paths }

// Info returns the datastore's identity fields.
func (d *Datastore) Info() models.DatastoreInfo {
	return models.DatastoreInfo{
		Name:         d.versions.Name,
		Label:        d.versions.Label,
		Description:  d.versions.Description,
		LanguageCode: d.versions.LanguageCode,
	}
}

// Draft returns a copy of the draft ledger.
func (d *Datastore) Draft() models.DraftVersion {
	draft := d.draft
	draft.DataStructureUpdates = append([]models.DataStructureUpdate(nil), d.draft.DataStructureUpdates...)
	return draft
}

// Versions returns a copy of the release history ledger.
func (d *Datastore) Versions() models.DatastoreVersions {
	versions := d.versions
	versions.Versions = append([]models.DatastoreVersion(nil), d.versions.Versions...)
	return versions
}

// LatestVersionNumber returns the number of the most recent release, or
// ok=false if nothing has ever been released.
func (d *Datastore) LatestVersionNumber() (models.Version, bool) {
	return d.versions.LatestNumber()
}

// ReleaseStatusOf returns the dataset's current release status: the draft
// ledger entry's status if one exists, otherwise the terminal status from
// the most recent release that touched the dataset, otherwise empty.
func (d *Datastore) ReleaseStatusOf(name string) models.ReleaseStatus {
	if entry, ok := d.draft.Get(name); ok {
		return entry.ReleaseStatus
	}
	for _, v := range d.versions.Versions {
		for _, u := range v.DataStructureUpdates {
			if u.Name == name {
				return u.ReleaseStatus
			}
		}
	}
	return ""
}

// emptyDraft builds a fresh draft ledger on top of the latest released
// version. Release times are recorded in seconds since epoch.
func (d *Datastore) emptyDraft(description string) models.DraftVersion {
	releaseTime := d.now().Unix()
	base := models.Version{}
	if latest, ok := d.versions.LatestNumber(); ok {
		base = latest
	}
	if description == "" {
		description = "Draft"
	}
	return models.DraftVersion{
		Version:              base.WithTimestamp(releaseTime).String(),
		Description:          description,
		ReleaseTime:          releaseTime,
		LanguageCode:         d.versions.LanguageCode,
		UpdateType:           models.UpdateNone,
		DataStructureUpdates: []models.DataStructureUpdate{},
	}
}

// persistDraft refreshes the draft's derived fields and writes the draft
// ledger file.
func (d *Datastore) persistDraft() error {
	releaseTime := d.now().Unix()
	base := models.Version{}
	if latest, ok := d.versions.LatestNumber(); ok {
		base = latest
	}
	d.draft.ReleaseTime = releaseTime
	d.draft.Version = base.WithTimestamp(releaseTime).String()
	d.draft.UpdateType = models.DeriveUpdateType(d.draft.DataStructureUpdates)
	return writeJSONFile(d.paths.DraftVersionFile(), &d.draft)
}

// persistVersions writes the release history ledger file.
func (d *Datastore) persistVersions() error {
	return writeJSONFile(d.paths.DatastoreVersionsFile(), &d.versions)
}

// persistDraftMetadata writes the draft metadata aggregate file.
func (d *Datastore) persistDraftMetadata() error {
	return writeJSONFile(d.paths.MetadataAllDraftFile(), &d.draftMetadata)
}
