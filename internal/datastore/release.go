package datastore

import (
	"fmt"
	"os"

	"github.com/solhaug/microstore/internal/models"
)

// ReadDataVersions reads the data-file manifest for a major.minor line:
// dataset name to current data artifact name. A missing manifest (nothing
// released on that line yet) reads as empty.
func (d *Datastore) ReadDataVersions(v models.Version) (map[string]string, error) {
	path := d.paths.DataVersionsFile(v)
	if !exists(path) {
		return map[string]string{}, nil
	}
	manifest := map[string]string{}
	if err := readJSONFile(path, &manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// WriteDataVersions writes the data-file manifest for a major.minor line.
// Bump-engine primitive.
func (d *Datastore) WriteDataVersions(v models.Version, manifest map[string]string) error {
	return writeJSONFile(d.paths.DataVersionsFile(v), manifest)
}

// WriteMetadataAll persists a consolidated metadata document for a version
// and installs it as the latest released metadata. Bump-engine primitive.
func (d *Datastore) WriteMetadataAll(v models.Version, meta models.MetadataAll) error {
	meta.Version = v.SemVer3()
	if err := writeJSONFile(d.paths.MetadataAllFile(v), &meta); err != nil {
		return err
	}
	d.released = &meta
	return nil
}

// RebuildDraftMetadata replaces the draft metadata aggregate. Bump-engine
// primitive, used in step nine of the bump transaction.
func (d *Datastore) RebuildDraftMetadata(meta models.MetadataAll) error {
	meta.Version = "0.0.0.0"
	d.draftMetadata = meta
	return d.persistDraftMetadata()
}

// DeleteArchivedInput removes an archived input artifact for a dataset.
// Not version-sensitive; missing artifacts are an error.
func (d *Datastore) DeleteArchivedInput(archiveDir, dataset string) error {
	removed := false
	for _, candidate := range []string{
		dataset + ".tar",
		dataset + ".tar.gz",
		dataset,
	} {
		path := archiveDir + string(os.PathSeparator) + candidate
		if exists(path) {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("delete archived input %s: %w", candidate, err)
			}
			removed = true
		}
	}
	if !removed {
		return fmt.Errorf("no archived input for %s: %w", dataset, ErrNotFound)
	}
	return nil
}
