package datastore

import (
	"fmt"
	"path/filepath"

	"github.com/solhaug/microstore/internal/models"
)

const (
	draftVersionFile      = "draft_version.json"
	datastoreVersionsFile = "datastore_versions.json"
	metadataAllDraftFile  = "metadata_all__DRAFT.json"
	tmpDirName            = "tmp"
	archiveDirName        = "archive"
	draftSuffix           = "DRAFT"
)

// Paths derives every file location under a datastore root. Both the
// forward bump path and the rollback path construct names through this type
// so the two can never disagree.
type Paths struct {
	root string
}

// NewPaths creates a Paths rooted at the given datastore directory.
func NewPaths(root string) Paths {
	return Paths{root: root}
}

// Root returns the datastore root directory.
func (p Paths) Root() string { return p.root }

// DatastoreDir returns the directory holding the ledger files.
func (p Paths) DatastoreDir() string { return filepath.Join(p.root, "datastore") }

// DataDir returns the directory holding per-dataset data artifacts.
func (p Paths) DataDir() string { return filepath.Join(p.root, "data") }

// DraftVersionFile returns the draft ledger file path.
func (p Paths) DraftVersionFile() string {
	return filepath.Join(p.DatastoreDir(), draftVersionFile)
}

// DatastoreVersionsFile returns the release history ledger file path.
func (p Paths) DatastoreVersionsFile() string {
	return filepath.Join(p.DatastoreDir(), datastoreVersionsFile)
}

// MetadataAllDraftFile returns the draft metadata aggregate file path.
func (p Paths) MetadataAllDraftFile() string {
	return filepath.Join(p.DatastoreDir(), metadataAllDraftFile)
}

// MetadataAllFile returns the consolidated metadata file for a version.
func (p Paths) MetadataAllFile(v models.Version) string {
	return filepath.Join(p.DatastoreDir(), fmt.Sprintf("metadata_all__%s.json", v.FileSuffix3()))
}

// DataVersionsFile returns the data-file manifest for a major.minor line.
func (p Paths) DataVersionsFile(v models.Version) string {
	return filepath.Join(p.DatastoreDir(), fmt.Sprintf("data_versions__%s.json", v.FileSuffix2()))
}

// TmpDir returns the transient backup staging directory.
func (p Paths) TmpDir() string {
	return filepath.Join(p.DatastoreDir(), tmpDirName)
}

// ArchiveDir returns the archive directory.
func (p Paths) ArchiveDir() string {
	return filepath.Join(p.DatastoreDir(), archiveDirName)
}

// DatasetDir returns the artifact directory for one dataset.
func (p Paths) DatasetDir(name string) string {
	return filepath.Join(p.DataDir(), name)
}

// DraftDataFile returns the single-file draft data artifact for a dataset.
func (p Paths) DraftDataFile(name string) string {
	return filepath.Join(p.DatasetDir(name), fmt.Sprintf("%s__%s.parquet", name, draftSuffix))
}

// DraftDataDir returns the partitioned draft data artifact for a dataset.
func (p Paths) DraftDataDir(name string) string {
	return filepath.Join(p.DatasetDir(name), fmt.Sprintf("%s__%s", name, draftSuffix))
}

// VersionedDataFile returns the version-stamped single-file artifact.
func (p Paths) VersionedDataFile(name string, v models.Version) string {
	return filepath.Join(p.DatasetDir(name), fmt.Sprintf("%s__%s.parquet", name, v.FileSuffix2()))
}

// VersionedDataDir returns the version-stamped partitioned artifact.
func (p Paths) VersionedDataDir(name string, v models.Version) string {
	return filepath.Join(p.DatasetDir(name), fmt.Sprintf("%s__%s", name, v.FileSuffix2()))
}

// VersionedDataName returns the manifest entry for a dataset artifact:
// the version-stamped file or directory name without directories.
func (p Paths) VersionedDataName(name string, v models.Version, partitioned bool) string {
	if partitioned {
		return fmt.Sprintf("%s__%s", name, v.FileSuffix2())
	}
	return fmt.Sprintf("%s__%s.parquet", name, v.FileSuffix2())
}

// ledgerFiles returns the three ledger file names covered by backups.
func ledgerFiles() []string {
	return []string{draftVersionFile, metadataAllDraftFile, datastoreVersionsFile}
}
