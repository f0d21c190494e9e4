package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/solhaug/microstore/internal/models"
)

// SaveTemporaryBackup copies the three ledger files into the tmp staging
// directory. A pre-existing tmp directory is a leftover from an unclean
// shutdown and fails the call: recovery must run before new work starts.
func (d *Datastore) SaveTemporaryBackup() error {
	tmpDir := d.paths.TmpDir()
	if exists(tmpDir) {
		return fmt.Errorf("backup directory %s already exists, recover first: %w", tmpDir, ErrLocalStorage)
	}
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	for _, name := range ledgerFiles() {
		src := filepath.Join(d.paths.DatastoreDir(), name)
		if err := copyFile(src, filepath.Join(tmpDir, name)); err != nil {
			return fmt.Errorf("backup %s: %w", name, err)
		}
	}
	return nil
}

// RestoreFromTemporaryBackup moves the three ledger files from tmp back to
// their canonical locations, reloads the in-memory aggregate, and returns
// the latest released version recorded in the restored history ledger, or
// nil if the ledger was empty at backup time. Callers use that to tell
// whether the failed bump was the first ever.
func (d *Datastore) RestoreFromTemporaryBackup() (*models.Version, error) {
	tmpDir := d.paths.TmpDir()
	for _, name := range ledgerFiles() {
		if !exists(filepath.Join(tmpDir, name)) {
			return nil, fmt.Errorf("backup is missing %s: %w", name, ErrLocalStorage)
		}
	}

	for _, name := range ledgerFiles() {
		src := filepath.Join(tmpDir, name)
		dst := filepath.Join(d.paths.DatastoreDir(), name)
		if err := os.Rename(src, dst); err != nil {
			return nil, fmt.Errorf("restore %s: %w", name, err)
		}
	}

	if err := d.reloadLedgersOnly(); err != nil {
		return nil, err
	}

	latest, ok := d.versions.LatestNumber()
	if !ok {
		return nil, nil
	}
	return &latest, nil
}

// reloadLedgersOnly re-reads the three ledger files without requiring the
// consolidated metadata of the latest version to exist. During rollback the
// restored history may reference a metadata_all file that the failed bump
// never wrote or already deleted.
func (d *Datastore) reloadLedgersOnly() error {
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
		path := d.paths.MetadataAllFile(latest)
		if exists(path) {
			var released models.MetadataAll
			if err := readJSONFile(path, &released); err != nil {
				return err
			}
			d.released = &released
		}
	}
	return nil
}

// ArchiveTemporaryBackup moves the tmp directory into the archive with a
// timestamp suffix. The success path of a bump keeps the backup as an audit
// copy rather than deleting it.
func (d *Datastore) ArchiveTemporaryBackup() error {
	if err := d.validateTmpContents(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.paths.ArchiveDir(), 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	dst := archivePath(d.paths.ArchiveDir(), fmt.Sprintf("tmp_%d", d.now().Unix()), "")
	if err := os.Rename(d.paths.TmpDir(), dst); err != nil {
		return fmt.Errorf("archive backup: %w", err)
	}
	return nil
}

// archivePath returns a destination under dir that does not exist yet. The
// timestamp in name has second granularity, so a second archive within the
// same second gets a numeric suffix instead of colliding.
func archivePath(dir, name, ext string) string {
	dst := filepath.Join(dir, name+ext)
	for i := 1; exists(dst); i++ {
		dst = filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, i, ext))
	}
	return dst
}

// DeleteTemporaryBackup discards the tmp directory after its contents have
// been verified.
func (d *Datastore) DeleteTemporaryBackup() error {
	if err := d.validateTmpContents(); err != nil {
		return err
	}
	if err := os.RemoveAll(d.paths.TmpDir()); err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}

// validateTmpContents checks that tmp exists and contains exactly the three
// ledger files. Anything else means the directory is not ours to touch.
func (d *Datastore) validateTmpContents() error {
	tmpDir := d.paths.TmpDir()
	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return fmt.Errorf("backup directory %s unreadable: %w", tmpDir, ErrLocalStorage)
	}

	expected := make(map[string]bool, 3)
	for _, name := range ledgerFiles() {
		expected[name] = true
	}
	if len(entries) != len(expected) {
		return fmt.Errorf("backup directory holds %d entries, want %d: %w", len(entries), len(expected), ErrLocalStorage)
	}
	for _, e := range entries {
		if !expected[e.Name()] {
			return fmt.Errorf("unexpected file %s in backup directory: %w", e.Name(), ErrLocalStorage)
		}
	}
	return nil
}

// ArchiveDraftVersion copies the current draft ledger file into the archive
// with a timestamp suffix, as an audit trail of what was approved.
func (d *Datastore) ArchiveDraftVersion() error {
	if err := os.MkdirAll(d.paths.ArchiveDir(), 0755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}
	dst := archivePath(d.paths.ArchiveDir(), fmt.Sprintf("draft_version_%d", d.now().Unix()), ".json")
	if err := copyFile(d.paths.DraftVersionFile(), dst); err != nil {
		return fmt.Errorf("archive draft version: %w", err)
	}
	return nil
}
