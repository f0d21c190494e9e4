package core

import (
	"context"
	"fmt"
	"time"

	"github.com/solhaug/microstore/internal/models"
)

// BumpVersion publishes all pending draft ledger entries as one new
// datastore version. The transaction snapshots the ledger files first,
// validates the caller's manifesto against the live ledger, and on any
// failure after that restores the snapshot and undoes the artifact renames
// it had already performed.
func (e *Engine) BumpVersion(ctx context.Context, job *models.Job) error {
	e.reportInitiated(ctx, job)

	manifesto := job.Parameters.BumpManifesto
	if manifesto == nil {
		e.reportFailed(ctx, job, "bump job carries no manifesto")
		return nil
	}

	// Step 1: snapshot the three ledger files.
	if err := e.ds.SaveTemporaryBackup(); err != nil {
		e.logger.Error("could not snapshot ledgers", "job_id", job.ID, "error", err)
		e.reportFailed(ctx, job, genericFailure)
		return nil
	}

	// Step 2: optimistic-concurrency check. Nothing has been mutated, so a
	// stale manifesto needs no rollback; the snapshot is archived as is.
	if !e.ds.ValidateBumpManifesto(manifesto) {
		e.reportFailed(ctx, job, "bump manifesto is out of date with the draft ledger")
		if err := e.ds.ArchiveTemporaryBackup(); err != nil {
			return fmt.Errorf("archive backup after stale manifesto: %w", err)
		}
		return nil
	}

	if err := e.runBump(manifesto, job.Parameters.Description); err != nil {
		if rbErr := e.RollbackBump(manifesto); rbErr != nil {
			return fmt.Errorf("rollback of failed bump: %w", rbErr)
		}
		e.logger.Error("bump failed and was rolled back", "job_id", job.ID, "error", err)
		e.reportFailed(ctx, job, failureLog(err))
		return nil
	}

	e.reportCompleted(ctx, job, "")
	if err := e.ds.ArchiveTemporaryBackup(); err != nil {
		return fmt.Errorf("archive backup after bump: %w", err)
	}
	return nil
}

// runBump performs steps 3 through 9 of the bump transaction. Any error
// leaves partial progress behind for RollbackBump to undo.
func (e *Engine) runBump(manifesto *models.BumpManifesto, description string) error {
	ds := e.ds
	paths := ds.Paths()

	// Step 3: archive the approved draft ledger for the audit trail.
	if err := ds.ArchiveDraftVersion(); err != nil {
		return err
	}

	// Snapshot the draft aggregate before it is rebuilt; kept entries pull
	// their metadata from here in step 9.
	previousDraftMeta := ds.DraftMetadata()
	previousVersion, everReleased := ds.LatestVersionNumber()

	// Step 4: split the ledger. The first release is always MAJOR no
	// matter what the ledger derived.
	released, updateType, err := ds.ReleasePending()
	if err != nil {
		return err
	}
	if !everReleased {
		updateType = models.UpdateMajor
	}

	target := models.FirstVersion
	if everReleased {
		target, err = previousVersion.Bump(updateType)
		if err != nil {
			return err
		}
	}

	// Determine artifact forms before renaming anything.
	partitioned := map[string]bool{}
	for _, u := range released {
		if u.Operation == models.OperationAdd || u.Operation == models.OperationChange {
			partitioned[u.Name] = fileExists(paths.DraftDataDir(u.Name))
		}
	}

	// Step 5: append the immutable version to the release history.
	version := models.DatastoreVersion{
		Version:              target.String(),
		Description:          description,
		ReleaseTime:          time.Now().Unix(),
		LanguageCode:         ds.Info().LanguageCode,
		UpdateType:           updateType,
		DataStructureUpdates: terminalUpdates(released),
	}
	if err := ds.AppendVersion(version); err != nil {
		return err
	}

	// Step 6: fold the released entries into the new consolidated metadata
	// and the new data-file manifest, and rename the data artifacts.
	consolidated := models.MetadataAll{
		DataStore:      ds.Info(),
		DataStructures: []models.Metadata{},
	}
	if prev := ds.ReleasedMetadata(); prev != nil {
		consolidated.DataStructures = prev.DataStructures
	}

	manifest := map[string]string{}
	if everReleased {
		manifest, err = ds.ReadDataVersions(previousVersion)
		if err != nil {
			return err
		}
	}

	for _, u := range released {
		switch u.Operation {
		case models.OperationRemove:
			consolidated.Remove(u.Name)
			delete(manifest, u.Name)
		case models.OperationPatchMetadata, models.OperationChange, models.OperationAdd:
			meta, ok := previousDraftMeta.Get(u.Name)
			if !ok {
				return fmt.Errorf("no draft metadata for released dataset %s: %w", u.Name, errInconsistentDraft)
			}
			consolidated.Upsert(meta)
			if u.Operation != models.OperationPatchMetadata {
				manifest[u.Name] = paths.VersionedDataName(u.Name, target, partitioned[u.Name])
			}
		}
	}

	plan := buildBumpPlan(paths, released, target, updateType)
	if err := plan.execute(); err != nil {
		return err
	}

	// Step 7: PATCH releases reuse the previous major.minor manifest
	// unmodified; only metadata changed.
	if updateType == models.UpdateMajor || updateType == models.UpdateMinor {
		if err := ds.WriteDataVersions(target, manifest); err != nil {
			return err
		}
	}

	// Step 8: persist the consolidated metadata for the new version.
	if err := ds.WriteMetadataAll(target, consolidated); err != nil {
		return err
	}

	// Step 9: rebuild the draft ledger and aggregate on the new baseline.
	kept := ds.Draft().DataStructureUpdates
	if err := ds.ResetDraftAfterBump(kept); err != nil {
		return err
	}

	draftMeta := models.MetadataAll{
		DataStore:      ds.Info(),
		DataStructures: append([]models.Metadata(nil), consolidated.DataStructures...),
	}
	for _, u := range kept {
		meta, ok := previousDraftMeta.Get(u.Name)
		if !ok {
			return fmt.Errorf(
				"draft entry %s has no metadata in the previous draft aggregate: %w",
				u.Name, errInconsistentDraft)
		}
		draftMeta.Upsert(meta)
	}
	return ds.RebuildDraftMetadata(draftMeta)
}

// terminalUpdates copies the released entries with their terminal statuses:
// removals become DELETED, everything else RELEASED.
func terminalUpdates(released []models.DataStructureUpdate) []models.DataStructureUpdate {
	terminal := make([]models.DataStructureUpdate, len(released))
	for i, u := range released {
		terminal[i] = u
		if u.Operation == models.OperationRemove {
			terminal[i].ReleaseStatus = models.StatusDeleted
		} else {
			terminal[i].ReleaseStatus = models.StatusReleased
		}
	}
	return terminal
}
