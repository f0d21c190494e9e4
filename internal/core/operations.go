package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/solhaug/microstore/internal/datastore"
	"github.com/solhaug/microstore/internal/models"
)

// Add adopts a newly imported dataset into the draft area. The dataset must
// be unknown to the datastore, or deleted by a previous release.
func (e *Engine) Add(ctx context.Context, job *models.Job) error {
	return e.importOperation(ctx, job, models.OperationAdd)
}

// Change adopts a full re-import of an already released dataset.
func (e *Engine) Change(ctx context.Context, job *models.Job) error {
	return e.importOperation(ctx, job, models.OperationChange)
}

// importOperation is the shared ADD/CHANGE path: validate the release
// status precondition, move the working-directory artifacts into the draft
// area, update the draft metadata aggregate, and append a DRAFT ledger
// entry.
func (e *Engine) importOperation(ctx context.Context, job *models.Job, op models.JobOperation) error {
	e.reportInitiated(ctx, job)
	name := job.Dataset()

	status := e.ds.ReleaseStatusOf(name)
	if op == models.OperationAdd {
		if status != "" && status != models.StatusDeleted {
			e.reportFailed(ctx, job, fmt.Sprintf(
				"cannot add %s: dataset already exists with status %s", name, status))
			return nil
		}
	} else {
		if status != models.StatusReleased {
			e.reportFailed(ctx, job, fmt.Sprintf(
				"cannot change %s: dataset is not released (status %q)", name, string(status)))
			return nil
		}
	}

	meta, err := e.readWorkingMetadata(name)
	if err != nil {
		e.reportFailed(ctx, job, failureLog(err))
		return nil
	}

	if err := e.ds.SaveTemporaryBackup(); err != nil {
		e.logger.Error("could not snapshot ledgers", "job_id", job.ID, "error", err)
		e.reportFailed(ctx, job, genericFailure)
		return nil
	}

	moved, err := e.adoptDataArtifact(name)
	if err == nil {
		err = e.ds.UpsertDraftMetadata(meta)
	}
	if err == nil {
		err = e.ds.AddDraft(models.DataStructureUpdate{
			Name:          name,
			Description:   job.Parameters.Description,
			Operation:     op,
			ReleaseStatus: models.StatusDraft,
		})
	}
	if err != nil {
		e.returnDataArtifact(name, moved)
		return e.failWithRollback(ctx, job, err)
	}

	e.removeWorkingMetadata(name)
	if err := e.discardBackup(); err != nil {
		return fmt.Errorf("discard backup after %s of %s: %w", op, name, err)
	}
	e.reportCompleted(ctx, job, "")
	return nil
}

// PatchMetadata merges an updated metadata document into the released one
// and stages the result. The dataset must be released; structural changes
// are rejected.
func (e *Engine) PatchMetadata(ctx context.Context, job *models.Job) error {
	e.reportInitiated(ctx, job)
	name := job.Dataset()

	if status := e.ds.ReleaseStatusOf(name); status != models.StatusReleased {
		e.reportFailed(ctx, job, fmt.Sprintf(
			"cannot patch %s: dataset is not released (status %q)", name, string(status)))
		return nil
	}

	released, err := e.ds.GetReleasedMetadata(name)
	if err != nil {
		e.reportFailed(ctx, job, failureLog(err))
		return nil
	}
	patch, err := e.readWorkingMetadata(name)
	if err != nil {
		e.reportFailed(ctx, job, failureLog(err))
		return nil
	}

	merged, err := datastore.PatchMetadata(released, patch)
	if err != nil {
		e.reportFailed(ctx, job, failureLog(err))
		return nil
	}

	if err := e.ds.SaveTemporaryBackup(); err != nil {
		e.logger.Error("could not snapshot ledgers", "job_id", job.ID, "error", err)
		e.reportFailed(ctx, job, genericFailure)
		return nil
	}

	err = e.ds.UpsertDraftMetadata(merged)
	if err == nil {
		err = e.ds.AddDraft(models.DataStructureUpdate{
			Name:          name,
			Description:   job.Parameters.Description,
			Operation:     models.OperationPatchMetadata,
			ReleaseStatus: models.StatusDraft,
		})
	}
	if err != nil {
		return e.failWithRollback(ctx, job, err)
	}

	e.removeWorkingMetadata(name)
	if err := e.discardBackup(); err != nil {
		return fmt.Errorf("discard backup after patch of %s: %w", name, err)
	}
	e.reportCompleted(ctx, job, "")
	return nil
}

// Remove stages the removal of a released dataset. Removal entries start in
// PENDING_DELETE directly: no further data needs to arrive for them. A
// dataset already drafted for removal short-circuits to a completed no-op.
func (e *Engine) Remove(ctx context.Context, job *models.Job) error {
	e.reportInitiated(ctx, job)
	name := job.Dataset()

	if entry, ok := e.ds.Draft().Get(name); ok {
		if entry.Operation == models.OperationRemove {
			e.reportCompleted(ctx, job, fmt.Sprintf("%s is already staged for removal", name))
			return nil
		}
		e.reportFailed(ctx, job, fmt.Sprintf(
			"cannot remove %s: a draft with operation %s exists", name, entry.Operation))
		return nil
	}

	if status := e.ds.ReleaseStatusOf(name); status != models.StatusReleased {
		e.reportFailed(ctx, job, fmt.Sprintf(
			"cannot remove %s: dataset is not released (status %q)", name, string(status)))
		return nil
	}

	if err := e.ds.SaveTemporaryBackup(); err != nil {
		e.logger.Error("could not snapshot ledgers", "job_id", job.ID, "error", err)
		e.reportFailed(ctx, job, genericFailure)
		return nil
	}

	err := e.ds.RemoveDraftMetadata(name)
	if err == nil {
		err = e.ds.AddDraft(models.DataStructureUpdate{
			Name:          name,
			Description:   job.Parameters.Description,
			Operation:     models.OperationRemove,
			ReleaseStatus: models.StatusPendingDelete,
		})
	}
	if err != nil {
		return e.failWithRollback(ctx, job, err)
	}

	if err := e.discardBackup(); err != nil {
		return fmt.Errorf("discard backup after remove of %s: %w", name, err)
	}
	e.reportCompleted(ctx, job, "")
	return nil
}

// DeleteDraft reverses an in-flight draft entry: released metadata is
// restored into the draft aggregate, draft data artifacts are deleted, and
// the ledger entry is removed last. Un-queuing a REMOVE must be requested
// explicitly with the rollback-remove flag.
func (e *Engine) DeleteDraft(ctx context.Context, job *models.Job) error {
	e.reportInitiated(ctx, job)
	name := job.Dataset()
	rollbackRemove := job.Parameters.RollbackRemove || job.Operation == models.OperationRollbackRemove

	entry, ok := e.ds.Draft().Get(name)
	if !ok {
		e.reportFailed(ctx, job, fmt.Sprintf("no draft entry for %s", name))
		return nil
	}
	if rollbackRemove && entry.Operation != models.OperationRemove {
		e.reportFailed(ctx, job, fmt.Sprintf(
			"rollback remove is only valid for REMOVE drafts, %s has operation %s", name, entry.Operation))
		return nil
	}
	if !rollbackRemove && entry.Operation == models.OperationRemove {
		e.reportFailed(ctx, job, fmt.Sprintf(
			"draft of %s stages a removal, use rollback remove to undo it", name))
		return nil
	}

	if err := e.ds.SaveTemporaryBackup(); err != nil {
		e.logger.Error("could not snapshot ledgers", "job_id", job.ID, "error", err)
		e.reportFailed(ctx, job, genericFailure)
		return nil
	}

	var err error
	switch entry.Operation {
	case models.OperationChange, models.OperationPatchMetadata, models.OperationRemove:
		var released models.Metadata
		released, err = e.ds.GetReleasedMetadata(name)
		if err == nil {
			err = e.ds.UpsertDraftMetadata(released)
		}
	case models.OperationAdd:
		err = e.ds.RemoveDraftMetadata(name)
	}

	if err == nil && (entry.Operation == models.OperationAdd || entry.Operation == models.OperationChange) {
		err = e.deleteDraftDataArtifact(name)
	}
	if err == nil {
		_, err = e.ds.DeleteDraft(name)
	}
	if err != nil {
		return e.failWithRollback(ctx, job, err)
	}

	if err := e.discardBackup(); err != nil {
		return fmt.Errorf("discard backup after delete draft of %s: %w", name, err)
	}
	e.reportCompleted(ctx, job, "")
	return nil
}

// SetReleaseStatus is a thin wrapper over the draft ledger's status change.
// A no-op status (the caller retrying an at-least-once job) completes
// successfully with an explanatory log.
func (e *Engine) SetReleaseStatus(ctx context.Context, job *models.Job) error {
	e.reportInitiated(ctx, job)
	name := job.Dataset()
	target := job.Parameters.ReleaseStatus

	err := e.ds.SetDraftReleaseStatus(name, target)
	switch {
	case err == nil:
		e.reportCompleted(ctx, job, "")
	case isUnnecessaryUpdate(err):
		e.reportCompleted(ctx, job, fmt.Sprintf(
			"%s already has release status %s, nothing to do", name, target))
	default:
		e.reportFailed(ctx, job, failureLog(err))
	}
	return nil
}

// DeleteArchivedInput removes an archived input bundle. Not
// version-sensitive.
func (e *Engine) DeleteArchivedInput(ctx context.Context, job *models.Job) error {
	e.reportInitiated(ctx, job)
	if err := e.ds.DeleteArchivedInput(e.opts.InputArchiveDir, job.Dataset()); err != nil {
		e.reportFailed(ctx, job, failureLog(err))
		return nil
	}
	e.reportCompleted(ctx, job, "")
	return nil
}

// readWorkingMetadata reads the metadata document a worker wrote for the
// dataset.
func (e *Engine) readWorkingMetadata(name string) (models.Metadata, error) {
	path := filepath.Join(e.opts.WorkingDir, name+"__DRAFT.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("no working metadata for %s: %w", name, datastore.ErrNotFound)
	}
	var meta models.Metadata
	if err := unmarshalMetadata(data, &meta); err != nil {
		return models.Metadata{}, fmt.Errorf("working metadata for %s: %w", name, err)
	}
	return meta, nil
}

func (e *Engine) removeWorkingMetadata(name string) {
	os.Remove(filepath.Join(e.opts.WorkingDir, name+"__DRAFT.json"))
}

// adoptDataArtifact moves the dataset's working data artifact (single file
// or partitioned directory) into the datastore's draft area. Returns the
// working path that was moved so a failure can move it back.
func (e *Engine) adoptDataArtifact(name string) (string, error) {
	paths := e.ds.Paths()
	if err := os.MkdirAll(paths.DatasetDir(name), 0755); err != nil {
		return "", fmt.Errorf("create dataset directory for %s: %w", name, err)
	}

	workingFile := filepath.Join(e.opts.WorkingDir, name+"__DRAFT.parquet")
	if fileExists(workingFile) {
		if err := os.Rename(workingFile, paths.DraftDataFile(name)); err != nil {
			return "", fmt.Errorf("adopt data file for %s: %w", name, err)
		}
		return workingFile, nil
	}

	workingDir := filepath.Join(e.opts.WorkingDir, name+"__DRAFT")
	if fileExists(workingDir) {
		if err := os.Rename(workingDir, paths.DraftDataDir(name)); err != nil {
			return "", fmt.Errorf("adopt partitioned data for %s: %w", name, err)
		}
		return workingDir, nil
	}

	return "", fmt.Errorf("no working data artifact for %s: %w", name, datastore.ErrNotFound)
}

// returnDataArtifact moves an adopted artifact back to the working
// directory during failure handling. Guarded by existence checks so it is
// safe whether or not the adoption happened.
func (e *Engine) returnDataArtifact(name, workingPath string) {
	if workingPath == "" {
		return
	}
	paths := e.ds.Paths()
	for _, src := range []string{paths.DraftDataFile(name), paths.DraftDataDir(name)} {
		if fileExists(src) {
			if err := os.Rename(src, workingPath); err != nil {
				e.logger.Error("could not return data artifact", "dataset", name, "error", err)
			}
			return
		}
	}
}

// deleteDraftDataArtifact removes the dataset's draft data artifact,
// whichever form it has.
func (e *Engine) deleteDraftDataArtifact(name string) error {
	paths := e.ds.Paths()
	for _, path := range []string{paths.DraftDataFile(name), paths.DraftDataDir(name)} {
		if fileExists(path) {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("delete draft data for %s: %w", name, err)
			}
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
