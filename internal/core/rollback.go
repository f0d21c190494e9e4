package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/solhaug/microstore/internal/datastore"
	"github.com/solhaug/microstore/internal/models"
)

// errInconsistentDraft signals a data-consistency bug upstream: a draft
// ledger entry without corresponding draft metadata.
var errInconsistentDraft = fmt.Errorf("draft ledger and draft metadata are inconsistent: %w", datastore.ErrBumpRejected)

// RollbackBump brings the datastore back to its pre-bump state after a bump
// failed partway through file mutation: the three ledger files are restored
// from the temporary backup, and every file the in-progress bump would have
// created or renamed for its target version is deleted or renamed back.
// Each step is guarded by an existence check, so a rollback can safely be
// re-run over partial progress.
func (e *Engine) RollbackBump(manifesto *models.BumpManifesto) error {
	restored, err := e.ds.RestoreFromTemporaryBackup()
	if err != nil {
		return fmt.Errorf("restore ledgers: %w", err)
	}
	if err := removeEmptyDir(e.ds.Paths().TmpDir()); err != nil {
		return fmt.Errorf("remove emptied backup directory: %w", err)
	}
	if manifesto == nil {
		return nil
	}

	updateType := manifesto.UpdateType
	if updateType == models.UpdateNone {
		updateType = models.DeriveUpdateType(manifesto.DataStructureUpdates)
	}

	// A manifesto with no pending entries fails the ledger split before any
	// artifact is touched. Restoring the ledgers is the whole rollback.
	if len(manifesto.Pending()) == 0 {
		return nil
	}

	// The failed bump's target: the restored latest version bumped by the
	// manifesto's update type, or the first version if the restored history
	// was empty (the failed bump was the first ever, which forces MAJOR).
	target := models.FirstVersion
	if restored != nil {
		if updateType == models.UpdateNone {
			return fmt.Errorf("manifesto has no update type, cannot derive bump target")
		}
		target, err = restored.Bump(updateType)
		if err != nil {
			return err
		}
	} else {
		updateType = models.UpdateMajor
	}

	plan := buildBumpPlan(e.ds.Paths(), manifesto.Pending(), target, updateType)
	if err := plan.undo(); err != nil {
		return fmt.Errorf("undo bump to %s: %w", target.SemVer3(), err)
	}
	return nil
}

// FixInterruptedJob repairs the filesystem after a job's process died
// without reaching a terminal status, and reports the job failed. Recovery
// never retries the interrupted work: it resolves to a clean FAILED state
// and a consistent filesystem, and a fresh job must be submitted.
func (e *Engine) FixInterruptedJob(ctx context.Context, job *models.Job) error {
	e.logger.Warn("repairing interrupted job",
		"job_id", job.ID, "operation", string(job.Operation), "status", string(job.Status))

	switch job.Operation {
	case models.OperationBump:
		if fileExists(e.ds.Paths().TmpDir()) {
			if err := e.RollbackBump(job.Parameters.BumpManifesto); err != nil {
				return fmt.Errorf("rollback interrupted bump %s: %w", job.ID, err)
			}
		}
		e.reportFailed(ctx, job, interruptedFailure)

	case models.OperationAdd, models.OperationChange, models.OperationPatchMetadata:
		// Interrupted during the engine phase: restore the ledger snapshot.
		if fileExists(e.ds.Paths().TmpDir()) {
			if _, err := e.ds.RestoreFromTemporaryBackup(); err != nil {
				return fmt.Errorf("restore ledgers for interrupted %s: %w", job.ID, err)
			}
			if err := removeEmptyDir(e.ds.Paths().TmpDir()); err != nil {
				return fmt.Errorf("remove emptied backup directory: %w", err)
			}
		}
		// Interrupted during the worker phase: discard partial artifacts.
		e.cleanWorkingArtifacts(job.Dataset())
		e.reportFailed(ctx, job, interruptedFailure)

	default:
		// Remaining operations mutate nothing, or only through single
		// atomic writes; no file cleanup is needed.
		e.reportFailed(ctx, job, interruptedFailure)
	}
	return nil
}

// cleanWorkingArtifacts deletes any partially written working-directory
// artifacts for a dataset: metadata document, data file, and partition
// directory.
func (e *Engine) cleanWorkingArtifacts(name string) {
	if name == "" {
		return
	}
	for _, path := range []string{
		filepath.Join(e.opts.WorkingDir, name+"__DRAFT.json"),
		filepath.Join(e.opts.WorkingDir, name+"__DRAFT.parquet"),
		filepath.Join(e.opts.WorkingDir, name+"__DRAFT"),
	} {
		if fileExists(path) {
			if err := os.RemoveAll(path); err != nil {
				e.logger.Error("could not remove partial artifact", "path", path, "error", err)
			}
		}
	}
}
