// Package core implements the bump/release engine: the per-job entry points
// that mutate the datastore, the bump transaction itself, and the rollback
// paths that bring the filesystem back to a consistent state after a
// failure at any point.
//
// Every entry point is driven by one job and reports the job's status as an
// observable side effect. Domain failures resolve to a terminal FAILED
// status; only a failure during rollback itself is returned to the caller,
// which must stop processing because the on-disk state is then of unknown
// consistency.
package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/solhaug/microstore/internal/datastore"
	"github.com/solhaug/microstore/internal/models"
)

// genericFailure is the log message for unexpected errors. Internal detail
// is not leaked for those; expected domain errors report their own message.
const genericFailure = "technical error occurred during processing"

// interruptedFailure is the log message for jobs whose process died.
const interruptedFailure = "job was interrupted and has been terminated"

// StatusReporter reports job progress back to the job queue service.
type StatusReporter interface {
	UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, log string) error
}

// Options configures the directories outside the datastore root that the
// engine touches.
type Options struct {
	// WorkingDir is where worker processes deposit validated artifacts
	// before the engine adopts them into the datastore's draft area.
	WorkingDir string
	// InputArchiveDir holds archived input bundles.
	InputArchiveDir string
}

// Engine executes versioning operations against one datastore. All methods
// are single-threaded by ownership: one coordinating process per datastore
// root, no internal concurrency.
type Engine struct {
	ds       *datastore.Datastore
	reporter StatusReporter
	logger   *slog.Logger
	opts     Options
}

// NewEngine creates an engine over the given datastore.
func NewEngine(ds *datastore.Datastore, reporter StatusReporter, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{ds: ds, reporter: reporter, logger: logger, opts: opts}
}

// Datastore returns the engine's datastore aggregate.
func (e *Engine) Datastore() *datastore.Datastore { return e.ds }

// HandleJob dispatches a job to its operation's entry point.
func (e *Engine) HandleJob(ctx context.Context, job *models.Job) error {
	switch job.Operation {
	case models.OperationAdd:
		return e.Add(ctx, job)
	case models.OperationChange:
		return e.Change(ctx, job)
	case models.OperationPatchMetadata:
		return e.PatchMetadata(ctx, job)
	case models.OperationRemove:
		return e.Remove(ctx, job)
	case models.OperationDeleteDraft, models.OperationRollbackRemove:
		return e.DeleteDraft(ctx, job)
	case models.OperationSetStatus:
		return e.SetReleaseStatus(ctx, job)
	case models.OperationBump:
		return e.BumpVersion(ctx, job)
	case models.OperationDeleteArchive:
		return e.DeleteArchivedInput(ctx, job)
	default:
		e.reportFailed(ctx, job, fmt.Sprintf("unknown operation %s", job.Operation))
		return nil
	}
}

// report sends a job status update, logging but not propagating reporting
// failures: an unreachable job queue must not corrupt a finished operation.
func (e *Engine) report(ctx context.Context, job *models.Job, status models.JobStatus, log string) {
	if err := e.reporter.UpdateJobStatus(ctx, job.ID, status, log); err != nil {
		e.logger.Error("failed to report job status",
			"job_id", job.ID, "status", string(status), "error", err)
	}
}

func (e *Engine) reportInitiated(ctx context.Context, job *models.Job) {
	e.report(ctx, job, models.JobInitiated, "")
}

func (e *Engine) reportCompleted(ctx context.Context, job *models.Job, log string) {
	e.report(ctx, job, models.JobCompleted, log)
}

// reportFailed reports a terminal failure with the given log message.
func (e *Engine) reportFailed(ctx context.Context, job *models.Job, log string) {
	e.report(ctx, job, models.JobFailed, log)
}

// failureLog maps an error to the job's failure log: expected domain
// violations carry their specific message, anything else a generic one.
func failureLog(err error) string {
	for _, domain := range []error{
		datastore.ErrExistingDraft,
		datastore.ErrNoSuchDraft,
		datastore.ErrIllegalStatusChange,
		datastore.ErrReleaseStatus,
		datastore.ErrBumpRejected,
		datastore.ErrPatchConflict,
		datastore.ErrNotFound,
	} {
		if errors.Is(err, domain) {
			return err.Error()
		}
	}
	return genericFailure
}

// failWithRollback restores the ledger files from the temporary backup and
// reports the job failed. An error from the restore itself is fatal and
// propagated: the coordinating loop must stop.
func (e *Engine) failWithRollback(ctx context.Context, job *models.Job, opErr error) error {
	e.logger.Error("operation failed, rolling back",
		"job_id", job.ID, "operation", string(job.Operation), "error", opErr)

	if _, err := e.ds.RestoreFromTemporaryBackup(); err != nil {
		return fmt.Errorf("rollback after failed %s: %w", job.Operation, err)
	}
	if err := removeEmptyDir(e.ds.Paths().TmpDir()); err != nil {
		return fmt.Errorf("rollback after failed %s: %w", job.Operation, err)
	}

	e.reportFailed(ctx, job, failureLog(opErr))
	return nil
}

// discardBackup removes the temporary backup on the success path of a
// per-dataset operation. Bumps archive theirs instead.
func (e *Engine) discardBackup() error {
	return e.ds.DeleteTemporaryBackup()
}

// removeEmptyDir removes a directory that should be empty after a restore.
func removeEmptyDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

func isUnnecessaryUpdate(err error) bool {
	return errors.Is(err, datastore.ErrUnnecessaryUpdate)
}

func unmarshalMetadata(data []byte, meta *models.Metadata) error {
	if err := json.Unmarshal(data, meta); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}
	if meta.Name == "" {
		return fmt.Errorf("metadata is missing a dataset name")
	}
	return nil
}
