package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/solhaug/microstore/internal/audit"
	"github.com/solhaug/microstore/internal/jobqueue"
	"github.com/solhaug/microstore/internal/models"
)

// AuditReporter decorates the job queue client so that every terminal
// status it reports is also recorded in the local audit log. The audit
// entry is written even when the queue is unreachable: the log is the
// coordinator's own record of what it did.
type AuditReporter struct {
	inner  jobqueue.Client
	log    *audit.Log
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*models.Job
}

// NewAuditReporter wraps a queue client with audit recording.
func NewAuditReporter(inner jobqueue.Client, log *audit.Log, logger *slog.Logger) *AuditReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditReporter{
		inner:  inner,
		log:    log,
		logger: logger,
		jobs:   map[string]*models.Job{},
	}
}

// GetJobs fetches jobs and tracks them so terminal reports can be
// attributed to an operation and dataset.
func (r *AuditReporter) GetJobs(ctx context.Context, filter jobqueue.JobFilter) ([]*models.Job, error) {
	jobs, err := r.inner.GetJobs(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	for _, job := range jobs {
		r.jobs[job.ID] = job
	}
	r.mu.Unlock()
	return jobs, nil
}

// UpdateJobStatus forwards the status and appends terminal ones to the
// audit log.
func (r *AuditReporter) UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, log string) error {
	err := r.inner.UpdateJobStatus(ctx, jobID, status, log)

	if status.Terminal() {
		r.mu.Lock()
		job := r.jobs[jobID]
		delete(r.jobs, jobID)
		r.mu.Unlock()

		entry := audit.Entry{
			JobID:      jobID,
			Status:     status,
			Message:    log,
			FinishedAt: time.Now(),
		}
		if job != nil {
			entry.Dataset = job.Dataset()
			entry.Operation = job.Operation
		}
		if recordErr := r.log.Record(entry); recordErr != nil {
			r.logger.Error("failed to record audit entry", "job_id", jobID, "error", recordErr)
		}
	}
	return err
}

// UpdateDescription forwards unchanged.
func (r *AuditReporter) UpdateDescription(ctx context.Context, jobID string, description string) error {
	return r.inner.UpdateDescription(ctx, jobID, description)
}
