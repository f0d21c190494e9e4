package models

import "time"

// JobStatus is the lifecycle state of a job in the job queue service.
type JobStatus string

const (
	JobQueued         JobStatus = "queued"
	JobInitiated      JobStatus = "initiated"
	JobValidating     JobStatus = "validating"
	JobTransforming   JobStatus = "transforming"
	JobPseudonymizing JobStatus = "pseudonymizing"
	JobConverting     JobStatus = "converting"
	JobBuilt          JobStatus = "built"
	JobImporting      JobStatus = "importing"
	JobCompleted      JobStatus = "completed"
	JobFailed         JobStatus = "failed"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobParameters carries the operation-specific arguments of a job.
type JobParameters struct {
	Target          string         `json:"target"`
	Description     string         `json:"description,omitempty"`
	BumpManifesto   *BumpManifesto `json:"bump_manifesto,omitempty"`
	BumpFromVersion string         `json:"bump_from_version,omitempty"`
	BumpToVersion   string         `json:"bump_to_version,omitempty"`
	RollbackRemove  bool           `json:"rollback_remove,omitempty"`
	ReleaseStatus   ReleaseStatus  `json:"release_status,omitempty"`
}

// Job is one unit of work fetched from the job queue service.
type Job struct {
	ID         string        `json:"job_id"`
	Operation  JobOperation  `json:"operation"`
	Status     JobStatus     `json:"status"`
	Parameters JobParameters `json:"parameters"`
	CreatedAt  time.Time     `json:"created_at"`
	CreatedBy  string        `json:"created_by,omitempty"`
	Log        []JobLogEntry `json:"log,omitempty"`
}

// JobLogEntry is one status-change record on a job.
type JobLogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Dataset returns the dataset name the job targets, empty for datastore-wide
// operations such as BUMP.
func (j *Job) Dataset() string {
	return j.Parameters.Target
}
