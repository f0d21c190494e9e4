package datastore

import "errors"

// Domain error conditions surfaced by the ledger and metadata operations.
// Callers match these with errors.Is at the job-operation boundary.
var (
	// ErrExistingDraft: the dataset already has a pending draft entry.
	ErrExistingDraft = errors.New("dataset already has a draft entry")

	// ErrNoSuchDraft: no draft entry exists for the dataset.
	ErrNoSuchDraft = errors.New("no draft entry for dataset")

	// ErrUnnecessaryUpdate: the requested status equals the current one.
	// Treated as an idempotent-retry signal, not a hard failure.
	ErrUnnecessaryUpdate = errors.New("release status unchanged")

	// ErrIllegalStatusChange: the status transition is not allowed for the
	// entry's operation.
	ErrIllegalStatusChange = errors.New("illegal release status transition")

	// ErrReleaseStatus: the dataset's current release status does not meet
	// the operation's precondition.
	ErrReleaseStatus = errors.New("operation not allowed for current release status")

	// ErrBumpRejected: the bump cannot proceed (nothing pending, stale
	// manifesto, or inconsistent draft metadata).
	ErrBumpRejected = errors.New("bump rejected")

	// ErrPatchConflict: a metadata patch violates a structural immutability
	// rule.
	ErrPatchConflict = errors.New("metadata patch conflict")

	// ErrNotFound: no metadata exists for the dataset.
	ErrNotFound = errors.New("dataset not found")

	// ErrLocalStorage: the backup staging area is in an unexpected state.
	ErrLocalStorage = errors.New("local storage error")
)
