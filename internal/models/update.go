package models

// JobOperation represents the kind of operation a job performs against the
// datastore. Only Add, Change, PatchMetadata and Remove ever appear as draft
// ledger entries; the rest are control operations.
type JobOperation string

const (
	OperationAdd            JobOperation = "ADD"
	OperationChange         JobOperation = "CHANGE"
	OperationPatchMetadata  JobOperation = "PATCH_METADATA"
	OperationRemove         JobOperation = "REMOVE"
	OperationBump           JobOperation = "BUMP"
	OperationSetStatus      JobOperation = "SET_STATUS"
	OperationDeleteDraft    JobOperation = "DELETE_DRAFT"
	OperationRollbackRemove JobOperation = "ROLLBACK_REMOVE"
	OperationDeleteArchive  JobOperation = "DELETE_ARCHIVE"
	OperationGenerateKeys   JobOperation = "GENERATE_RSA_KEYS"
)

// ReleaseStatus represents the lifecycle state of a draft ledger entry.
// Released and Deleted are terminal and only appear in the release history.
type ReleaseStatus string

const (
	StatusDraft          ReleaseStatus = "DRAFT"
	StatusPendingRelease ReleaseStatus = "PENDING_RELEASE"
	StatusPendingDelete  ReleaseStatus = "PENDING_DELETE"
	StatusReleased       ReleaseStatus = "RELEASED"
	StatusDeleted        ReleaseStatus = "DELETED"
)

// Pending returns true if the entry is queued for the next release.
func (s ReleaseStatus) Pending() bool {
	return s == StatusPendingRelease || s == StatusPendingDelete
}

// UpdateType classifies the severity of a release. The zero value means
// nothing is pending.
type UpdateType string

const (
	UpdateNone  UpdateType = ""
	UpdateMajor UpdateType = "MAJOR"
	UpdateMinor UpdateType = "MINOR"
	UpdatePatch UpdateType = "PATCH"
)

// DataStructureUpdate is one pending change to one dataset. A dataset name
// appears at most once in a given ledger snapshot.
type DataStructureUpdate struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Operation     JobOperation  `json:"operation"`
	ReleaseStatus ReleaseStatus `json:"release_status"`
}

// CanTransitionTo reports whether the entry's operation allows a status
// change to target. Pending-release is reserved for data-bearing operations,
// pending-delete for removals, and a queued removal cannot be reset to draft
// (that is what DELETE_DRAFT with rollback is for).
func (u DataStructureUpdate) CanTransitionTo(target ReleaseStatus) bool {
	switch target {
	case StatusPendingRelease:
		return u.Operation == OperationAdd ||
			u.Operation == OperationChange ||
			u.Operation == OperationPatchMetadata
	case StatusPendingDelete:
		return u.Operation == OperationRemove
	case StatusDraft:
		return u.Operation != OperationRemove
	default:
		return false
	}
}

// DeriveUpdateType computes the aggregate update type from the pending
// (non-DRAFT) entries: any remove or change makes the release MAJOR, an add
// makes it MINOR, a metadata patch alone makes it PATCH.
func DeriveUpdateType(updates []DataStructureUpdate) UpdateType {
	var hasMajor, hasMinor, hasPatch bool
	for _, u := range updates {
		if u.ReleaseStatus == StatusDraft {
			continue
		}
		switch u.Operation {
		case OperationRemove, OperationChange:
			hasMajor = true
		case OperationAdd:
			hasMinor = true
		case OperationPatchMetadata:
			hasPatch = true
		}
	}
	switch {
	case hasMajor:
		return UpdateMajor
	case hasMinor:
		return UpdateMinor
	case hasPatch:
		return UpdatePatch
	default:
		return UpdateNone
	}
}
