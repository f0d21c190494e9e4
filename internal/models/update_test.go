package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveUpdateType(t *testing.T) {
	entry := func(op JobOperation, status ReleaseStatus) DataStructureUpdate {
		return DataStructureUpdate{Name: "x", Operation: op, ReleaseStatus: status}
	}

	tests := []struct {
		name    string
		updates []DataStructureUpdate
		want    UpdateType
	}{
		{"empty", nil, UpdateNone},
		{"only drafts", []DataStructureUpdate{
			entry(OperationAdd, StatusDraft),
			entry(OperationChange, StatusDraft),
		}, UpdateNone},
		{"pending add", []DataStructureUpdate{
			entry(OperationAdd, StatusPendingRelease),
		}, UpdateMinor},
		{"pending patch", []DataStructureUpdate{
			entry(OperationPatchMetadata, StatusPendingRelease),
		}, UpdatePatch},
		{"pending change beats add", []DataStructureUpdate{
			entry(OperationAdd, StatusPendingRelease),
			entry(OperationChange, StatusPendingRelease),
		}, UpdateMajor},
		{"pending remove beats everything", []DataStructureUpdate{
			entry(OperationPatchMetadata, StatusPendingRelease),
			entry(OperationAdd, StatusPendingRelease),
			entry(OperationRemove, StatusPendingDelete),
		}, UpdateMajor},
		{"add beats patch", []DataStructureUpdate{
			entry(OperationPatchMetadata, StatusPendingRelease),
			entry(OperationAdd, StatusPendingRelease),
		}, UpdateMinor},
		{"draft change ignored", []DataStructureUpdate{
			entry(OperationChange, StatusDraft),
			entry(OperationAdd, StatusPendingRelease),
		}, UpdateMinor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveUpdateType(tt.updates))
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	add := DataStructureUpdate{Operation: OperationAdd, ReleaseStatus: StatusDraft}
	remove := DataStructureUpdate{Operation: OperationRemove, ReleaseStatus: StatusPendingDelete}
	patch := DataStructureUpdate{Operation: OperationPatchMetadata, ReleaseStatus: StatusDraft}

	assert.True(t, add.CanTransitionTo(StatusPendingRelease))
	assert.True(t, add.CanTransitionTo(StatusDraft))
	assert.False(t, add.CanTransitionTo(StatusPendingDelete))

	assert.True(t, patch.CanTransitionTo(StatusPendingRelease))

	assert.True(t, remove.CanTransitionTo(StatusPendingDelete))
	assert.False(t, remove.CanTransitionTo(StatusPendingRelease))
	// a queued removal cannot be reset to draft
	assert.False(t, remove.CanTransitionTo(StatusDraft))

	// terminal statuses are never a transition target
	assert.False(t, add.CanTransitionTo(StatusReleased))
	assert.False(t, remove.CanTransitionTo(StatusDeleted))
}

func TestDraftVersion_Pending(t *testing.T) {
	d := DraftVersion{DataStructureUpdates: []DataStructureUpdate{
		{Name: "a", Operation: OperationAdd, ReleaseStatus: StatusDraft},
		{Name: "b", Operation: OperationAdd, ReleaseStatus: StatusPendingRelease},
		{Name: "c", Operation: OperationRemove, ReleaseStatus: StatusPendingDelete},
	}}

	pending := d.Pending()
	assert.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].Name)
	assert.Equal(t, "c", pending[1].Name)

	assert.True(t, d.Contains("a"))
	assert.False(t, d.Contains("z"))
}

// The accessors take value receivers so callers can chain them off copy-
// returning getters without a temporary.
func TestDraftVersion_AccessorsOnReturnedCopy(t *testing.T) {
	snapshot := func() DraftVersion {
		return DraftVersion{DataStructureUpdates: []DataStructureUpdate{
			{Name: "a", Operation: OperationAdd, ReleaseStatus: StatusPendingRelease},
		}}
	}

	entry, ok := snapshot().Get("a")
	require.True(t, ok)
	assert.Equal(t, OperationAdd, entry.Operation)
	assert.True(t, snapshot().Contains("a"))
	assert.Len(t, snapshot().Pending(), 1)
}
