package datastore

import (
	"fmt"
	"sort"

	"github.com/solhaug/microstore/internal/models"
)

// AddDraft appends a new entry to the draft ledger. Fails with
// ErrExistingDraft if the dataset already has a pending entry.
func (d *Datastore) AddDraft(update models.DataStructureUpdate) error {
	if d.draft.Contains(update.Name) {
		return fmt.Errorf("%s: %w", update.Name, ErrExistingDraft)
	}
	d.draft.DataStructureUpdates = append(d.draft.DataStructureUpdates, update)
	return d.persistDraft()
}

// DeleteDraft removes the named entry from the draft ledger and returns it.
// The caller uses the removed entry's operation to decide which released or
// working-directory artifacts to restore.
func (d *Datastore) DeleteDraft(name string) (models.DataStructureUpdate, error) {
	for i, u := range d.draft.DataStructureUpdates {
		if u.Name == name {
			d.draft.DataStructureUpdates = append(
				d.draft.DataStructureUpdates[:i], d.draft.DataStructureUpdates[i+1:]...,
			)
			if err := d.persistDraft(); err != nil {
				return models.DataStructureUpdate{}, err
			}
			return u, nil
		}
	}
	return models.DataStructureUpdate{}, fmt.Errorf("%s: %w", name, ErrNoSuchDraft)
}

// SetDraftReleaseStatus moves the named entry to a new release status.
// Returns ErrUnnecessaryUpdate if the status is already the requested one
// (an idempotent-retry signal, not a hard error) and ErrIllegalStatusChange
// if the transition is not allowed for the entry's operation.
func (d *Datastore) SetDraftReleaseStatus(name string, status models.ReleaseStatus) error {
	for i, u := range d.draft.DataStructureUpdates {
		if u.Name != name {
			continue
		}
		if u.ReleaseStatus == status {
			return fmt.Errorf("%s already has status %s: %w", name, status, ErrUnnecessaryUpdate)
		}
		if !u.CanTransitionTo(status) {
			return fmt.Errorf(
				"%s: operation %s does not allow status %s: %w",
				name, u.Operation, status, ErrIllegalStatusChange,
			)
		}
		d.draft.DataStructureUpdates[i].ReleaseStatus = status
		return d.persistDraft()
	}
	return fmt.Errorf("%s: %w", name, ErrNoSuchDraft)
}

// ReleasePending splits the ledger into entries still in DRAFT (kept) and
// entries in a pending status (returned for release, along with the update
// type derived before the reset). Fails with ErrBumpRejected if nothing is
// pending.
func (d *Datastore) ReleasePending() ([]models.DataStructureUpdate, models.UpdateType, error) {
	updateType := models.DeriveUpdateType(d.draft.DataStructureUpdates)
	if updateType == models.UpdateNone {
		return nil, models.UpdateNone, fmt.Errorf("nothing pending release: %w", ErrBumpRejected)
	}

	var released, kept []models.DataStructureUpdate
	for _, u := range d.draft.DataStructureUpdates {
		if u.ReleaseStatus == models.StatusDraft {
			kept = append(kept, u)
		} else {
			released = append(released, u)
		}
	}

	d.draft.DataStructureUpdates = kept
	if err := d.persistDraft(); err != nil {
		return nil, models.UpdateNone, err
	}
	return released, updateType, nil
}

// ValidateBumpManifesto reports whether the manifesto's pending entries are
// identical (ignoring order) to the live ledger's pending entries. A
// mismatch means the ledger changed after the manifesto was approved and
// the bump must be rejected.
func (d *Datastore) ValidateBumpManifesto(manifesto *models.BumpManifesto) bool {
	if manifesto == nil {
		return false
	}
	live := d.draft.Pending()
	candidate := manifesto.Pending()
	if len(live) != len(candidate) {
		return false
	}

	sortUpdates(live)
	sortUpdates(candidate)
	for i := range live {
		if live[i].Name != candidate[i].Name ||
			live[i].Operation != candidate[i].Operation ||
			live[i].ReleaseStatus != candidate[i].ReleaseStatus {
			return false
		}
	}
	return true
}

// ResetDraftAfterBump replaces the draft ledger with a fresh one containing
// only the kept entries, versioned on top of the new latest release.
// Bump-engine primitive.
func (d *Datastore) ResetDraftAfterBump(kept []models.DataStructureUpdate) error {
	draft := d.emptyDraft("")
	draft.DataStructureUpdates = kept
	if kept == nil {
		draft.DataStructureUpdates = []models.DataStructureUpdate{}
	}
	d.draft = draft
	return d.persistDraft()
}

func sortUpdates(updates []models.DataStructureUpdate) {
	sort.Slice(updates, func(i, j int) bool {
		return updates[i].Name < updates[j].Name
	})
}
