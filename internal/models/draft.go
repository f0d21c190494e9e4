package models

// DraftVersion is the mutable pending release: the draft ledger. Its version
// string is the latest released version with a release-timestamp
// disambiguator in the fourth position.
type DraftVersion struct {
	Version              string                `json:"version"`
	Description          string                `json:"description"`
	ReleaseTime          int64                 `json:"release_time"`
	LanguageCode         string                `json:"language_code"`
	UpdateType           UpdateType            `json:"update_type"`
	DataStructureUpdates []DataStructureUpdate `json:"data_structure_updates"`
}

// Get returns the ledger entry for the named dataset, if present.
func (d DraftVersion) Get(name string) (DataStructureUpdate, bool) {
	for _, u := range d.DataStructureUpdates {
		if u.Name == name {
			return u, true
		}
	}
	return DataStructureUpdate{}, false
}

// Contains reports whether the named dataset has a ledger entry.
func (d DraftVersion) Contains(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// Pending returns the entries queued for release (any non-DRAFT status).
func (d DraftVersion) Pending() []DataStructureUpdate {
	var pending []DataStructureUpdate
	for _, u := range d.DataStructureUpdates {
		if u.ReleaseStatus != StatusDraft {
			pending = append(pending, u)
		}
	}
	return pending
}

// BumpManifesto is a caller-supplied snapshot of the draft ledger, captured
// at approval time and revalidated against the live ledger before a bump.
type BumpManifesto = DraftVersion
