package models

// DatastoreVersion is one immutable published release. Its entries carry
// terminal release statuses (RELEASED or DELETED) only.
type DatastoreVersion struct {
	Version              string                `json:"version"`
	Description          string                `json:"description"`
	ReleaseTime          int64                 `json:"release_time"`
	LanguageCode         string                `json:"language_code"`
	UpdateType           UpdateType            `json:"update_type"`
	DataStructureUpdates []DataStructureUpdate `json:"data_structure_updates"`
}

// DatastoreVersions is the release history ledger: published versions,
// newest first, plus the datastore's own identity.
type DatastoreVersions struct {
	Name         string             `json:"name"`
	Label        string             `json:"label"`
	Description  string             `json:"description"`
	LanguageCode string             `json:"language_code"`
	Versions     []DatastoreVersion `json:"versions"`
}

// Latest returns the most recently published version, if any.
func (d *DatastoreVersions) Latest() (DatastoreVersion, bool) {
	if len(d.Versions) == 0 {
		return DatastoreVersion{}, false
	}
	return d.Versions[0], true
}

// LatestNumber returns the parsed number of the most recent release, or
// ok=false if nothing has ever been released.
func (d *DatastoreVersions) LatestNumber() (Version, bool) {
	latest, ok := d.Latest()
	if !ok {
		return Version{}, false
	}
	v, err := ParseVersion(latest.Version)
	if err != nil {
		return Version{}, false
	}
	return v, true
}
