package models

// TimePeriod is a half-open validity interval in seconds since epoch.
// Stop is nil for open-ended periods.
type TimePeriod struct {
	Start int64  `json:"start"`
	Stop  *int64 `json:"stop,omitempty"`
}

// CodeListItem is one entry in an enumerated value domain. The code is the
// stored value; the category title is the human label for it.
type CodeListItem struct {
	Code          string `json:"code"`
	CategoryTitle string `json:"category_title"`
	ValidFrom     int64  `json:"valid_from"`
	ValidUntil    *int64 `json:"valid_until,omitempty"`
}

// ValueDomain describes the legal values of a variable, either by a
// description (described domain) or by a code list (enumerated domain).
type ValueDomain struct {
	Description      string         `json:"description,omitempty"`
	UnitOfMeasure    string         `json:"unit_of_measure,omitempty"`
	Codes            []CodeListItem `json:"codes,omitempty"`
	MissingValues    []string       `json:"missing_values,omitempty"`
	SentinelAndCodes []CodeListItem `json:"sentinel_and_missing_values,omitempty"`
}

// Enumerated reports whether the domain is defined by a code list.
func (v ValueDomain) Enumerated() bool {
	return len(v.Codes) > 0
}

// Variable is one variable of a dataset: the measure, an identifier, or an
// attribute.
type Variable struct {
	ShortName    string       `json:"short_name"`
	Label        string       `json:"label"`
	DataType     string       `json:"data_type"`
	VariableRole string       `json:"variable_role,omitempty"`
	UnitIDType   string       `json:"unit_id_type,omitempty"`
	Format       string       `json:"format,omitempty"`
	ValueDomain  *ValueDomain `json:"value_domain,omitempty"`
}

// Metadata is the structural metadata document for one dataset.
type Metadata struct {
	Name                  string     `json:"name"`
	Temporality           string     `json:"temporality"`
	LanguageCode          string     `json:"language_code"`
	SensitivityLevel      string     `json:"sensitivity_level"`
	PopulationDescription string     `json:"population_description"`
	SubjectFields         []string   `json:"subject_fields"`
	TemporalCoverage      TimePeriod `json:"temporal_coverage"`
	MeasureVariable       Variable   `json:"measure_variable"`
	IdentifierVariables   []Variable `json:"identifier_variables"`
	AttributeVariables    []Variable `json:"attribute_variables"`
	TemporalStatusDates   []int64    `json:"temporal_status_dates,omitempty"`
}

// DatastoreInfo identifies the datastore a consolidated document belongs to.
type DatastoreInfo struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	Description  string `json:"description"`
	LanguageCode string `json:"language_code"`
}

// MetadataAll is the consolidated metadata document: every dataset's
// metadata as of one datastore version. The draft aggregate uses the same
// shape with version "0.0.0.0".
type MetadataAll struct {
	DataStore      DatastoreInfo `json:"data_store"`
	Version        string        `json:"version"`
	DataStructures []Metadata    `json:"data_structures"`
}

// Get returns the metadata for the named dataset, if present.
func (m *MetadataAll) Get(name string) (Metadata, bool) {
	for _, ds := range m.DataStructures {
		if ds.Name == name {
			return ds, true
		}
	}
	return Metadata{}, false
}

// Upsert replaces the named dataset's metadata, or appends it if absent.
func (m *MetadataAll) Upsert(meta Metadata) {
	for i, ds := range m.DataStructures {
		if ds.Name == meta.Name {
			m.DataStructures[i] = meta
			return
		}
	}
	m.DataStructures = append(m.DataStructures, meta)
}

// Remove deletes the named dataset's metadata. Returns false if absent.
func (m *MetadataAll) Remove(name string) bool {
	for i, ds := range m.DataStructures {
		if ds.Name == name {
			m.DataStructures = append(m.DataStructures[:i], m.DataStructures[i+1:]...)
			return true
		}
	}
	return false
}
