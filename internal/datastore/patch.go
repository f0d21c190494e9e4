package datastore

import (
	"fmt"

	"github.com/solhaug/microstore/internal/models"
)

// PatchMetadata merges a patch document into previously released metadata,
// returning a new document. Only descriptive fields may change: dataset
// name, temporality, language and sensitivity level are immutable, variable
// counts are immutable, and enumerated value domains may change category
// labels but never codes or validity periods. Violations fail with
// ErrPatchConflict and leave both inputs untouched.
func PatchMetadata(released, patch models.Metadata) (models.Metadata, error) {
	if patch.Name != released.Name {
		return models.Metadata{}, patchConflict("dataset name is immutable (%q != %q)", patch.Name, released.Name)
	}
	if patch.Temporality != released.Temporality {
		return models.Metadata{}, patchConflict("temporality is immutable for %s", released.Name)
	}
	if patch.LanguageCode != released.LanguageCode {
		return models.Metadata{}, patchConflict("language code is immutable for %s", released.Name)
	}
	if patch.SensitivityLevel != released.SensitivityLevel {
		return models.Metadata{}, patchConflict("sensitivity level is immutable for %s", released.Name)
	}
	if len(patch.AttributeVariables) != len(released.AttributeVariables) {
		return models.Metadata{}, patchConflict(
			"attribute variable count is immutable for %s (%d != %d)",
			released.Name, len(patch.AttributeVariables), len(released.AttributeVariables),
		)
	}
	if len(patch.IdentifierVariables) != len(released.IdentifierVariables) {
		return models.Metadata{}, patchConflict(
			"identifier variable count is immutable for %s (%d != %d)",
			released.Name, len(patch.IdentifierVariables), len(released.IdentifierVariables),
		)
	}

	merged := released
	merged.PopulationDescription = patch.PopulationDescription
	merged.SubjectFields = append([]string(nil), patch.SubjectFields...)

	measure, err := patchVariable(released.MeasureVariable, patch.MeasureVariable)
	if err != nil {
		return models.Metadata{}, err
	}
	merged.MeasureVariable = measure

	merged.IdentifierVariables, err = patchVariables(released.IdentifierVariables, patch.IdentifierVariables)
	if err != nil {
		return models.Metadata{}, err
	}
	merged.AttributeVariables, err = patchVariables(released.AttributeVariables, patch.AttributeVariables)
	if err != nil {
		return models.Metadata{}, err
	}

	return merged, nil
}

func patchVariables(released, patch []models.Variable) ([]models.Variable, error) {
	merged := make([]models.Variable, len(released))
	for i := range released {
		v, err := patchVariable(released[i], patch[i])
		if err != nil {
			return nil, err
		}
		merged[i] = v
	}
	return merged, nil
}

// patchVariable merges the descriptive fields of one variable. Short name
// and data type are structural and must not change.
func patchVariable(released, patch models.Variable) (models.Variable, error) {
	if patch.ShortName != released.ShortName {
		return models.Variable{}, patchConflict(
			"variable short name is immutable (%q != %q)", patch.ShortName, released.ShortName,
		)
	}
	if patch.DataType != released.DataType {
		return models.Variable{}, patchConflict("data type is immutable for variable %s", released.ShortName)
	}

	merged := released
	merged.Label = patch.Label

	if released.ValueDomain != nil && released.ValueDomain.Enumerated() {
		if patch.ValueDomain == nil {
			return models.Variable{}, patchConflict(
				"enumerated value domain cannot be removed from variable %s", released.ShortName,
			)
		}
		domain, err := patchCodeList(released.ShortName, *released.ValueDomain, *patch.ValueDomain)
		if err != nil {
			return models.Variable{}, err
		}
		merged.ValueDomain = &domain
	} else if patch.ValueDomain != nil && released.ValueDomain != nil {
		domain := *released.ValueDomain
		domain.Description = patch.ValueDomain.Description
		domain.UnitOfMeasure = patch.ValueDomain.UnitOfMeasure
		merged.ValueDomain = &domain
	}

	return merged, nil
}

// patchCodeList merges an enumerated value domain: every released code and
// its validity period must reappear, and only the category title may differ.
func patchCodeList(variable string, released, patch models.ValueDomain) (models.ValueDomain, error) {
	if len(patch.Codes) != len(released.Codes) {
		return models.ValueDomain{}, patchConflict(
			"code list for variable %s must keep its %d entries (got %d)",
			variable, len(released.Codes), len(patch.Codes),
		)
	}

	type codeKey struct {
		code  string
		start int64
	}
	patchTitles := make(map[codeKey]string, len(patch.Codes))
	for _, item := range patch.Codes {
		patchTitles[codeKey{item.Code, item.ValidFrom}] = item.CategoryTitle
	}

	merged := released
	merged.Codes = make([]models.CodeListItem, len(released.Codes))
	for i, item := range released.Codes {
		title, ok := patchTitles[codeKey{item.Code, item.ValidFrom}]
		if !ok {
			return models.ValueDomain{}, patchConflict(
				"code %q (valid from %d) of variable %s cannot be changed or removed",
				item.Code, item.ValidFrom, variable,
			)
		}
		merged.Codes[i] = item
		merged.Codes[i].CategoryTitle = title
	}
	return merged, nil
}

func patchConflict(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrPatchConflict)...)
}
