package datastore

import (
	"testing"

	"github.com/solhaug/microstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func releasedMetadata() models.Metadata {
	return models.Metadata{
		Name:                  "income",
		Temporality:           "ACCUMULATED",
		LanguageCode:          "no",
		SensitivityLevel:      "PERSON_GENERAL",
		PopulationDescription: "All employed persons",
		SubjectFields:         []string{"labour"},
		MeasureVariable: models.Variable{
			ShortName: "income",
			Label:     "Yearly income",
			DataType:  "LONG",
			ValueDomain: &models.ValueDomain{
				Description:   "Income in NOK",
				UnitOfMeasure: "NOK",
			},
		},
		IdentifierVariables: []models.Variable{{
			ShortName:  "person_id",
			Label:      "Person",
			DataType:   "STRING",
			UnitIDType: "PERSON",
		}},
		AttributeVariables: []models.Variable{{
			ShortName: "marital_status",
			Label:     "Marital status",
			DataType:  "STRING",
			ValueDomain: &models.ValueDomain{
				Codes: []models.CodeListItem{
					{Code: "1", CategoryTitle: "Single", ValidFrom: 0},
					{Code: "2", CategoryTitle: "Married", ValidFrom: 0},
				},
			},
		}},
	}
}

func TestPatchMetadata_DescriptiveFields(t *testing.T) {
	released := releasedMetadata()
	patch := releasedMetadata()
	patch.PopulationDescription = "All persons with registered income"
	patch.SubjectFields = []string{"labour", "income"}
	patch.MeasureVariable.Label = "Gross yearly income"

	merged, err := PatchMetadata(released, patch)
	require.NoError(t, err)
	assert.Equal(t, "All persons with registered income", merged.PopulationDescription)
	assert.Equal(t, []string{"labour", "income"}, merged.SubjectFields)
	assert.Equal(t, "Gross yearly income", merged.MeasureVariable.Label)
	// structural fields come from the released side
	assert.Equal(t, "LONG", merged.MeasureVariable.DataType)
}

func TestPatchMetadata_ImmutableFields(t *testing.T) {
	mutations := map[string]func(*models.Metadata){
		"name":        func(m *models.Metadata) { m.Name = "other" },
		"temporality": func(m *models.Metadata) { m.Temporality = "EVENT" },
		"language":    func(m *models.Metadata) { m.LanguageCode = "en" },
		"sensitivity": func(m *models.Metadata) { m.SensitivityLevel = "PUBLIC" },
		"measure short name": func(m *models.Metadata) {
			m.MeasureVariable.ShortName = "renamed"
		},
		"measure data type": func(m *models.Metadata) {
			m.MeasureVariable.DataType = "DOUBLE"
		},
		"identifier count": func(m *models.Metadata) {
			m.IdentifierVariables = append(m.IdentifierVariables, models.Variable{ShortName: "extra"})
		},
		"attribute count": func(m *models.Metadata) {
			m.AttributeVariables = nil
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			patch := releasedMetadata()
			mutate(&patch)
			_, err := PatchMetadata(releasedMetadata(), patch)
			assert.ErrorIs(t, err, ErrPatchConflict)
		})
	}
}

func TestPatchMetadata_CodeListTitles(t *testing.T) {
	released := releasedMetadata()
	patch := releasedMetadata()
	patch.AttributeVariables[0].ValueDomain.Codes[1].CategoryTitle = "Married or partnered"

	merged, err := PatchMetadata(released, patch)
	require.NoError(t, err)
	codes := merged.AttributeVariables[0].ValueDomain.Codes
	assert.Equal(t, "Single", codes[0].CategoryTitle)
	assert.Equal(t, "Married or partnered", codes[1].CategoryTitle)
}

func TestPatchMetadata_CodeListStructureIsImmutable(t *testing.T) {
	t.Run("removed code", func(t *testing.T) {
		patch := releasedMetadata()
		patch.AttributeVariables[0].ValueDomain.Codes = patch.AttributeVariables[0].ValueDomain.Codes[:1]
		_, err := PatchMetadata(releasedMetadata(), patch)
		assert.ErrorIs(t, err, ErrPatchConflict)
	})

	t.Run("changed code value", func(t *testing.T) {
		patch := releasedMetadata()
		patch.AttributeVariables[0].ValueDomain.Codes[0].Code = "9"
		_, err := PatchMetadata(releasedMetadata(), patch)
		assert.ErrorIs(t, err, ErrPatchConflict)
	})

	t.Run("changed validity period", func(t *testing.T) {
		patch := releasedMetadata()
		patch.AttributeVariables[0].ValueDomain.Codes[0].ValidFrom = 100
		_, err := PatchMetadata(releasedMetadata(), patch)
		assert.ErrorIs(t, err, ErrPatchConflict)
	})

	t.Run("dropped enumerated domain", func(t *testing.T) {
		patch := releasedMetadata()
		patch.AttributeVariables[0].ValueDomain = nil
		_, err := PatchMetadata(releasedMetadata(), patch)
		assert.ErrorIs(t, err, ErrPatchConflict)
	})
}

func TestPatchMetadata_LeavesInputsUntouched(t *testing.T) {
	released := releasedMetadata()
	patch := releasedMetadata()
	patch.AttributeVariables[0].ValueDomain.Codes[0].CategoryTitle = "Unmarried"

	_, err := PatchMetadata(released, patch)
	require.NoError(t, err)
	assert.Equal(t, "Single", released.AttributeVariables[0].ValueDomain.Codes[0].CategoryTitle)
}
