package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/solhaug/microstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inputMetadata(name string) models.Metadata {
	return models.Metadata{
		Name:             name,
		Temporality:      "FIXED",
		LanguageCode:     "no",
		SensitivityLevel: "PERSON_GENERAL",
		MeasureVariable:  models.Variable{ShortName: name, Label: name, DataType: "STRING"},
		IdentifierVariables: []models.Variable{
			{ShortName: "person_id", Label: "Person", DataType: "STRING", UnitIDType: "PERSON"},
		},
	}
}

// writeBundle lays out one input bundle: <dir>/<name>/<name>.json + .csv.
func writeBundle(t *testing.T, inputDir, name string, meta models.Metadata, rows []string) {
	t.Helper()
	bundleDir := filepath.Join(inputDir, name)
	require.NoError(t, os.MkdirAll(bundleDir, 0755))

	data, err := json.Marshal(meta)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(bundleDir, name+".json"), data, 0644))

	csv := ""
	for _, row := range rows {
		csv += row + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(bundleDir, name+".csv"), []byte(csv), 0644))
}

func TestFSBuilder_Validate(t *testing.T) {
	inputDir := t.TempDir()
	writeBundle(t, inputDir, "income", inputMetadata("income"), []string{
		"p1;100",
		"p2;200",
		"p1;300",
	})

	b := NewFSBuilder(inputDir)
	ds, err := b.Validate(context.Background(), "income")
	require.NoError(t, err)

	assert.Equal(t, "income", ds.Metadata.Name)
	assert.Equal(t, "PERSON", ds.UnitIDType)
	// distinct identifiers, first-seen order
	assert.Equal(t, []string{"p1", "p2"}, ds.IdentifierValues)
	assert.Greater(t, ds.SizeBytes, int64(0))
}

func TestFSBuilder_ValidateRejectsBadBundles(t *testing.T) {
	inputDir := t.TempDir()
	b := NewFSBuilder(inputDir)
	ctx := context.Background()

	t.Run("missing bundle", func(t *testing.T) {
		_, err := b.Validate(ctx, "missing")
		assert.Error(t, err)
	})

	t.Run("name mismatch", func(t *testing.T) {
		writeBundle(t, inputDir, "misnamed", inputMetadata("other"), []string{"p1;1"})
		_, err := b.Validate(ctx, "misnamed")
		assert.ErrorContains(t, err, "metadata names")
	})

	t.Run("empty unit identifier", func(t *testing.T) {
		writeBundle(t, inputDir, "noid", inputMetadata("noid"), []string{";1"})
		_, err := b.Validate(ctx, "noid")
		assert.ErrorContains(t, err, "empty unit identifier")
	})

	t.Run("empty data file", func(t *testing.T) {
		writeBundle(t, inputDir, "empty", inputMetadata("empty"), nil)
		_, err := b.Validate(ctx, "empty")
		assert.ErrorContains(t, err, "empty")
	})

	t.Run("wrong column count", func(t *testing.T) {
		writeBundle(t, inputDir, "wide", inputMetadata("wide"), []string{"p1;1;extra"})
		_, err := b.Validate(ctx, "wide")
		assert.Error(t, err)
	})
}

func TestFSBuilder_ValidateEnumeratedMeasure(t *testing.T) {
	inputDir := t.TempDir()
	meta := inputMetadata("status")
	meta.MeasureVariable.ValueDomain = &models.ValueDomain{
		Codes: []models.CodeListItem{
			{Code: "1", CategoryTitle: "Employed"},
			{Code: "2", CategoryTitle: "Unemployed"},
		},
	}
	writeBundle(t, inputDir, "status", meta, []string{"p1;1", "p2;3"})

	b := NewFSBuilder(inputDir)
	_, err := b.Validate(context.Background(), "status")
	assert.ErrorContains(t, err, "not in the code list")
}

func TestFSBuilder_Convert(t *testing.T) {
	inputDir := t.TempDir()
	workingDir := t.TempDir()
	writeBundle(t, inputDir, "income", inputMetadata("income"), []string{
		"p1;100",
		"p2;200",
	})

	b := NewFSBuilder(inputDir)
	ds, err := b.Validate(context.Background(), "income")
	require.NoError(t, err)

	pseudonyms := map[string]string{"p1": "x1", "p2": "x2"}
	require.NoError(t, b.Convert(context.Background(), ds, pseudonyms, workingDir))

	assert.FileExists(t, filepath.Join(workingDir, "income__DRAFT.json"))

	data, err := os.ReadFile(filepath.Join(workingDir, "income__DRAFT.parquet"))
	require.NoError(t, err)
	assert.Equal(t, "x1;100\nx2;200\n", string(data))
	// raw identifiers never reach the working directory
	assert.NotContains(t, string(data), "p1")
}
