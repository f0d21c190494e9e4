package worker

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/solhaug/microstore/internal/models"
)

// FSBuilder validates and converts input bundles laid out on the
// filesystem: one directory per dataset under inputDir, holding
// <dataset>.json (the metadata document) and <dataset>.csv (the data,
// semicolon delimited, unit identifier in the first column).
type FSBuilder struct {
	inputDir string
}

// NewFSBuilder creates a builder reading bundles from inputDir.
func NewFSBuilder(inputDir string) *FSBuilder {
	return &FSBuilder{inputDir: inputDir}
}

func (b *FSBuilder) Validate(ctx context.Context, dataset string) (*Dataset, error) {
	bundleDir := filepath.Join(b.inputDir, dataset)

	metaPath := filepath.Join(bundleDir, dataset+".json")
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata document: %w", err)
	}
	var meta models.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("invalid metadata document: %w", err)
	}
	if meta.Name != dataset {
		return nil, fmt.Errorf("metadata names %q, bundle is %q", meta.Name, dataset)
	}
	if len(meta.IdentifierVariables) == 0 {
		return nil, fmt.Errorf("metadata has no identifier variable")
	}
	if meta.MeasureVariable.ShortName == "" {
		return nil, fmt.Errorf("metadata has no measure variable")
	}

	dataPath := filepath.Join(bundleDir, dataset+".csv")
	info, err := os.Stat(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat data file: %w", err)
	}

	identifiers, err := b.scanIdentifiers(ctx, dataPath, &meta)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		Metadata:         meta,
		DataPath:         dataPath,
		IdentifierValues: identifiers,
		UnitIDType:       meta.IdentifierVariables[0].UnitIDType,
		SizeBytes:        info.Size(),
	}, nil
}

// scanIdentifiers reads the data once, checks every row's shape against the
// metadata and collects the distinct unit identifiers.
func (b *FSBuilder) scanIdentifiers(ctx context.Context, dataPath string, meta *models.Metadata) ([]string, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	wantColumns := 2 + len(meta.AttributeVariables)

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = wantColumns

	seen := make(map[string]struct{})
	var identifiers []string
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid data row %d: %w", line, err)
		}
		unitID := record[0]
		if unitID == "" {
			return nil, fmt.Errorf("empty unit identifier on row %d", line)
		}
		if record[1] == "" {
			return nil, fmt.Errorf("empty measure on row %d", line)
		}
		if err := checkEnumerated(&meta.MeasureVariable, record[1]); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if _, ok := seen[unitID]; !ok {
			seen[unitID] = struct{}{}
			identifiers = append(identifiers, unitID)
		}
	}
	if len(identifiers) == 0 {
		return nil, fmt.Errorf("data file is empty")
	}
	return identifiers, nil
}

// checkEnumerated rejects values outside an enumerated value domain.
func checkEnumerated(v *models.Variable, value string) error {
	if v.ValueDomain == nil || !v.ValueDomain.Enumerated() {
		return nil
	}
	for _, code := range v.ValueDomain.Codes {
		if code.Code == value {
			return nil
		}
	}
	return fmt.Errorf("value %q is not in the code list of %s", value, v.ShortName)
}

func (b *FSBuilder) Convert(ctx context.Context, ds *Dataset, pseudonyms map[string]string, workingDir string) error {
	name := ds.Metadata.Name

	out, err := json.MarshalIndent(ds.Metadata, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata document: %w", err)
	}
	metaPath := filepath.Join(workingDir, name+"__DRAFT.json")
	if err := os.WriteFile(metaPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata document: %w", err)
	}

	dataPath := filepath.Join(workingDir, name+"__DRAFT.parquet")
	if err := b.writeData(ctx, ds, pseudonyms, dataPath); err != nil {
		os.Remove(metaPath)
		return err
	}
	return nil
}

// writeData copies the transformed data into the working directory,
// replacing unit identifiers with their pseudonyms when a mapping was
// obtained.
func (b *FSBuilder) writeData(ctx context.Context, ds *Dataset, pseudonyms map[string]string, outPath string) error {
	in, err := os.Open(ds.DataPath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	defer in.Close()

	tmp := outPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create data artifact: %w", err)
	}

	r := csv.NewReader(in)
	r.Comma = ';'
	w := csv.NewWriter(out)
	w.Comma = ';'

	for {
		if err := ctx.Err(); err != nil {
			out.Close()
			os.Remove(tmp)
			return err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to read data file: %w", err)
		}
		if p, ok := pseudonyms[record[0]]; ok {
			record[0] = p
		}
		if err := w.Write(record); err != nil {
			out.Close()
			os.Remove(tmp)
			return fmt.Errorf("failed to write data artifact: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write data artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close data artifact: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move data artifact into place: %w", err)
	}
	return nil
}
