package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/solhaug/microstore/internal/models"
	"github.com/solhaug/microstore/internal/pseudonym"
)

// Dataset is the validated output of the external validation library for
// one input bundle.
type Dataset struct {
	Metadata         models.Metadata
	DataPath         string   // transformed data, ready for conversion
	IdentifierValues []string // raw unit identifiers to pseudonymize
	UnitIDType       string
	SizeBytes        int64
}

// Builder is the contract of the external validation/transformation
// library: it validates and transforms an input bundle, and converts the
// result into working-directory artifacts.
type Builder interface {
	// Validate decrypts, schema-validates and transforms the named input
	// bundle.
	Validate(ctx context.Context, dataset string) (*Dataset, error)
	// Convert applies the pseudonym mapping and writes the draft artifacts
	// (metadata document plus data file or partition directory) into
	// workingDir.
	Convert(ctx context.Context, ds *Dataset, pseudonyms map[string]string, workingDir string) error
}

// StatusReporter reports worker-phase job progress.
type StatusReporter interface {
	UpdateJobStatus(ctx context.Context, jobID string, status models.JobStatus, log string) error
}

// Importer runs the worker phase of one import job: validate,
// pseudonymize, convert, and report built. The engine phase (adopting the
// artifacts into the draft area) runs later, in the coordinating process.
type Importer struct {
	builder       Builder
	pseudonymizer pseudonym.Pseudonymizer
	reporter      StatusReporter
	workingDir    string
	logger        *slog.Logger
}

// NewImporter creates an importer writing artifacts into workingDir.
func NewImporter(builder Builder, p pseudonym.Pseudonymizer, reporter StatusReporter, workingDir string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		builder:       builder,
		pseudonymizer: p,
		reporter:      reporter,
		workingDir:    workingDir,
		logger:        logger,
	}
}

// Run executes the worker phase for one job. Failures report FAILED and
// remove any partial artifacts; they are not returned, since a failed
// import only terminates that job.
func (im *Importer) Run(ctx context.Context, job *models.Job) {
	name := job.Dataset()

	im.report(ctx, job, models.JobValidating, "")
	ds, err := im.builder.Validate(ctx, name)
	if err != nil {
		im.fail(ctx, job, fmt.Errorf("validate %s: %w", name, err))
		return
	}

	var pseudonyms map[string]string
	if len(ds.IdentifierValues) > 0 {
		im.report(ctx, job, models.JobPseudonymizing, "")
		pseudonyms, err = im.pseudonymizer.Pseudonymize(ctx, ds.IdentifierValues, ds.UnitIDType, job.ID)
		if err != nil {
			im.fail(ctx, job, fmt.Errorf("pseudonymize %s: %w", name, err))
			return
		}
	}

	im.report(ctx, job, models.JobConverting, "")
	if err := im.builder.Convert(ctx, ds, pseudonyms, im.workingDir); err != nil {
		im.fail(ctx, job, fmt.Errorf("convert %s: %w", name, err))
		return
	}

	im.report(ctx, job, models.JobBuilt, "")
}

func (im *Importer) report(ctx context.Context, job *models.Job, status models.JobStatus, log string) {
	if err := im.reporter.UpdateJobStatus(ctx, job.ID, status, log); err != nil {
		im.logger.Error("failed to report job status",
			"job_id", job.ID, "status", string(status), "error", err)
	}
}

// fail reports FAILED and discards partial working artifacts.
func (im *Importer) fail(ctx context.Context, job *models.Job, err error) {
	im.logger.Error("import failed", "job_id", job.ID, "dataset", job.Dataset(), "error", err)
	im.cleanPartials(job.Dataset())
	im.report(ctx, job, models.JobFailed, err.Error())
}

func (im *Importer) cleanPartials(name string) {
	for _, path := range []string{
		filepath.Join(im.workingDir, name+"__DRAFT.json"),
		filepath.Join(im.workingDir, name+"__DRAFT.parquet"),
		filepath.Join(im.workingDir, name+"__DRAFT"),
	} {
		if _, err := os.Stat(path); err == nil {
			os.RemoveAll(path)
		}
	}
}
