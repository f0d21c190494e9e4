package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/solhaug/microstore/internal/core"
	"github.com/solhaug/microstore/internal/models"
	"github.com/spf13/cobra"
)

var bumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Release the pending draft entries as a new version",
	Long: `Release every draft entry that is pending release or deletion as a new
datastore version. The version number is derived from the most severe
pending operation.`,
	Run: runBump,
}

var bumpDescription string

func init() {
	bumpCmd.Flags().StringVar(&bumpDescription, "description", "", "Release description (required)")
	bumpCmd.MarkFlagRequired("description")
}

// printReporter writes job status transitions to the terminal. The CLI has
// no job queue service to report to.
type printReporter struct {
	last models.JobStatus
}

func (r *printReporter) UpdateJobStatus(_ context.Context, _ string, status models.JobStatus, log string) error {
	r.last = status
	if log != "" {
		fmt.Printf("%s: %s\n", status, log)
	} else {
		fmt.Println(status)
	}
	return nil
}

func runBump(cmd *cobra.Command, args []string) {
	c := initContext()
	draft := c.Datastore.Draft()

	pending := draft.Pending()
	if len(pending) == 0 {
		exitError("no draft entries are pending release")
	}

	manifesto := draft
	manifesto.Description = bumpDescription
	manifesto.DataStructureUpdates = pending

	job := &models.Job{
		ID:        uuid.NewString(),
		Operation: models.OperationBump,
		Parameters: models.JobParameters{
			Description:   bumpDescription,
			BumpManifesto: &manifesto,
		},
	}

	reporter := &printReporter{}
	engine := core.NewEngine(c.Datastore, reporter, nil, core.Options{})
	if err := engine.BumpVersion(context.Background(), job); err != nil {
		exitError("bump failed and rollback did not recover: %v", err)
	}
	if reporter.last == models.JobFailed {
		exitError("bump rejected, the datastore was rolled back")
	}

	if latest, ok := c.Datastore.LatestVersionNumber(); ok {
		color.Green("Released version %s", latest.SemVer3())
	}
}
