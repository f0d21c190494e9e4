package cli

import (
	"context"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/solhaug/microstore/internal/core"
	"github.com/solhaug/microstore/internal/models"
	"github.com/spf13/cobra"
)

var deleteDraftCmd = &cobra.Command{
	Use:   "delete-draft <dataset>",
	Short: "Discard a dataset's draft entry",
	Long: `Discard a dataset's draft entry and restore the released state of its
metadata and data. A staged removal requires --rollback-remove.`,
	Args: cobra.ExactArgs(1),
	Run:  runDeleteDraft,
}

var deleteDraftRollback bool

func init() {
	deleteDraftCmd.Flags().BoolVar(&deleteDraftRollback, "rollback-remove", false,
		"Confirm rolling back a staged removal")
}

func runDeleteDraft(cmd *cobra.Command, args []string) {
	c := initContext()

	op := models.OperationDeleteDraft
	if deleteDraftRollback {
		op = models.OperationRollbackRemove
	}
	job := &models.Job{
		ID:        uuid.NewString(),
		Operation: op,
		Parameters: models.JobParameters{
			Target:         args[0],
			RollbackRemove: deleteDraftRollback,
		},
	}

	reporter := &printReporter{}
	engine := core.NewEngine(c.Datastore, reporter, nil, core.Options{})
	if err := engine.HandleJob(context.Background(), job); err != nil {
		exitError("delete-draft failed and rollback did not recover: %v", err)
	}
	if reporter.last == models.JobFailed {
		exitError("could not delete draft for %s", args[0])
	}
	color.Green("Deleted draft for %s", args[0])
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <dataset> <status>",
	Short: "Change a dataset's draft release status",
	Long: `Change a dataset's draft entry to PENDING_RELEASE, PENDING_DELETE or
back to DRAFT. Only legal transitions for the entry's operation are
accepted.`,
	Args: cobra.ExactArgs(2),
	Run:  runSetStatus,
}

func runSetStatus(cmd *cobra.Command, args []string) {
	c := initContext()

	job := &models.Job{
		ID:        uuid.NewString(),
		Operation: models.OperationSetStatus,
		Parameters: models.JobParameters{
			Target:        args[0],
			ReleaseStatus: models.ReleaseStatus(args[1]),
		},
	}

	reporter := &printReporter{}
	engine := core.NewEngine(c.Datastore, reporter, nil, core.Options{})
	if err := engine.HandleJob(context.Background(), job); err != nil {
		exitError("set-status failed: %v", err)
	}
	if reporter.last == models.JobFailed {
		exitError("could not set status for %s", args[0])
	}
	color.Green("%s is now %s", args[0], args[1])
}
