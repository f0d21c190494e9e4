package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/solhaug/microstore/internal/models"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the draft ledger",
	Long:  `Show the pending dataset operations and the update type the next release would get.`,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	c := initContext()
	draft := c.Datastore.Draft()

	if latest, ok := c.Datastore.LatestVersionNumber(); ok {
		fmt.Printf("On version %s\n", latest.SemVer3())
	} else {
		fmt.Println("No versions released yet")
	}

	if len(draft.DataStructureUpdates) == 0 {
		fmt.Println("\nDraft ledger is empty, nothing staged")
		return
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Println("\nDraft ledger:")
	for _, u := range draft.DataStructureUpdates {
		line := fmt.Sprintf("  %-16s %-16s %s", u.Operation, u.ReleaseStatus, u.Name)
		switch u.Operation {
		case models.OperationAdd:
			green.Println(line)
		case models.OperationRemove:
			red.Println(line)
		case models.OperationChange:
			yellow.Println(line)
		default:
			cyan.Println(line)
		}
	}

	if draft.UpdateType != models.UpdateNone {
		fmt.Printf("\nNext release would be a %s bump\n", draft.UpdateType)
	} else {
		fmt.Println("\nNo entries are pending release")
	}
}
