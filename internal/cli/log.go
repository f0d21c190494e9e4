package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the release history",
	Long:  `Show all released datastore versions, newest first.`,
	Run:   runLog,
}

func runLog(cmd *cobra.Command, args []string) {
	c := initContext()
	versions := c.Datastore.Versions()

	if len(versions.Versions) == 0 {
		fmt.Println("No versions released yet")
		return
	}

	for _, v := range versions.Versions {
		released := time.Unix(v.ReleaseTime, 0).UTC().Format(time.RFC3339)
		fmt.Printf("version %s (%s)\n", v.Version, v.UpdateType)
		fmt.Printf("Released: %s\n", released)
		fmt.Printf("\n    %s\n\n", v.Description)
		for _, u := range v.DataStructureUpdates {
			fmt.Printf("    %-16s %-12s %s\n", u.Operation, u.ReleaseStatus, u.Name)
		}
		fmt.Println()
	}
}
