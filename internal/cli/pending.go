package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show the bump manifesto",
	Long: `Show the draft entries that are pending release or deletion, as the
manifesto a bump would have to confirm.`,
	Run: runPending,
}

func runPending(cmd *cobra.Command, args []string) {
	c := initContext()
	draft := c.Datastore.Draft()

	manifesto := draft
	manifesto.DataStructureUpdates = draft.Pending()

	if len(manifesto.DataStructureUpdates) == 0 {
		fmt.Println("No draft entries are pending, a bump would be rejected")
		return
	}

	out, err := json.MarshalIndent(manifesto, "", "    ")
	if err != nil {
		exitError("encoding manifesto: %v", err)
	}
	fmt.Println(string(out))
}
