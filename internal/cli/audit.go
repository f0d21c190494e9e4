package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/solhaug/microstore/internal/audit"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show finished jobs from the audit log",
	Long:  `Show the most recent finished jobs recorded by the coordinator, newest first.`,
	Run:   runAudit,
}

var auditLimit int

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Maximum number of entries to show")
}

func runAudit(cmd *cobra.Command, args []string) {
	c := initContext()

	log, err := audit.Open(filepath.Join(c.Config.DatastorePath(), "audit.db"))
	if err != nil {
		exitError("failed to open audit log: %v", err)
	}
	defer log.Close()

	entries, err := log.List(auditLimit)
	if err != nil {
		exitError("failed to read audit log: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("No finished jobs recorded")
		return
	}

	for _, e := range entries {
		fmt.Printf("%s  %-10s %-16s %-20s %s\n",
			e.FinishedAt.UTC().Format(time.RFC3339), e.Status, e.Operation, e.Dataset, e.JobID)
		if e.Message != "" {
			fmt.Printf("    %s\n", e.Message)
		}
	}
}
