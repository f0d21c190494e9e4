// Package cli implements the microstore command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/solhaug/microstore/internal/config"
	"github.com/solhaug/microstore/internal/datastore"
	"github.com/spf13/cobra"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config    *config.Config
	Datastore *datastore.Datastore
}

// initContext loads the config and opens the datastore aggregate
func initContext() *cmdContext {
	cfg, err := config.Load("")
	if err != nil {
		exitError("%v", err)
	}

	ds, err := datastore.Open(cfg.Root())
	if err != nil {
		exitError("failed to open datastore: %v", err)
	}

	return &cmdContext{Config: cfg, Datastore: ds}
}

var rootCmd = &cobra.Command{
	Use:   "microstore",
	Short: "Versioned statistical datastore",
	Long: `Microstore manages a versioned, file-backed datastore of statistical
datasets: a draft ledger of pending dataset operations, an append-only
release history, and consolidated metadata per released version.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(bumpCmd)
	rootCmd.AddCommand(deleteDraftCmd)
	rootCmd.AddCommand(setStatusCmd)
	rootCmd.AddCommand(auditCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
