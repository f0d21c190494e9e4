package cli

import (
	"fmt"
	"os"

	"github.com/solhaug/microstore/internal/config"
	"github.com/solhaug/microstore/internal/datastore"
	"github.com/solhaug/microstore/internal/models"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new datastore",
	Long: `Initialize a new datastore in the current directory.
This creates the configuration file, the ledger files, and the
datastore/data directory skeleton.`,
	Run: runInit,
}

var (
	initName     string
	initLabel    string
	initDesc     string
	initLanguage string
)

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Datastore name (required)")
	initCmd.Flags().StringVar(&initLabel, "label", "", "Human-readable label")
	initCmd.Flags().StringVar(&initDesc, "description", "", "Datastore description")
	initCmd.Flags().StringVar(&initLanguage, "language", "no", "Language code")
	initCmd.MarkFlagRequired("name")
}

func runInit(cmd *cobra.Command, args []string) {
	if _, err := config.FindRoot(); err == nil {
		exitError("datastore already exists")
	}

	cwd, err := os.Getwd()
	if err != nil {
		exitError("%v", err)
	}

	if _, err := config.Initialize(cwd, initName, initLabel, initDesc, initLanguage); err != nil {
		exitError("failed to write config: %v", err)
	}

	info := models.DatastoreInfo{
		Name:         initName,
		Label:        initLabel,
		Description:  initDesc,
		LanguageCode: initLanguage,
	}
	if _, err := datastore.Init(cwd, info); err != nil {
		exitError("failed to initialize datastore: %v", err)
	}

	fmt.Printf("Initialized empty datastore %s in %s\n", initName, cwd)
}
