// Command microstore is the datastore maintainer's command-line interface.
package main

import (
	"os"

	"github.com/solhaug/microstore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
