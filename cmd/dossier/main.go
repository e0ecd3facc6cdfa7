// Command dossier is the operator CLI for the file-driven task workflow.
package main

import (
	"os"

	"github.com/jordanfowler/dossier/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
