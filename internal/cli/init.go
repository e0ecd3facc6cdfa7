package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jordanfowler/dossier/config"
	"github.com/jordanfowler/dossier/task"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the location tree and a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultConfig()
		if _, err := os.Stat(cfgPath); err == nil {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded
		} else {
			if err := cfg.Save(cfgPath); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", cfgPath)
		}

		store, err := task.NewDirStore(cfg.DataDir)
		if err != nil {
			return err
		}
		fmt.Printf("initialized location tree under %s\n", store.Root())
		return nil
	},
}
