package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jordanfowler/dossier/task"
)

var (
	newPriority      string
	newContent       string
	newSource        string
	newForceApproval bool
)

func init() {
	newCmd.Flags().StringVar(&newPriority, "priority", string(task.PriorityNormal), "low|normal|high|critical")
	newCmd.Flags().StringVar(&newContent, "content", "", "task body text")
	newCmd.Flags().StringVar(&newSource, "source", "", "source channel (defaults from config)")
	newCmd.Flags().BoolVar(&newForceApproval, "require-approval", false, "force the approval gate regardless of content")
}

var newCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a task in the received location",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		source := newSource
		if source == "" {
			source = a.cfg.DefaultSource
		}
		t := &task.Task{
			Title:            strings.Join(args, " "),
			Source:           source,
			Priority:         task.Priority(newPriority),
			Content:          newContent,
			RequiresApproval: newForceApproval,
		}
		id, err := a.store.Create(task.StateReceived, t)
		if err != nil {
			return err
		}
		fmt.Printf("created task %s in %s\n", id, task.StateReceived)
		return nil
	},
}
