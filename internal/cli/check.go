package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jordanfowler/dossier/approval"
	"github.com/jordanfowler/dossier/task"
)

// classifyTask runs the keyword classifier over the task's title and body,
// falling back to the most conservative category when the task is flagged
// but nothing matched.
func classifyTask(t *task.Task) (task.Action, task.Risk, bool) {
	action, risk, found := approval.Classify(t.Title + "\n" + t.Content)
	if !found && t.RequiresApproval {
		return task.ActionDeleteData, task.RiskHigh, false
	}
	return action, risk, found
}

var checkCmd = &cobra.Command{
	Use:   "check <id>",
	Short: "Dry-run the sensitive-action classifier against a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		t, st, err := a.findTask(args[0])
		if err != nil {
			return err
		}

		action, risk, found := approval.Classify(t.Title + "\n" + t.Content)
		if found {
			fmt.Printf("classified: %s (%s risk)\n", action, risk)
		} else {
			fmt.Println("classified: no sensitive action detected")
		}
		fmt.Printf("requires approval: %v\n", a.checker.RequiresApproval(t))
		fmt.Printf("is approved:       %v (currently in %s)\n", a.checker.IsApproved(t), st)
		return nil
	},
}
