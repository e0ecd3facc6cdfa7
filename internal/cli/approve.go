package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jordanfowler/dossier/task"
)

var (
	requestJustification string
	decideBy             string
	decideComment        string
)

func init() {
	requestCmd.Flags().StringVar(&requestJustification, "justification", "", "why this action should be allowed")

	for _, c := range []*cobra.Command{approveCmd, rejectCmd} {
		c.Flags().StringVar(&decideBy, "by", "", "decider identity (defaults from config)")
		c.Flags().StringVar(&decideComment, "comment", "", "reviewer comment recorded on the transition")
	}
}

var requestCmd = &cobra.Command{
	Use:   "request <id>",
	Short: "Classify a task and move it to pending_approval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		t, _, err := a.findTask(args[0])
		if err != nil {
			return err
		}

		action, risk, found := classifyTask(t)
		if !found && !t.RequiresApproval {
			return fmt.Errorf("task %s: no sensitive action detected and not flagged", t.ID)
		}
		req, err := a.checker.CreateApprovalRequest(t.ID, action, risk, requestJustification)
		if err != nil {
			return err
		}
		fmt.Printf("approval requested for %s: %s (%s risk)\n", t.ID, req.Action, req.Risk)
		return nil
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending task and move it to approved",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return decide(args[0], task.DecisionApproved) },
}

var rejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending task and move it to rejected",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return decide(args[0], task.DecisionRejected) },
}

func decide(id string, decision task.Decision) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	by := decideBy
	if by == "" {
		by = a.cfg.DefaultActor
	}
	if err := a.checker.Decide(id, decision, by, decideComment); err != nil {
		return err
	}
	fmt.Printf("task %s %s by %s\n", id, decision, by)
	return nil
}
