package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jordanfowler/dossier/task"
)

var listCmd = &cobra.Command{
	Use:   "list <state>",
	Short: "List tasks held in one workflow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st := task.State(args[0])
		if !st.Valid() {
			return fmt.Errorf("unknown state %q (one of: %v)", args[0], task.States)
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		tasks, err := a.machine.ListTasksIn(st)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Printf("no tasks in %s\n", st)
			return nil
		}
		for _, t := range tasks {
			marker := " "
			if t.Approval != nil && t.Approval.Decision == task.DecisionPending {
				marker = "!"
			}
			fmt.Printf("%s %s  [%s]  %s\n", marker, t.ID, t.Priority, t.Title)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a task's header, history, and content",
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

		fmt.Printf("id:       %s\n", t.ID)
		fmt.Printf("title:    %s\n", t.Title)
		fmt.Printf("state:    %s\n", st)
		fmt.Printf("priority: %s\n", t.Priority)
		fmt.Printf("source:   %s\n", t.Source)
		fmt.Printf("created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05 MST"))
		if t.Approval != nil {
			ap := t.Approval
			fmt.Printf("approval: %s (%s risk) decision=%s", ap.Action, ap.Risk, ap.Decision)
			if ap.DecidedAt != nil {
				fmt.Printf(" by %s at %s", ap.DecidedBy, ap.DecidedAt.Format("2006-01-02 15:04:05 MST"))
			}
			fmt.Println()
		}
		if t.UnloggedTransition {
			fmt.Println("warning:  has an unlogged transition pending reconciliation")
		}
		fmt.Println("history:")
		for _, h := range t.History {
			fmt.Printf("  %s  %-18s %s\n", h.At.Format("2006-01-02 15:04:05"), h.State, h.Actor)
		}
		if t.Content != "" {
			fmt.Println()
			fmt.Println(t.Content)
		}
		return nil
	},
}
