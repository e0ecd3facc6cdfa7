package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jordanfowler/dossier/task"
)

var (
	moveActor  string
	moveReason string
)

func init() {
	moveCmd.Flags().StringVar(&moveActor, "actor", string(task.ActorHuman), "human|system")
	moveCmd.Flags().StringVar(&moveReason, "reason", "", "human-readable reason recorded on the transition")
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <state>",
	Short: "Execute a workflow transition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, target := args[0], task.State(args[1])
		if !target.Valid() {
			return fmt.Errorf("unknown state %q (one of: %v)", args[1], task.States)
		}
		actor := task.Actor(moveActor)
		if actor != task.ActorHuman && actor != task.ActorSystem {
			return fmt.Errorf("actor must be human or system, got %q", moveActor)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		tr, err := a.machine.Execute(id, target, actor, moveReason)
		if err != nil {
			if tr != nil {
				// Relocation stood but bookkeeping failed; say so.
				fmt.Printf("moved %s: %s -> %s (with errors: %v)\n", id, tr.From, tr.To, err)
				return nil
			}
			return err
		}
		fmt.Printf("moved %s: %s -> %s\n", id, tr.From, tr.To)
		return nil
	},
}
