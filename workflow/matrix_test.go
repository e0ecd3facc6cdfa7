package workflow

import (
	"testing"

	"github.com/jordanfowler/dossier/task"
)

func TestValidate_PermittedPairs(t *testing.T) {
	permitted := []struct{ from, to task.State }{
		{task.StateReceived, task.StateNeedsAction},
		{task.StateNeedsAction, task.StatePlanned},
		{task.StatePlanned, task.StatePendingApproval},
		{task.StatePlanned, task.StateNeedsAction},
		{task.StatePendingApproval, task.StateApproved},
		{task.StatePendingApproval, task.StateRejected},
		{task.StateApproved, task.StateDone},
		{task.StateApproved, task.StateRejected},
		{task.StateRejected, task.StateReceived},
	}
	for _, p := range permitted {
		if !Validate(p.from, p.to) {
			t.Errorf("Validate(%s, %s) = false, want true", p.from, p.to)
		}
	}
}

func TestValidate_ForbiddenPairs(t *testing.T) {
	// Exhaustive: any pair not in the table is invalid, in particular
	// every exit from done and every entry into approved that skips
	// pending_approval.
	permitted := map[[2]task.State]bool{}
	for _, e := range matrix {
		permitted[[2]task.State{e.from, e.to}] = true
	}
	for _, from := range task.States {
		for _, to := range task.States {
			want := permitted[[2]task.State{from, to}]
			if got := Validate(from, to); got != want {
				t.Errorf("Validate(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	for _, to := range task.States {
		if Validate(task.StateDone, to) {
			t.Errorf("done -> %s permitted; done must be terminal", to)
		}
	}
	for _, from := range task.States {
		if from != task.StatePendingApproval && Validate(from, task.StateApproved) {
			t.Errorf("%s -> approved permitted; only pending_approval may enter approved", from)
		}
	}
}

func TestValidateActor(t *testing.T) {
	cases := []struct {
		from, to task.State
		actor    task.Actor
		want     bool
	}{
		{task.StateReceived, task.StateNeedsAction, task.ActorSystem, true},
		{task.StateReceived, task.StateNeedsAction, task.ActorHuman, true},
		{task.StatePendingApproval, task.StateApproved, task.ActorHuman, true},
		{task.StatePendingApproval, task.StateApproved, task.ActorSystem, false},
		{task.StatePendingApproval, task.StateRejected, task.ActorSystem, false},
		{task.StateRejected, task.StateReceived, task.ActorSystem, false},
		{task.StateRejected, task.StateReceived, task.ActorHuman, true},
		{task.StateDone, task.StateReceived, task.ActorHuman, false}, // not in table at all
	}
	for _, tc := range cases {
		if got := ValidateActor(tc.from, tc.to, tc.actor); got != tc.want {
			t.Errorf("ValidateActor(%s, %s, %s) = %v, want %v", tc.from, tc.to, tc.actor, got, tc.want)
		}
	}
}
