package workflow

import "github.com/jordanfowler/dossier/task"

// edge is one permitted transition and the least-privileged actor allowed
// to perform it. A human may take any edge; the system only system edges.
type edge struct {
	from, to task.State
	actor    task.Actor
}

// matrix is the closed transition table. Anything absent is forbidden,
// including every transition out of done and any entry into approved that
// does not come from pending_approval.
var matrix = []edge{
	{task.StateReceived, task.StateNeedsAction, task.ActorSystem},
	{task.StateNeedsAction, task.StatePlanned, task.ActorSystem},
	{task.StatePlanned, task.StatePendingApproval, task.ActorSystem}, // sensitive action detected
	{task.StatePlanned, task.StateNeedsAction, task.ActorSystem},     // clarification required
	{task.StatePendingApproval, task.StateApproved, task.ActorHuman},
	{task.StatePendingApproval, task.StateRejected, task.ActorHuman},
	{task.StateApproved, task.StateDone, task.ActorSystem},     // execution succeeded
	{task.StateApproved, task.StateRejected, task.ActorSystem}, // execution failed
	{task.StateRejected, task.StateReceived, task.ActorHuman},  // restart with a revised approach
}

// Validate reports whether the ordered pair is in the transition table.
// Pure lookup, no side effects; unknown pairs are simply invalid.
func Validate(from, to task.State) bool {
	for _, e := range matrix {
		if e.from == from && e.to == to {
			return true
		}
	}
	return false
}

// ValidateActor reports whether the pair is permitted for the given actor.
// Human-only edges reject the system actor; humans may take any edge.
func ValidateActor(from, to task.State, actor task.Actor) bool {
	for _, e := range matrix {
		if e.from == from && e.to == to {
			return actor == task.ActorHuman || e.actor == task.ActorSystem
		}
	}
	return false
}
