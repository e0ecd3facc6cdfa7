// Package task defines the task model and its filesystem persistence.
//
// A task is a plain text file: a YAML metadata header between "---" fences
// followed by free-form content. The directory holding the file doubles as
// the task's workflow state, so the filesystem is the single source of
// truth for where every task stands.
package task

import "time"

// State is the lifecycle state of a task. Each state maps 1:1 to a
// directory under the store root; a task is in a state exactly when its
// file sits in that directory.
type State string

const (
	StateReceived        State = "received"
	StateNeedsAction     State = "needs_action"
	StatePlanned         State = "planned"
	StatePendingApproval State = "pending_approval"
	StateApproved        State = "approved"
	StateRejected        State = "rejected"
	StateDone            State = "done"
)

// States lists every workflow state in lifecycle order. Order matters to
// callers that scan locations deterministically.
var States = []State{
	StateReceived,
	StateNeedsAction,
	StatePlanned,
	StatePendingApproval,
	StateApproved,
	StateRejected,
	StateDone,
}

// Valid reports whether s is one of the seven workflow states.
func (s State) Valid() bool {
	for _, st := range States {
		if s == st {
			return true
		}
	}
	return false
}

// Terminal reports whether s permits no outgoing transitions.
func (s State) Terminal() bool {
	return s == StateDone || s == StateRejected
}

// Priority determines task processing order.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Actor identifies who performed a transition.
type Actor string

const (
	ActorSystem Actor = "system"
	ActorHuman  Actor = "human"
)

// Action is a sensitive-action category detected in task content.
type Action string

const (
	ActionSendMessage  Action = "send-message"
	ActionMakePayment  Action = "make-payment"
	ActionPostPublicly Action = "post-publicly"
	ActionDeleteData   Action = "delete-data"
)

// Risk grades how dangerous a sensitive action is.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Decision is the resolution state of an approval request.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// HistoryEntry records one past transition in the task's own header.
type HistoryEntry struct {
	State State     `yaml:"state"`
	At    time.Time `yaml:"at"`
	Actor Actor     `yaml:"actor"`
}

// Approval is the human-approval record embedded in a task. It is created
// once when a sensitive action is detected and mutated exactly once, by a
// human decision.
type Approval struct {
	Action        Action     `yaml:"action"`
	Risk          Risk       `yaml:"risk"`
	Justification string     `yaml:"justification"`
	RequestedAt   time.Time  `yaml:"requested_at"`
	Decision      Decision   `yaml:"decision"`
	DecidedAt     *time.Time `yaml:"decided_at,omitempty"`
	DecidedBy     string     `yaml:"decided_by,omitempty"`
}

// Decided reports whether a human has resolved the request. A decision
// without a timestamp does not count; both must be present.
func (a *Approval) Decided() bool {
	return a != nil && a.Decision != DecisionPending && a.DecidedAt != nil
}

// Task is a unit of work backed by a single file.
type Task struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Source   string   `yaml:"source"` // channel the task arrived from, e.g. "email"
	State    State    `yaml:"state"`  // declared state; must match the holding directory
	Priority Priority `yaml:"priority"`

	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`

	History  []HistoryEntry `yaml:"history"`
	Approval *Approval      `yaml:"approval,omitempty"`

	// RequiresApproval forces the approval gate regardless of what
	// classification finds in the content.
	RequiresApproval bool `yaml:"requires_approval,omitempty"`

	// UnloggedTransition marks a task whose last transition could not be
	// written to the audit log. Cleared during out-of-band reconciliation.
	UnloggedTransition bool `yaml:"unlogged_transition,omitempty"`

	// Content is the free-text body below the header.
	Content string `yaml:"-"`
}
