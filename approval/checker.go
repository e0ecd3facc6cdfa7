package approval

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jordanfowler/dossier/audit"
	"github.com/jordanfowler/dossier/task"
	"github.com/jordanfowler/dossier/workflow"
)

// Audit action kinds emitted by the checker.
const (
	ActionApprovalRequest  = "approval_request"
	ActionApprovalDecision = "approval_decision"
	ActionApprovalBlock    = "approval_block"
)

// Checker creates and enforces approval requests. It implements the state
// machine's Gate so that no execution-enabling transition can skip it.
type Checker struct {
	store   task.Store
	machine *workflow.Machine
	trail   *audit.Logger
	log     *slog.Logger
	now     func() time.Time
}

// NewChecker wires a checker to the store, state machine, and audit trail.
// Pass a nil logger for slog.Default. The caller is expected to register
// the checker on the machine via SetGate.
func NewChecker(store task.Store, machine *workflow.Machine, trail *audit.Logger, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{store: store, machine: machine, trail: trail, log: log, now: time.Now}
}

// RequiresApproval reports whether the task must pass the approval gate:
// either classification finds a sensitive action in its title or content,
// or the task is explicitly flagged.
func (c *Checker) RequiresApproval(t *task.Task) bool {
	if t.RequiresApproval {
		return true
	}
	_, _, found := Classify(t.Title + "\n" + t.Content)
	return found
}

// IsApproved reports whether the task holds a valid approval: it must
// physically reside in the approved location AND carry a decision record
// with decision=approved and a decided-at timestamp. A file moved into
// the approved directory by hand, without the decision record, is not
// approved.
func (c *Checker) IsApproved(t *task.Task) bool {
	locs, err := c.store.Locate(t.ID)
	if err != nil || len(locs) != 1 || locs[0] != task.StateApproved {
		return false
	}
	// Re-read from disk: the embedded record on the caller's copy may be
	// stale relative to the store.
	cur, err := c.store.Read(task.StateApproved, t.ID)
	if err != nil {
		return false
	}
	return cur.Approval != nil &&
		cur.Approval.Decision == task.DecisionApproved &&
		cur.Approval.DecidedAt != nil
}

// Authorize implements workflow.Gate. Transitions into approved or done
// fail with ErrApprovalRequired while the task requires approval and no
// approved decision is recorded.
func (c *Checker) Authorize(t *task.Task, to task.State) error {
	if to != task.StateApproved && to != task.StateDone {
		return nil
	}
	if !c.RequiresApproval(t) {
		return nil
	}
	if t.Approval != nil && t.Approval.Decision == task.DecisionApproved && t.Approval.DecidedAt != nil {
		return nil
	}
	c.auditBlock(t.ID, fmt.Sprintf("transition into %s without approved decision", to))
	return fmt.Errorf("task %s entering %s: %w", t.ID, to, workflow.ErrApprovalRequired)
}

// CreateApprovalRequest embeds a pending request in the task, relocates it
// into pending_approval through the state machine (reusing its atomicity
// guarantee), and records the request in the audit trail.
func (c *Checker) CreateApprovalRequest(taskID string, action task.Action, risk task.Risk, justification string) (*task.Approval, error) {
	st, err := c.machine.CurrentState(taskID)
	if err != nil {
		return nil, err
	}
	t, err := c.store.Read(st, taskID)
	if err != nil {
		return nil, err
	}
	if t.Approval != nil && t.Approval.Decision == task.DecisionPending {
		return nil, fmt.Errorf("task %s already has a pending approval request", taskID)
	}

	req := &task.Approval{
		Action:        action,
		Risk:          risk,
		Justification: justification,
		RequestedAt:   c.now().UTC(),
		Decision:      task.DecisionPending,
	}
	t.Approval = req
	t.UpdatedAt = req.RequestedAt
	if err := c.store.Write(st, t); err != nil {
		return nil, fmt.Errorf("embed approval request in task %s: %w", taskID, err)
	}

	if _, err := c.machine.Execute(taskID, task.StatePendingApproval, task.ActorSystem,
		fmt.Sprintf("approval required for %s (%s risk)", action, risk)); err != nil {
		return nil, err
	}

	c.auditRequest(taskID, req)
	return req, nil
}

// Decide resolves a pending request and relocates the task accordingly:
// approve moves it to approved, reject to rejected. The decision record is
// written before the relocation so the gate observes it during the move.
func (c *Checker) Decide(taskID string, decision task.Decision, decider, comment string) error {
	if decision != task.DecisionApproved && decision != task.DecisionRejected {
		return fmt.Errorf("decision must be approved or rejected, got %q", decision)
	}
	st, err := c.machine.CurrentState(taskID)
	if err != nil {
		return err
	}
	if st != task.StatePendingApproval {
		return fmt.Errorf("task %s is in %s, not pending_approval: %w", taskID, st, workflow.ErrInvalidTransition)
	}
	t, err := c.store.Read(st, taskID)
	if err != nil {
		return err
	}
	if t.Approval == nil {
		return fmt.Errorf("task %s has no approval request to decide", taskID)
	}
	if t.Approval.Decided() {
		return fmt.Errorf("task %s approval already decided as %s", taskID, t.Approval.Decision)
	}

	now := c.now().UTC()
	t.Approval.Decision = decision
	t.Approval.DecidedAt = &now
	t.Approval.DecidedBy = decider
	t.UpdatedAt = now
	if err := c.store.Write(st, t); err != nil {
		return fmt.Errorf("record decision on task %s: %w", taskID, err)
	}

	target := task.StateApproved
	if decision == task.DecisionRejected {
		target = task.StateRejected
	}
	reason := comment
	if reason == "" {
		reason = fmt.Sprintf("%s by %s", decision, decider)
	}
	if _, err := c.machine.Execute(taskID, target, task.ActorHuman, reason); err != nil {
		return err
	}

	c.auditDecision(taskID, t.Approval)
	return nil
}

// BlockUnapprovedAction is the last check before a sensitive action runs.
// An attempted bypass is a policy violation and is logged critical.
func (c *Checker) BlockUnapprovedAction(t *task.Task) error {
	if !c.RequiresApproval(t) {
		return nil
	}
	if c.IsApproved(t) {
		return nil
	}
	c.auditBlock(t.ID, "sensitive action attempted without valid approval")
	return fmt.Errorf("task %s: %w", t.ID, workflow.ErrApprovalRequired)
}

func (c *Checker) auditRequest(taskID string, req *task.Approval) {
	if c.trail == nil {
		return
	}
	err := c.trail.Append(audit.Entry{
		Severity: audit.SeverityInfo,
		Action:   ActionApprovalRequest,
		TaskID:   taskID,
		Result:   audit.ResultPending,
		Context: map[string]string{
			"action":        string(req.Action),
			"risk":          string(req.Risk),
			"justification": req.Justification,
		},
	})
	if err != nil {
		c.log.Error("audit trail unavailable", "task", taskID, "error", err)
	}
}

func (c *Checker) auditDecision(taskID string, req *task.Approval) {
	if c.trail == nil {
		return
	}
	res := audit.ResultSuccess
	if req.Decision == task.DecisionRejected {
		res = audit.ResultFailure
	}
	err := c.trail.Append(audit.Entry{
		Severity: audit.SeverityInfo,
		Action:   ActionApprovalDecision,
		TaskID:   taskID,
		Result:   res,
		Context: map[string]string{
			"decision":   string(req.Decision),
			"decided_by": req.DecidedBy,
		},
	})
	if err != nil {
		c.log.Error("audit trail unavailable", "task", taskID, "error", err)
	}
}

func (c *Checker) auditBlock(taskID, detail string) {
	if c.trail == nil {
		return
	}
	err := c.trail.Append(audit.Entry{
		Severity: audit.SeverityCritical,
		Action:   ActionApprovalBlock,
		TaskID:   taskID,
		Result:   audit.ResultFailure,
		Error:    detail,
	})
	if err != nil {
		c.log.Error("audit trail unavailable", "task", taskID, "error", err)
	}
}
