// Package workflow implements the state machine that drives a task
// through its lifecycle by relocating its backing file between state
// locations. State is re-derived from disk on every call; nothing in
// memory is trusted across calls.
package workflow

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jordanfowler/dossier/audit"
	"github.com/jordanfowler/dossier/task"
)

// Audit action kinds emitted by the state machine.
const (
	ActionTransition  = "transition"
	ActionConsistency = "consistency"
)

// Transition is the immutable record of one successful relocation.
type Transition struct {
	ID     string
	TaskID string
	From   task.State
	To     task.State
	At     time.Time
	Reason string
	Actor  task.Actor

	// Logged is false when the audit append for this transition failed
	// and the task was flagged for reconciliation instead.
	Logged bool
}

// Gate authorizes entry into execution-enabling states. The approval
// checker implements it; a nil gate disables the check (tests only).
type Gate interface {
	// Authorize returns ErrApprovalRequired (wrapped) when the task may
	// not enter the target state without a recorded human approval.
	Authorize(t *task.Task, to task.State) error
}

// Machine validates and executes transitions against a task store.
type Machine struct {
	store task.Store
	trail *audit.Logger
	gate  Gate
	log   *slog.Logger
	now   func() time.Time
}

// NewMachine builds a state machine over the given store and audit trail.
// Pass a nil logger for slog.Default.
func NewMachine(store task.Store, trail *audit.Logger, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	return &Machine{store: store, trail: trail, log: log, now: time.Now}
}

// SetGate wires the approval gate consulted before execution-enabling
// transitions.
func (m *Machine) SetGate(g Gate) { m.gate = g }

// CurrentState derives a task's state from its physical location alone.
// Zero locations is ErrNotFound; more than one, or a header that disagrees
// with the holding location, is ErrConsistency and is audit-logged as
// critical because it means the store has drifted.
func (m *Machine) CurrentState(taskID string) (task.State, error) {
	locs, err := m.store.Locate(taskID)
	if err != nil {
		return "", fmt.Errorf("locate task %s: %w", taskID, err)
	}
	switch len(locs) {
	case 0:
		return "", fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	case 1:
	default:
		m.auditCritical(taskID, fmt.Sprintf("task present in %d locations: %v", len(locs), locs))
		return "", fmt.Errorf("task %s in multiple locations %v: %w", taskID, locs, ErrConsistency)
	}

	st := locs[0]
	t, err := m.store.Read(st, taskID)
	if err != nil {
		return "", err
	}
	if t.State != st {
		m.auditCritical(taskID, fmt.Sprintf("declared state %q but located in %q", t.State, st))
		return "", fmt.Errorf("task %s declares %q but sits in %q: %w", taskID, t.State, st, ErrConsistency)
	}
	return st, nil
}

// Execute drives one transition: re-read state from disk, validate,
// consult the approval gate, atomically relocate, then update the header
// and append the audit record.
//
// After the relocation has succeeded the move is never rolled back: a
// failed header update or audit append returns the Transition alongside a
// non-nil error, and the gap is surfaced as a critical audit entry (or an
// unlogged-transition flag) for out-of-band repair.
func (m *Machine) Execute(taskID string, to task.State, actor task.Actor, reason string) (*Transition, error) {
	from, err := m.CurrentState(taskID)
	if err != nil {
		return nil, err
	}

	if !Validate(from, to) {
		m.auditEntry(audit.SeverityError, taskID, audit.ResultFailure,
			fmt.Sprintf("transition %s -> %s not permitted", from, to), nil)
		return nil, fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	if !ValidateActor(from, to, actor) {
		m.auditEntry(audit.SeverityError, taskID, audit.ResultFailure,
			fmt.Sprintf("transition %s -> %s requires a human actor", from, to), nil)
		return nil, fmt.Errorf("%s -> %s by %s: %w", from, to, actor, ErrInvalidTransition)
	}

	t, err := m.store.Read(from, taskID)
	if err != nil {
		return nil, err
	}
	if m.gate != nil {
		if err := m.gate.Authorize(t, to); err != nil {
			return nil, err
		}
	}

	// Single point of truth-change. On failure the task is untouched at
	// its original location and the error is retryable by the caller.
	if err := m.store.Move(taskID, from, to); err != nil {
		m.auditEntry(audit.SeverityError, taskID, audit.ResultFailure,
			fmt.Sprintf("relocation %s -> %s failed: %v", from, to, err), nil)
		return nil, fmt.Errorf("relocate task %s: %w", taskID, err)
	}

	now := m.now().UTC()
	tr := &Transition{
		ID:     uuid.New().String(),
		TaskID: taskID,
		From:   from,
		To:     to,
		At:     now,
		Reason: reason,
		Actor:  actor,
		Logged: true,
	}

	t.State = to
	t.UpdatedAt = now
	t.History = append(t.History, task.HistoryEntry{State: to, At: now, Actor: actor})
	if err := m.store.Write(to, t); err != nil {
		// The relocation stands; rollback could itself fail and lose the
		// file. Surface the gap instead.
		m.auditCritical(taskID, fmt.Sprintf("header update failed after relocation %s -> %s: %v", from, to, err))
		return tr, fmt.Errorf("update task %s header after relocation: %w", taskID, err)
	}

	if err := m.recordTransition(tr); err != nil {
		tr.Logged = false
		t.UnloggedTransition = true
		if werr := m.store.Write(to, t); werr != nil {
			m.log.Error("failed to flag unlogged transition", "task", taskID, "error", werr)
		}
		return tr, err
	}
	return tr, nil
}

// ListTasksIn enumerates a location's tasks. A task whose header disagrees
// with the location is excluded from the result and audit-logged as
// critical so automatic processing skips it until a human resolves it.
func (m *Machine) ListTasksIn(st task.State) ([]*task.Task, error) {
	all, err := m.store.List(st)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", st, err)
	}
	tasks := make([]*task.Task, 0, len(all))
	for _, t := range all {
		if t.State != st {
			m.auditCritical(t.ID, fmt.Sprintf("declared state %q but listed in %q", t.State, st))
			m.log.Warn("excluding inconsistent task from listing", "task", t.ID, "location", st, "declared", t.State)
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// recordTransition appends the transition to the audit trail.
func (m *Machine) recordTransition(tr *Transition) error {
	if m.trail == nil {
		return nil
	}
	return m.trail.Append(audit.Entry{
		Severity: audit.SeverityInfo,
		Action:   ActionTransition,
		TaskID:   tr.TaskID,
		Result:   audit.ResultSuccess,
		Context: map[string]string{
			"transition_id": tr.ID,
			"from":          string(tr.From),
			"to":            string(tr.To),
			"actor":         string(tr.Actor),
			"reason":        tr.Reason,
		},
	})
}

// auditEntry emits a non-transition audit record, falling back to slog if
// the trail is unavailable.
func (m *Machine) auditEntry(sev audit.Severity, taskID string, res audit.Result, detail string, ctx map[string]string) {
	if m.trail == nil {
		return
	}
	if err := m.trail.Append(audit.Entry{
		Severity: sev,
		Action:   ActionTransition,
		TaskID:   taskID,
		Result:   res,
		Error:    detail,
		Context:  ctx,
	}); err != nil {
		m.log.Error("audit trail unavailable", "task", taskID, "detail", detail, "error", err)
	}
}

// auditCritical records a consistency violation.
func (m *Machine) auditCritical(taskID, detail string) {
	if m.trail == nil {
		return
	}
	if err := m.trail.Append(audit.Entry{
		Severity: audit.SeverityCritical,
		Action:   ActionConsistency,
		TaskID:   taskID,
		Result:   audit.ResultFailure,
		Error:    detail,
	}); err != nil {
		m.log.Error("audit trail unavailable", "task", taskID, "detail", detail, "error", err)
	}
}

// IsRetryable reports whether err is a transient storage failure worth
// retrying. Invalid transitions, approval blocks, and consistency
// violations never are.
func IsRetryable(err error) bool {
	var fe *task.FileOpError
	if errors.As(err, &fe) {
		return !fe.Permanent
	}
	return false
}
