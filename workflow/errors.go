package workflow

import "errors"

// Sentinel errors for the control plane's failure taxonomy. Storage-level
// failures surface as *task.FileOpError and audit failures as
// *audit.WriteError; both pass through wrapped.
var (
	// ErrInvalidTransition: the requested from/to pair (or its actor) is
	// not in the transition matrix. Never retried.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrApprovalRequired: a sensitive action was attempted without a
	// recorded human approval. A policy violation, not an ordinary error.
	ErrApprovalRequired = errors.New("approval required")

	// ErrNotFound: no location holds the task's file.
	ErrNotFound = errors.New("task not found")

	// ErrConsistency: the task's declared state disagrees with its
	// physical location, or the file appears in multiple locations.
	// Never auto-corrected; a human must resolve it.
	ErrConsistency = errors.New("consistency violation")
)
