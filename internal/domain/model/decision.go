package model

// DecisionState is the state a request reaches in one evaluation cycle.
type DecisionState string

const (
	StatePending                       DecisionState = "pending"
	StateApprovedOutsideWindow         DecisionState = "approved_outside_window"
	StateApprovedInWindow              DecisionState = "approved_in_window"
	StateRejectedOutsideWindowNegative DecisionState = "rejected_outside_window_negative"
	StateRejectedInWindow              DecisionState = "rejected_in_window"
	StateRejectedOutsideWindowPending  DecisionState = "rejected_outside_window_pending"
	StateCannotMerge                   DecisionState = "cannot_merge"

	// StateFailed marks a request whose evaluation was cut short by a
	// hosting API error. The next cycle re-evaluates it from scratch.
	StateFailed DecisionState = "failed"
)

// Decision is the coarse outcome derived from a DecisionState.
type Decision string

const (
	DecisionPending     Decision = "PENDING"
	DecisionApproved    Decision = "APPROVED"
	DecisionRejected    Decision = "REJECTED"
	DecisionCannotMerge Decision = "CANNOT_MERGE"
)

// Decision maps the state onto its coarse outcome.
func (s DecisionState) Decision() Decision {
	switch s {
	case StateApprovedInWindow, StateApprovedOutsideWindow:
		return DecisionApproved
	case StateRejectedInWindow, StateRejectedOutsideWindowNegative:
		return DecisionRejected
	case StateCannotMerge:
		return DecisionCannotMerge
	default:
		return DecisionPending
	}
}

// Terminal reports whether the state ends the request's processing for the cycle
// with an action taken on the hosting side.
func (s DecisionState) Terminal() bool {
	switch s {
	case StateApprovedInWindow, StateRejectedInWindow, StateCannotMerge:
		return true
	default:
		return false
	}
}

// ChangesHistory reports whether reaching the state merged or closed the request.
func (s DecisionState) ChangesHistory() bool {
	return s == StateApprovedInWindow || s == StateRejectedInWindow
}

// Assessment is the threshold classification of a tally.
type Assessment struct {
	Threshold float64
	Approved  bool
	Contested bool
}

// MergeOutcome is the result of a merge attempt. A request that cannot be
// merged (conflict, stale head) is reported with Merged=false, not as an error.
type MergeOutcome struct {
	Merged    bool
	CommitSHA string
	Reason    string
}
