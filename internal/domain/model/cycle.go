package model

import "time"

// RequestOutcome is the result of evaluating one request in a cycle.
type RequestOutcome struct {
	Number     int
	Author     string
	State      DecisionState
	Tally      Tally
	Assessment Assessment
	Window     VotingWindow
	InWindow   bool
	CommitSHA  string
	Err        error
}

// CycleResult is the fold of every request outcome in one polling cycle.
type CycleResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Threshold  float64
	Outcomes   []RequestOutcome

	// Changed is set once any request was merged or closed during the cycle.
	Changed bool
	Merged  int
	Closed  int
	Failed  int
}

// Add folds a request outcome into the cycle result.
func (c *CycleResult) Add(o RequestOutcome) {
	c.Outcomes = append(c.Outcomes, o)
	switch o.State {
	case StateApprovedInWindow:
		c.Merged++
	case StateRejectedInWindow:
		c.Closed++
	case StateFailed:
		c.Failed++
	}
	c.Changed = c.Changed || o.State.ChangesHistory()
}
