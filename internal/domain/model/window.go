package model

import "time"

// VotingWindow is the length of the voting period applied to a request during
// one cycle. For a request eligible at t the period is [t, t+Length).
type VotingWindow struct {
	Kind   WindowKind
	Length time.Duration
}

// ClosesAt returns the end of the voting period for a request eligible at start.
func (w VotingWindow) ClosesAt(start time.Time) time.Time {
	return start.Add(w.Length)
}

// Elapsed reports whether the voting period that began at start is over at now,
// meaning the request's decision may be acted upon.
func (w VotingWindow) Elapsed(start, now time.Time) bool {
	return now.After(w.ClosesAt(start))
}
