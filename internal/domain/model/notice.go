package model

import "time"

// StatusReport is the vote status posted on a request's head commit.
type StatusReport struct {
	Kind      StatusKind
	Tally     Tally
	Threshold float64
	Window    VotingWindow
	ClosesAt  time.Time
	Now       time.Time
}

// Notice carries everything needed to render a decision comment or merge message.
type Notice struct {
	Kind          NoticeKind
	RequestNumber int
	CommitSHA     string // Merge commit; empty for rejections.
	Votes         []Vote
	Tally         Tally
	Threshold     float64
}
