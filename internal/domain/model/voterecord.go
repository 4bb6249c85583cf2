package model

import "time"

// VoteRecord archives the vote set of a request at the moment it was merged or closed.
type VoteRecord struct {
	ID            string
	RepoFullName  string
	RequestNumber int
	HeadSHA       string
	Outcome       RecordOutcome
	CommitSHA     string
	Total         float64
	Variance      float64
	Threshold     float64
	Votes         []Vote
	RecordedAt    time.Time
}
