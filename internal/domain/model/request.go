package model

import "time"

// Request represents an open pull request that the community is voting on.
type Request struct {
	Number       int
	RepoFullName string
	Title        string
	Author       string
	HeadSHA      string
	URL          string
	IsDraft      bool
	Labels       []string
	CreatedAt    time.Time

	// EligibleAt is the start of the voting period: the last push to the
	// head repository, or CreatedAt when that is unknown.
	EligibleAt time.Time
}

// Age returns how long the request has been eligible for voting at now.
func (r Request) Age(now time.Time) time.Duration {
	return now.Sub(r.EligibleAt)
}
