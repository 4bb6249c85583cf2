package model

import "time"

// Repository holds the repository metadata the approval threshold is derived from.
type Repository struct {
	FullName      string
	DefaultBranch string
	Watchers      int
	CreatedAt     time.Time
}
