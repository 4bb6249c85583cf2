// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// ErrInvalidRepository is returned when a repository name is not of the form owner/repo.
var ErrInvalidRepository = errors.New("invalid repository name: expected owner/repo")

// HostingClient defines the driven port for reading requests and votes from
// the code-hosting service.
type HostingClient interface {
	// ListEligibleRequests returns open, non-draft requests whose voting
	// period started at least minAge ago.
	ListEligibleRequests(ctx context.Context, repoFullName string, minAge time.Duration) ([]model.Request, error)
	// FetchVotes returns every vote currently cast on the request, one per voter.
	FetchVotes(ctx context.Context, repoFullName string, req model.Request) ([]model.Vote, error)
	// FetchRepository returns the repository metadata used to derive the approval threshold.
	FetchRepository(ctx context.Context, repoFullName string) (model.Repository, error)
}

// HostingWriter defines the driven port for the mutations the decision engine
// requests on the code-hosting service. It is separate from HostingClient so
// a dry-run implementation can stand in for writes only.
type HostingWriter interface {
	// PostStatus reports the vote status on the request's head commit.
	PostStatus(ctx context.Context, repoFullName string, req model.Request, report model.StatusReport) error
	// MergeRequest merges the request. A conflict or stale head is reported
	// as MergeOutcome{Merged: false}; a non-nil error means the hosting API
	// call itself failed.
	MergeRequest(ctx context.Context, repoFullName string, req model.Request, notice model.Notice) (model.MergeOutcome, error)
	// LabelRequest replaces the request's labels with the given set.
	LabelRequest(ctx context.Context, repoFullName string, number int, labels []string) error
	// LeaveComment posts the decision notice as a comment on the request.
	LeaveComment(ctx context.Context, repoFullName string, number int, notice model.Notice) error
	// CloseRequest closes the request without merging.
	CloseRequest(ctx context.Context, repoFullName string, req model.Request) error
	// FollowUser follows the given account from the bot account.
	FollowUser(ctx context.Context, login string) error
}
