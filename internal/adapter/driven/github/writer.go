package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
	"github.com/ericfisherdev/mergevote/internal/notice"
)

// Compile-time interface satisfaction check.
var _ driven.HostingWriter = (*Client)(nil)

// StatusContext is the commit status context the vote status is reported under.
const StatusContext = "mergevote/vote"

var statusStates = map[model.StatusKind]string{
	model.StatusAccepted: "success",
	model.StatusRejected: "failure",
	model.StatusPending:  "pending",
}

// PostStatus sets the vote commit status on the request's head SHA.
func (c *Client) PostStatus(ctx context.Context, repoFullName string, req model.Request, report model.StatusReport) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	state, ok := statusStates[report.Kind]
	if !ok {
		return fmt.Errorf("unknown status kind %q", report.Kind)
	}

	u := fmt.Sprintf("repos/%s/%s/statuses/%s", owner, repo, req.HeadSHA)
	httpReq, err := c.gh.NewRequest(http.MethodPost, u, &gh.RepoStatus{
		State:       gh.Ptr(state),
		Description: gh.Ptr(notice.StatusDescription(report)),
		Context:     gh.Ptr(StatusContext),
		TargetURL:   gh.Ptr(req.URL),
	})
	if err != nil {
		return fmt.Errorf("building status request for %s#%d: %w", repoFullName, req.Number, err)
	}

	if _, err := c.gh.Do(ctx, httpReq, nil); err != nil {
		return fmt.Errorf("creating status for %s#%d: %w", repoFullName, req.Number, err)
	}

	return nil
}

// MergeRequest merges the request at its evaluated head SHA. A request that
// is not mergeable, or whose head moved since evaluation, is reported as not
// merged rather than as an error.
func (c *Client) MergeRequest(ctx context.Context, repoFullName string, req model.Request, n model.Notice) (model.MergeOutcome, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.MergeOutcome{}, err
	}

	result, _, err := c.gh.PullRequests.Merge(ctx, owner, repo, req.Number, notice.MergeMessage(n), &gh.PullRequestOptions{
		SHA:         req.HeadSHA,
		MergeMethod: c.mergeMethod,
	})
	if err != nil {
		switch statusCode(err) {
		case http.StatusMethodNotAllowed, http.StatusConflict, http.StatusUnprocessableEntity:
			slog.Warn("request not mergeable", "repo", repoFullName, "pr", req.Number, "error", err)
			return model.MergeOutcome{Merged: false, Reason: mergeFailureReason(err)}, nil
		}
		return model.MergeOutcome{}, fmt.Errorf("merging %s#%d: %w", repoFullName, req.Number, err)
	}

	if !result.GetMerged() {
		return model.MergeOutcome{Merged: false, Reason: result.GetMessage()}, nil
	}

	return model.MergeOutcome{Merged: true, CommitSHA: result.GetSHA()}, nil
}

func mergeFailureReason(err error) string {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		return ghErr.Message
	}
	return err.Error()
}

// LabelRequest replaces the request's labels with the given set.
func (c *Client) LabelRequest(ctx context.Context, repoFullName string, number int, labels []string) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	if _, _, err := c.gh.Issues.ReplaceLabelsForIssue(ctx, owner, repo, number, labels); err != nil {
		return fmt.Errorf("replacing labels on %s#%d: %w", repoFullName, number, err)
	}

	return nil
}

// LeaveComment posts the decision notice as a top-level comment on the request.
func (c *Client) LeaveComment(ctx context.Context, repoFullName string, number int, n model.Notice) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	_, _, err = c.gh.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{
		Body: gh.Ptr(notice.Comment(n)),
	})
	if err != nil {
		return fmt.Errorf("creating comment on %s#%d: %w", repoFullName, number, err)
	}

	return nil
}

// CloseRequest closes the request without merging it.
func (c *Client) CloseRequest(ctx context.Context, repoFullName string, req model.Request) error {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return err
	}

	_, _, err = c.gh.PullRequests.Edit(ctx, owner, repo, req.Number, &gh.PullRequest{
		State: gh.Ptr("closed"),
	})
	if err != nil {
		return fmt.Errorf("closing %s#%d: %w", repoFullName, req.Number, err)
	}

	return nil
}

// FollowUser follows the given account from the bot account.
func (c *Client) FollowUser(ctx context.Context, login string) error {
	if _, err := c.gh.Users.Follow(ctx, login); err != nil {
		return fmt.Errorf("following %s: %w", login, err)
	}
	return nil
}
