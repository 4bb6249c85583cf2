// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
	"github.com/ericfisherdev/mergevote/internal/domain/voting"
)

// CycleEnv holds the values fixed for the duration of one polling cycle.
type CycleEnv struct {
	RepoFullName string
	Now          time.Time
	Threshold    float64
}

// DecisionService runs the decision state machine for a single request and
// carries out the hosting-side actions the resulting state calls for.
type DecisionService struct {
	client  driven.HostingClient
	writer  driven.HostingWriter
	records driven.VoteRecordStore
	windows voting.WindowPolicy
}

// NewDecisionService creates a DecisionService with all required dependencies.
func NewDecisionService(
	client driven.HostingClient,
	writer driven.HostingWriter,
	records driven.VoteRecordStore,
	windows voting.WindowPolicy,
) *DecisionService {
	return &DecisionService{
		client:  client,
		writer:  writer,
		records: records,
		windows: windows,
	}
}

// Evaluate decides one request and applies the decision. The returned error is
// non-nil only when the request could not be decided or its terminal action
// failed; the outcome's State is then StateFailed. Failures of follow-up
// bookkeeping (status, comment, label, follow, archive) are logged and joined
// into the outcome's Err without changing its state.
func (s *DecisionService) Evaluate(ctx context.Context, env CycleEnv, req model.Request) (model.RequestOutcome, error) {
	outcome := model.RequestOutcome{
		Number: req.Number,
		Author: req.Author,
		State:  model.StateFailed,
	}

	votes, err := s.client.FetchVotes(ctx, env.RepoFullName, req)
	if err != nil {
		outcome.Err = fmt.Errorf("fetching votes for #%d: %w", req.Number, err)
		return outcome, outcome.Err
	}

	tally := voting.Aggregate(votes)
	assessment := voting.Assess(tally, env.Threshold)
	window := s.windows.Select(assessment, env.Now)
	inWindow := window.Elapsed(req.EligibleAt, env.Now)
	state := voting.Decide(assessment, tally.Total, inWindow)

	outcome.Tally = tally
	outcome.Assessment = assessment
	outcome.Window = window
	outcome.InWindow = inWindow

	slog.Debug("request assessed",
		"repo", env.RepoFullName,
		"pr", req.Number,
		"votes", tally.Count,
		"total", tally.Total,
		"variance", tally.Variance,
		"threshold", env.Threshold,
		"approved", assessment.Approved,
		"contested", assessment.Contested,
		"window", string(window.Kind),
		"in_window", inWindow,
	)

	d := &decision{
		svc:    s,
		env:    env,
		req:    req,
		votes:  votes,
		window: window,
		out:    &outcome,
	}

	switch state {
	case model.StateApprovedInWindow:
		return d.merge(ctx)
	case model.StateRejectedInWindow:
		return d.close(ctx)
	default:
		if assessment.Approved {
			slog.Info("request will be approved", "repo", env.RepoFullName, "pr", req.Number, "closes_at", window.ClosesAt(req.EligibleAt))
		} else {
			slog.Info("request not approved", "repo", env.RepoFullName, "pr", req.Number, "state", string(state))
		}
		d.postStatus(ctx, state)
		outcome.State = state
		outcome.Err = d.joined()
		return outcome, nil
	}
}

// decision carries the per-request state of one Evaluate call.
type decision struct {
	svc    *DecisionService
	env    CycleEnv
	req    model.Request
	votes  []model.Vote
	window model.VotingWindow
	out    *model.RequestOutcome
	errs   []error
}

func (d *decision) merge(ctx context.Context) (model.RequestOutcome, error) {
	d.postStatus(ctx, model.StateApprovedInWindow)

	slog.Info("request approved for merging", "repo", d.env.RepoFullName, "pr", d.req.Number)

	n := d.notice(model.NoticeAccept)
	result, err := d.svc.writer.MergeRequest(ctx, d.env.RepoFullName, d.req, n)
	if err != nil {
		d.out.State = model.StateFailed
		d.out.Err = errors.Join(append(d.errs, fmt.Errorf("merging #%d: %w", d.req.Number, err))...)
		return *d.out, d.out.Err
	}

	if !result.Merged {
		slog.Info("couldn't merge request, skipping",
			"repo", d.env.RepoFullName,
			"pr", d.req.Number,
			"reason", result.Reason,
		)
		d.bestEffort("labeling", d.svc.writer.LabelRequest(ctx, d.env.RepoFullName, d.req.Number, decisionLabels(d.req, model.LabelCannotMerge)))
		d.out.State = model.StateCannotMerge
		d.out.Err = d.joined()
		return *d.out, nil
	}

	n.CommitSHA = result.CommitSHA
	d.out.CommitSHA = result.CommitSHA

	d.bestEffort("commenting", d.svc.writer.LeaveComment(ctx, d.env.RepoFullName, d.req.Number, n))
	d.bestEffort("labeling", d.svc.writer.LabelRequest(ctx, d.env.RepoFullName, d.req.Number, decisionLabels(d.req, model.LabelAccepted)))
	if d.req.Author != "" {
		d.bestEffort("following author", d.svc.writer.FollowUser(ctx, d.req.Author))
	}
	d.archive(ctx, model.RecordMerged, result.CommitSHA)

	d.out.State = model.StateApprovedInWindow
	d.out.Err = d.joined()
	return *d.out, nil
}

func (d *decision) close(ctx context.Context) (model.RequestOutcome, error) {
	d.postStatus(ctx, model.StateRejectedInWindow)

	slog.Info("request rejected, closing", "repo", d.env.RepoFullName, "pr", d.req.Number)

	d.bestEffort("commenting", d.svc.writer.LeaveComment(ctx, d.env.RepoFullName, d.req.Number, d.notice(model.NoticeReject)))
	d.bestEffort("labeling", d.svc.writer.LabelRequest(ctx, d.env.RepoFullName, d.req.Number, decisionLabels(d.req, model.LabelRejected)))

	if err := d.svc.writer.CloseRequest(ctx, d.env.RepoFullName, d.req); err != nil {
		d.out.State = model.StateFailed
		d.out.Err = errors.Join(append(d.errs, fmt.Errorf("closing #%d: %w", d.req.Number, err))...)
		return *d.out, d.out.Err
	}

	d.archive(ctx, model.RecordClosed, "")

	d.out.State = model.StateRejectedInWindow
	d.out.Err = d.joined()
	return *d.out, nil
}

func (d *decision) postStatus(ctx context.Context, state model.DecisionState) {
	kind, ok := voting.StatusFor(state)
	if !ok {
		return
	}

	report := model.StatusReport{
		Kind:      kind,
		Tally:     d.out.Tally,
		Threshold: d.env.Threshold,
		Window:    d.window,
		ClosesAt:  d.window.ClosesAt(d.req.EligibleAt),
		Now:       d.env.Now,
	}
	d.bestEffort("posting status", d.svc.writer.PostStatus(ctx, d.env.RepoFullName, d.req, report))
}

func (d *decision) archive(ctx context.Context, outcome model.RecordOutcome, commitSHA string) {
	record := model.VoteRecord{
		RepoFullName:  d.env.RepoFullName,
		RequestNumber: d.req.Number,
		HeadSHA:       d.req.HeadSHA,
		Outcome:       outcome,
		CommitSHA:     commitSHA,
		Total:         d.out.Tally.Total,
		Variance:      d.out.Tally.Variance,
		Threshold:     d.env.Threshold,
		Votes:         d.votes,
		RecordedAt:    d.env.Now,
	}

	err := d.svc.records.Persist(ctx, record)
	if errors.Is(err, driven.ErrRecordExists) {
		slog.Debug("vote record already archived", "repo", d.env.RepoFullName, "pr", d.req.Number, "outcome", string(outcome))
		return
	}
	d.bestEffort("archiving votes", err)
}

func (d *decision) notice(kind model.NoticeKind) model.Notice {
	return model.Notice{
		Kind:          kind,
		RequestNumber: d.req.Number,
		Votes:         d.votes,
		Tally:         d.out.Tally,
		Threshold:     d.env.Threshold,
	}
}

// bestEffort logs and collects a bookkeeping failure without aborting the request.
func (d *decision) bestEffort(step string, err error) {
	if err == nil {
		return
	}
	slog.Error(step+" failed", "repo", d.env.RepoFullName, "pr", d.req.Number, "error", err)
	d.errs = append(d.errs, fmt.Errorf("%s #%d: %w", step, d.req.Number, err))
}

func (d *decision) joined() error {
	return errors.Join(d.errs...)
}

// decisionLabels returns the request's labels with any previous decision
// label replaced by the given one.
func decisionLabels(req model.Request, label string) []string {
	labels := make([]string, 0, len(req.Labels)+1)
	for _, l := range req.Labels {
		switch l {
		case model.LabelAccepted, model.LabelRejected, model.LabelCannotMerge:
			continue
		}
		labels = append(labels, l)
	}
	return append(labels, label)
}
