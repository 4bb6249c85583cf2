package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
	"github.com/ericfisherdev/mergevote/internal/domain/voting"
)

// ErrRestartRequested is returned by Start when a cycle merged or closed a
// request and the service is configured to exit so a supervisor can restart
// it with the updated repository contents.
var ErrRestartRequested = errors.New("restart requested after repository change")

// CycleConfig holds the per-deployment settings of the polling loop.
type CycleConfig struct {
	RepoFullName  string
	MinRequestAge time.Duration
	Interval      time.Duration
	ExitOnChange  bool
	Thresholds    voting.ThresholdPolicy
}

// cycleRequest represents a manual cycle trigger.
type cycleRequest struct {
	done chan cycleResponse
}

type cycleResponse struct {
	result model.CycleResult
	err    error
}

// PollOption configures optional PollService behavior.
type PollOption func(*PollService)

// WithClock overrides the time source used to stamp cycles.
func WithClock(now func() time.Time) PollOption {
	return func(s *PollService) {
		s.now = now
	}
}

// PollService runs decision cycles over every eligible request of one
// repository, on a fixed interval and on demand.
type PollService struct {
	client    driven.HostingClient
	decisions *DecisionService
	cfg       CycleConfig
	now       func() time.Time
	triggerCh chan cycleRequest

	mu     sync.RWMutex
	latest *model.CycleResult
}

// NewPollService creates a new PollService with all required dependencies.
func NewPollService(
	client driven.HostingClient,
	decisions *DecisionService,
	cfg CycleConfig,
	opts ...PollOption,
) *PollService {
	s := &PollService{
		client:    client,
		decisions: decisions,
		cfg:       cfg,
		now:       time.Now,
		triggerCh: make(chan cycleRequest),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the polling loop. It runs an immediate cycle, then one per
// configured interval, and serves manual triggers in between. Start blocks
// until the context is canceled, in which case it returns nil, or until a
// cycle changes repository history while ExitOnChange is set, in which case
// it returns ErrRestartRequested.
func (s *PollService) Start(ctx context.Context) error {
	if s.afterCycle(s.RunCycle(ctx)) {
		return ErrRestartRequested
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll service stopped")
			return nil
		case <-ticker.C:
			if s.afterCycle(s.RunCycle(ctx)) {
				return ErrRestartRequested
			}
		case req := <-s.triggerCh:
			result, err := s.RunCycle(ctx)
			req.done <- cycleResponse{result: result, err: err}
			if s.afterCycle(result, err) {
				return ErrRestartRequested
			}
		}
	}
}

// afterCycle logs a failed cycle and reports whether the loop should exit.
func (s *PollService) afterCycle(result model.CycleResult, err error) bool {
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			slog.Error("poll cycle failed", "repo", s.cfg.RepoFullName, "error", err)
		}
		return false
	}
	if result.Changed && s.cfg.ExitOnChange {
		slog.Info("repository changed, requesting restart",
			"repo", s.cfg.RepoFullName,
			"merged", result.Merged,
			"closed", result.Closed,
		)
		return true
	}
	return false
}

// TriggerCycle asks the running loop for an immediate cycle, bypassing the
// polling interval. It blocks until the cycle completes or the context is
// canceled.
func (s *PollService) TriggerCycle(ctx context.Context) (model.CycleResult, error) {
	done := make(chan cycleResponse, 1)
	req := cycleRequest{done: done}

	select {
	case s.triggerCh <- req:
	case <-ctx.Done():
		return model.CycleResult{}, ctx.Err()
	}

	select {
	case resp := <-done:
		return resp.result, resp.err
	case <-ctx.Done():
		return model.CycleResult{}, ctx.Err()
	}
}

// LatestCycle returns the result of the most recently completed cycle.
func (s *PollService) LatestCycle() (model.CycleResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return model.CycleResult{}, false
	}
	return *s.latest, true
}

// RunCycle evaluates every eligible request once. The threshold and the
// current time are fixed at the start of the cycle. A request whose
// evaluation fails is logged and counted; the cycle continues with the next
// request. RunCycle returns an error only when the repository or its request
// list cannot be fetched, or the context is canceled.
func (s *PollService) RunCycle(ctx context.Context) (model.CycleResult, error) {
	start := s.now()
	result := model.CycleResult{StartedAt: start}

	slog.Info("looking for requests", "repo", s.cfg.RepoFullName)

	repo, err := s.client.FetchRepository(ctx, s.cfg.RepoFullName)
	if err != nil {
		return result, fmt.Errorf("fetching repository %s: %w", s.cfg.RepoFullName, err)
	}

	threshold := s.cfg.Thresholds.Threshold(repo.Watchers)
	result.Threshold = threshold

	requests, err := s.client.ListEligibleRequests(ctx, s.cfg.RepoFullName, s.cfg.MinRequestAge)
	if err != nil {
		return result, fmt.Errorf("listing requests for %s: %w", s.cfg.RepoFullName, err)
	}

	env := CycleEnv{
		RepoFullName: s.cfg.RepoFullName,
		Now:          start,
		Threshold:    threshold,
	}

	for _, req := range requests {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		slog.Info("processing request", "repo", s.cfg.RepoFullName, "pr", req.Number, "author", req.Author)

		outcome, err := s.decisions.Evaluate(ctx, env, req)
		if err != nil {
			slog.Error("request evaluation failed", "repo", s.cfg.RepoFullName, "pr", req.Number, "error", err)
		}
		result.Add(outcome)
	}

	result.FinishedAt = s.now()
	s.setLatest(result)

	slog.Info("poll cycle complete",
		"repo", s.cfg.RepoFullName,
		"requests", len(requests),
		"threshold", threshold,
		"merged", result.Merged,
		"closed", result.Closed,
		"failed", result.Failed,
		"duration", result.FinishedAt.Sub(start).Round(time.Millisecond),
	)

	return result, nil
}

func (s *PollService) setLatest(result model.CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &result
}
