// Package github implements the HostingClient and HostingWriter ports using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.HostingClient = (*Client)(nil)

// Reaction contents that count as votes.
const (
	reactionFor     = "+1"
	reactionAgainst = "-1"
)

// Client implements the driven.HostingClient and driven.HostingWriter ports
// using the go-github library.
type Client struct {
	gh          *gh.Client
	username    string // Bot account; its reactions never count as votes.
	minVoterAge time.Duration
	mergeMethod string
	now         func() time.Time

	mu          sync.Mutex
	userCreated map[string]time.Time
}

// Option configures optional Client behavior.
type Option func(*Client)

// WithMinVoterAge sets the account age below which a voter's weight is zero.
func WithMinVoterAge(d time.Duration) Option {
	return func(c *Client) {
		c.minVoterAge = d
	}
}

// WithMergeMethod sets the merge method: "merge", "squash", or "rebase".
func WithMergeMethod(method string) Option {
	return func(c *Client) {
		c.mergeMethod = method
	}
}

// WithClock overrides the time source used for age checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token, username string, opts ...Option) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return newClient(client, username, opts)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, username string, opts ...Option) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return newClient(client, username, opts), nil
}

func newClient(client *gh.Client, username string, opts []Option) *Client {
	c := &Client{
		gh:          client,
		username:    username,
		mergeMethod: "merge",
		now:         time.Now,
		userCreated: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchRepository returns the repository metadata. The watcher count is the
// repository's subscriber count, not its stargazer count.
func (c *Client) FetchRepository(ctx context.Context, repoFullName string) (model.Repository, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return model.Repository{}, err
	}

	r, resp, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return model.Repository{}, fmt.Errorf("fetching repository %s: %w", repoFullName, err)
	}

	logRateLimit(resp, repoFullName, 0, 1)

	return model.Repository{
		FullName:      r.GetFullName(),
		DefaultBranch: r.GetDefaultBranch(),
		Watchers:      r.GetSubscribersCount(),
		CreatedAt:     r.GetCreatedAt().Time,
	}, nil
}

// ListEligibleRequests retrieves open pull requests that are up for a vote:
// not drafts, not marked work-in-progress, with a head repository that still
// exists, and eligible for at least minAge. It handles pagination automatically.
func (c *Client) ListEligibleRequests(ctx context.Context, repoFullName string, minAge time.Duration) ([]model.Request, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:     "open",
		Sort:      "created",
		Direction: "asc",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	now := c.now()
	requests := []model.Request{}

	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s (page %d): %w", repoFullName, opts.Page, err)
		}

		logRateLimit(resp, repoFullName, opts.Page, len(prs))

		for _, pr := range prs {
			if reason := ineligibleReason(pr); reason != "" {
				slog.Debug("skipping request", "repo", repoFullName, "pr", pr.GetNumber(), "reason", reason)
				continue
			}

			req := mapRequest(pr, repoFullName)
			if req.Age(now) < minAge {
				slog.Debug("skipping request", "repo", repoFullName, "pr", req.Number, "reason", "too young")
				continue
			}
			requests = append(requests, req)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return requests, nil
}

// ineligibleReason returns why a pull request cannot be voted on, or "" if it can.
func ineligibleReason(pr *gh.PullRequest) string {
	switch {
	case pr.GetDraft():
		return "draft"
	case isWorkInProgress(pr.GetTitle()):
		return "work in progress"
	case pr.GetHead().GetRepo() == nil:
		return "head repository deleted"
	default:
		return ""
	}
}

// isWorkInProgress reports whether the title starts with the word "wip",
// optionally bracketed. "Wipe stale cache" is not work in progress.
func isWorkInProgress(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	t = strings.TrimPrefix(t, "[")
	rest, ok := strings.CutPrefix(t, "wip")
	if !ok {
		return false
	}
	return rest == "" || strings.ContainsRune(" :-]", rune(rest[0]))
}

// mapRequest converts a go-github PullRequest to a domain model Request.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
func mapRequest(pr *gh.PullRequest, repoFullName string) model.Request {
	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.GetName())
	}

	created := pr.GetCreatedAt().Time
	eligible := pr.GetHead().GetRepo().GetPushedAt().Time
	if eligible.IsZero() {
		eligible = created
	}

	return model.Request{
		Number:       pr.GetNumber(),
		RepoFullName: repoFullName,
		Title:        pr.GetTitle(),
		Author:       pr.GetUser().GetLogin(),
		HeadSHA:      pr.GetHead().GetSHA(),
		URL:          pr.GetHTMLURL(),
		IsDraft:      pr.GetDraft(),
		Labels:       labels,
		CreatedAt:    created,
		EligibleAt:   eligible,
	}
}

// reaction is the subset of the issue reactions payload used for voting.
type reaction struct {
	Content   string       `json:"content"`
	User      *gh.User     `json:"user"`
	CreatedAt gh.Timestamp `json:"created_at"`
}

// FetchVotes returns one vote per voter from the +1 and -1 reactions on the
// request. A voter's latest reaction wins, the bot account is ignored, and the
// author always counts as a supporter. Accounts younger than the configured
// minimum voter age vote with zero weight. Votes are ordered by voter.
func (c *Client) FetchVotes(ctx context.Context, repoFullName string, req model.Request) ([]model.Vote, error) {
	reactions, err := c.listReactions(ctx, repoFullName, req.Number)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]model.Vote)
	for _, r := range reactions {
		login := r.User.GetLogin()
		if login == "" || strings.EqualFold(login, c.username) {
			continue
		}

		var direction int
		switch r.Content {
		case reactionFor:
			direction = 1
		case reactionAgainst:
			direction = -1
		default:
			continue
		}

		if prev, ok := latest[login]; ok && prev.CastAt.After(r.CreatedAt.Time) {
			continue
		}
		latest[login] = model.Vote{
			Voter:         login,
			RequestNumber: req.Number,
			Direction:     direction,
			CastAt:        r.CreatedAt.Time,
		}
	}

	if req.Author != "" && !strings.EqualFold(req.Author, c.username) {
		latest[req.Author] = model.Vote{
			Voter:         req.Author,
			RequestNumber: req.Number,
			Direction:     1,
			CastAt:        req.CreatedAt,
		}
	}

	votes := make([]model.Vote, 0, len(latest))
	for _, v := range latest {
		weight, err := c.voterWeight(ctx, v.Voter)
		if err != nil {
			return nil, err
		}
		v.Weight = weight
		votes = append(votes, v)
	}

	sort.Slice(votes, func(i, j int) bool { return votes[i].Voter < votes[j].Voter })

	return votes, nil
}

// listReactions pages through the reactions on the request's issue. The
// payload is decoded locally so each reaction keeps its creation time.
func (c *Client) listReactions(ctx context.Context, repoFullName string, number int) ([]reaction, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	var all []reaction
	page := 1

	for {
		u := fmt.Sprintf("repos/%s/%s/issues/%d/reactions?per_page=100&page=%d", owner, repo, number, page)
		httpReq, err := c.gh.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("building reactions request for %s#%d: %w", repoFullName, number, err)
		}

		var batch []reaction
		resp, err := c.gh.Do(ctx, httpReq, &batch)
		if err != nil {
			return nil, fmt.Errorf("listing reactions for %s#%d (page %d): %w", repoFullName, number, page, err)
		}

		logRateLimit(resp, repoFullName+"/reactions", page, len(batch))
		all = append(all, batch...)

		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	return all, nil
}

// voterWeight returns 0 for accounts younger than the minimum voter age and 1
// otherwise. Account creation times are cached for the life of the client.
func (c *Client) voterWeight(ctx context.Context, login string) (float64, error) {
	if c.minVoterAge <= 0 {
		return 1, nil
	}

	created, err := c.accountCreated(ctx, login)
	if err != nil {
		return 0, err
	}

	if c.now().Sub(created) < c.minVoterAge {
		return 0, nil
	}
	return 1, nil
}

func (c *Client) accountCreated(ctx context.Context, login string) (time.Time, error) {
	c.mu.Lock()
	created, ok := c.userCreated[login]
	c.mu.Unlock()
	if ok {
		return created, nil
	}

	user, resp, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetching user %s: %w", login, err)
	}
	logRateLimit(resp, "users/"+login, 0, 1)

	created = user.GetCreatedAt().Time

	c.mu.Lock()
	c.userCreated[login] = created
	c.mu.Unlock()

	return created, nil
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", driven.ErrInvalidRepository, fullName)
	}
	return parts[0], parts[1], nil
}

// statusCode extracts the HTTP status code from a go-github error, or 0.
func statusCode(err error) int {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}
