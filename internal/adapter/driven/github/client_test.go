package github_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/mergevote/internal/adapter/driven/github"
	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler, opts ...ghAdapter.Option) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]ghAdapter.Option{ghAdapter.WithClock(func() time.Time { return testNow })}, opts...)
	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", "votebot", opts...)
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

// prJSON is a helper struct for building GitHub API pull request responses.
type prJSON struct {
	Number  int       `json:"number"`
	Title   string    `json:"title"`
	State   string    `json:"state"`
	Draft   bool      `json:"draft"`
	HTMLURL string    `json:"html_url"`
	User    userJSON  `json:"user"`
	Head    refJSON   `json:"head"`
	Labels  []lblJSON `json:"labels"`
	Created string    `json:"created_at"`
}

type userJSON struct {
	Login string `json:"login"`
}

type refJSON struct {
	Ref  string    `json:"ref"`
	SHA  string    `json:"sha,omitempty"`
	Repo *repoJSON `json:"repo"`
}

type repoJSON struct {
	FullName string `json:"full_name"`
	PushedAt string `json:"pushed_at,omitempty"`
}

type lblJSON struct {
	Name string `json:"name"`
}

type reactionJSON struct {
	Content string   `json:"content"`
	User    userJSON `json:"user"`
	Created string   `json:"created_at"`
}

func openPR(number int, title, created, pushed string) prJSON {
	return prJSON{
		Number:  number,
		Title:   title,
		State:   "open",
		HTMLURL: fmt.Sprintf("https://github.com/owner/repo/pull/%d", number),
		User:    userJSON{Login: "alice"},
		Head: refJSON{
			Ref:  "feature",
			SHA:  fmt.Sprintf("sha%d", number),
			Repo: &repoJSON{FullName: "alice/repo", PushedAt: pushed},
		},
		Labels:  []lblJSON{},
		Created: created,
	}
}

func TestFetchRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"full_name":         "owner/repo",
			"default_branch":    "main",
			"subscribers_count": 57,
			"stargazers_count":  9000,
			"created_at":        "2017-05-19T00:00:00Z",
		})
	})

	client := newTestClient(t, mux)
	repo, err := client.FetchRepository(context.Background(), "owner/repo")

	require.NoError(t, err)
	assert.Equal(t, "owner/repo", repo.FullName)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.Equal(t, 57, repo.Watchers)
	assert.Equal(t, time.Date(2017, 5, 19, 0, 0, 0, 0, time.UTC), repo.CreatedAt)
}

func TestInvalidRepositoryName(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	_, err := client.FetchRepository(context.Background(), "no-slash")
	assert.ErrorIs(t, err, driven.ErrInvalidRepository)

	_, err = client.ListEligibleRequests(context.Background(), "/repo", 0)
	assert.ErrorIs(t, err, driven.ErrInvalidRepository)
}

func TestListEligibleRequests_Filters(t *testing.T) {
	deleted := openPR(4, "From a deleted fork", "2026-03-01T00:00:00Z", "")
	deleted.Head.Repo = nil

	draft := openPR(2, "Draft work", "2026-03-01T00:00:00Z", "")
	draft.Draft = true

	prs := []prJSON{
		openPR(1, "Add voting docs", "2026-03-01T00:00:00Z", "2026-03-09T12:00:00Z"),
		draft,
		openPR(3, "[WIP] half done", "2026-03-01T00:00:00Z", ""),
		deleted,
		openPR(5, "Fresh push", "2026-03-01T00:00:00Z", "2026-03-10T11:30:00Z"),
		openPR(6, "wip: later", "2026-03-01T00:00:00Z", ""),
		openPR(7, "No pushed_at", "2026-03-02T00:00:00Z", ""),
	}
	prs[0].Labels = []lblJSON{{Name: "docs"}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "open", r.URL.Query().Get("state"))
		writeJSON(t, w, prs)
	})

	client := newTestClient(t, mux)
	result, err := client.ListEligibleRequests(context.Background(), "owner/repo", time.Hour)

	require.NoError(t, err)
	require.Len(t, result, 2)

	first := result[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "owner/repo", first.RepoFullName)
	assert.Equal(t, "Add voting docs", first.Title)
	assert.Equal(t, "alice", first.Author)
	assert.Equal(t, "sha1", first.HeadSHA)
	assert.Equal(t, "https://github.com/owner/repo/pull/1", first.URL)
	assert.Equal(t, []string{"docs"}, first.Labels)
	assert.Equal(t, time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC), first.EligibleAt)

	// Without pushed_at the voting period starts at creation.
	assert.Equal(t, 7, result[1].Number)
	assert.Equal(t, result[1].CreatedAt, result[1].EligibleAt)
}

func TestListEligibleRequests_WorkInProgressTitles(t *testing.T) {
	tests := []struct {
		title    string
		eligible bool
	}{
		{title: "WIP", eligible: false},
		{title: "wip: later", eligible: false},
		{title: "WIP - parser rewrite", eligible: false},
		{title: "[WIP] half done", eligible: false},
		{title: "[wip]", eligible: false},
		{title: "  wip tidy up", eligible: false},
		{title: "Wipe stale cache", eligible: true},
		{title: "Wiping temp files", eligible: true},
		{title: "Fix wip detection", eligible: true},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /repos/owner/repo/pulls", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, []prJSON{openPR(1, tt.title, "2026-03-01T00:00:00Z", "")})
			})

			client := newTestClient(t, mux)
			result, err := client.ListEligibleRequests(context.Background(), "owner/repo", 0)

			require.NoError(t, err)
			if tt.eligible {
				assert.Len(t, result, 1)
			} else {
				assert.Empty(t, result)
			}
		})
	}
}

func TestListEligibleRequests_Pagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, []prJSON{openPR(2, "Two", "2026-03-02T00:00:00Z", "")})
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=2>; rel="next"`, r.Host, r.URL.Path))
		writeJSON(t, w, []prJSON{openPR(1, "One", "2026-03-01T00:00:00Z", "")})
	})

	client := newTestClient(t, mux)
	result, err := client.ListEligibleRequests(context.Background(), "owner/repo", 0)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, 1, result[0].Number)
	assert.Equal(t, 2, result[1].Number)
}

func TestFetchVotes(t *testing.T) {
	reactions := []reactionJSON{
		{Content: "+1", User: userJSON{Login: "bob"}, Created: "2026-03-09T10:00:00Z"},
		{Content: "-1", User: userJSON{Login: "bob"}, Created: "2026-03-09T11:00:00Z"},
		{Content: "+1", User: userJSON{Login: "carol"}, Created: "2026-03-09T10:00:00Z"},
		{Content: "heart", User: userJSON{Login: "dave"}, Created: "2026-03-09T10:00:00Z"},
		{Content: "+1", User: userJSON{Login: "votebot"}, Created: "2026-03-09T10:00:00Z"},
		{Content: "-1", User: userJSON{Login: "alice"}, Created: "2026-03-09T10:00:00Z"},
		{Content: "+1", User: userJSON{Login: "newbie"}, Created: "2026-03-09T10:00:00Z"},
	}

	created := map[string]string{
		"alice":  "2015-01-01T00:00:00Z",
		"bob":    "2016-01-01T00:00:00Z",
		"carol":  "2017-01-01T00:00:00Z",
		"newbie": "2026-03-01T00:00:00Z",
	}

	var userLookups atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/issues/1/reactions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, reactions)
	})
	mux.HandleFunc("GET /users/{login}", func(w http.ResponseWriter, r *http.Request) {
		userLookups.Add(1)
		login := r.PathValue("login")
		writeJSON(t, w, map[string]any{"login": login, "created_at": created[login]})
	})

	client := newTestClient(t, mux, ghAdapter.WithMinVoterAge(30*24*time.Hour))
	req := model.Request{
		Number:    1,
		Author:    "alice",
		CreatedAt: time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	}

	votes, err := client.FetchVotes(context.Background(), "owner/repo", req)
	require.NoError(t, err)

	got := make(map[string]model.Vote, len(votes))
	var voters []string
	for _, v := range votes {
		got[v.Voter] = v
		voters = append(voters, v.Voter)
	}

	assert.Equal(t, []string{"alice", "bob", "carol", "newbie"}, voters)

	// The author always supports their own request.
	assert.Equal(t, 1, got["alice"].Direction)
	assert.Equal(t, req.CreatedAt, got["alice"].CastAt)
	// The latest reaction wins.
	assert.Equal(t, -1, got["bob"].Direction)
	assert.Equal(t, 1.0, got["bob"].Weight)
	assert.Equal(t, 1, got["carol"].Direction)
	// Young accounts vote with zero weight.
	assert.Equal(t, 0.0, got["newbie"].Weight)
	assert.Equal(t, 1, got["newbie"].RequestNumber)

	assert.EqualValues(t, 4, userLookups.Load())

	// User lookups are cached across calls.
	_, err = client.FetchVotes(context.Background(), "owner/repo", req)
	require.NoError(t, err)
	assert.EqualValues(t, 4, userLookups.Load())
}

func TestFetchVotes_NoMinimumAgeSkipsLookups(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/issues/3/reactions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []reactionJSON{{Content: "+1", User: userJSON{Login: "bob"}, Created: "2026-03-09T10:00:00Z"}})
	})
	mux.HandleFunc("GET /users/{login}", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected user lookup for %s", r.PathValue("login"))
	})

	client := newTestClient(t, mux)
	votes, err := client.FetchVotes(context.Background(), "owner/repo", model.Request{Number: 3})

	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "bob", votes[0].Voter)
	assert.Equal(t, 1.0, votes[0].Weight)
}

func TestFetchVotes_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/owner/repo/issues/5/reactions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Server Error"}`, http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	_, err := client.FetchVotes(context.Background(), "owner/repo", model.Request{Number: 5})

	assert.ErrorContains(t, err, "listing reactions for owner/repo#5")
}
