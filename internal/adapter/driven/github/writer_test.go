package github_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/mergevote/internal/adapter/driven/github"
	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

var writerReq = model.Request{
	Number:  12,
	HeadSHA: "abc1234def",
	URL:     "https://github.com/owner/repo/pull/12",
}

func TestPostStatus(t *testing.T) {
	tests := []struct {
		kind      model.StatusKind
		wantState string
	}{
		{model.StatusAccepted, "success"},
		{model.StatusRejected, "failure"},
		{model.StatusPending, "pending"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var body map[string]any
			mux := http.NewServeMux()
			mux.HandleFunc("POST /repos/owner/repo/statuses/abc1234def", func(w http.ResponseWriter, r *http.Request) {
				body = decodeBody(t, r)
				w.WriteHeader(http.StatusCreated)
				writeJSON(t, w, map[string]any{"state": tt.wantState})
			})

			client := newTestClient(t, mux)
			report := model.StatusReport{
				Kind:      tt.kind,
				Tally:     model.Tally{Count: 2, Total: 2},
				Threshold: 1,
				Window:    model.VotingWindow{Kind: model.WindowInitial, Length: 2 * time.Hour},
				ClosesAt:  testNow.Add(time.Hour),
				Now:       testNow,
			}

			require.NoError(t, client.PostStatus(context.Background(), "owner/repo", writerReq, report))
			assert.Equal(t, tt.wantState, body["state"])
			assert.Equal(t, ghAdapter.StatusContext, body["context"])
			assert.Equal(t, writerReq.URL, body["target_url"])
			assert.NotEmpty(t, body["description"])
		})
	}
}

func TestMergeRequest_Merged(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/owner/repo/pulls/12/merge", func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		writeJSON(t, w, map[string]any{"sha": "merged999", "merged": true, "message": "Pull Request successfully merged"})
	})

	client := newTestClient(t, mux, ghAdapter.WithMergeMethod("squash"))
	n := model.Notice{Kind: model.NoticeAccept, RequestNumber: 12, Tally: model.Tally{Total: 3}, Threshold: 2}

	out, err := client.MergeRequest(context.Background(), "owner/repo", writerReq, n)
	require.NoError(t, err)

	assert.True(t, out.Merged)
	assert.Equal(t, "merged999", out.CommitSHA)
	assert.Equal(t, "abc1234def", body["sha"])
	assert.Equal(t, "squash", body["merge_method"])
	assert.Contains(t, body["commit_message"], "#12")
}

func TestMergeRequest_NotMergeable(t *testing.T) {
	for _, code := range []int{http.StatusMethodNotAllowed, http.StatusConflict, http.StatusUnprocessableEntity} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("PUT /repos/owner/repo/pulls/12/merge", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				_, _ = w.Write([]byte(`{"message":"Pull Request is not mergeable"}`))
			})

			client := newTestClient(t, mux)
			out, err := client.MergeRequest(context.Background(), "owner/repo", writerReq, model.Notice{RequestNumber: 12})

			require.NoError(t, err)
			assert.False(t, out.Merged)
			assert.Equal(t, "Pull Request is not mergeable", out.Reason)
		})
	}
}

func TestMergeRequest_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/owner/repo/pulls/12/merge", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"Bad Gateway"}`))
	})

	client := newTestClient(t, mux)
	_, err := client.MergeRequest(context.Background(), "owner/repo", writerReq, model.Notice{RequestNumber: 12})

	assert.ErrorContains(t, err, "merging owner/repo#12")
}

func TestLabelRequest(t *testing.T) {
	var labels []string
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/owner/repo/issues/12/labels", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&labels))
		writeJSON(t, w, []map[string]any{})
	})

	client := newTestClient(t, mux)
	require.NoError(t, client.LabelRequest(context.Background(), "owner/repo", 12, []string{"docs", model.LabelAccepted}))
	assert.Equal(t, []string{"docs", "accepted"}, labels)
}

func TestLeaveComment(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/owner/repo/issues/12/comments", func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		w.WriteHeader(http.StatusCreated)
		writeJSON(t, w, map[string]any{"id": 1})
	})

	client := newTestClient(t, mux)
	n := model.Notice{Kind: model.NoticeReject, RequestNumber: 12, Tally: model.Tally{Total: -2}, Threshold: 1}

	require.NoError(t, client.LeaveComment(context.Background(), "owner/repo", 12, n))
	assert.Contains(t, body["body"], "rejected")
}

func TestCloseRequest(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /repos/owner/repo/pulls/12", func(w http.ResponseWriter, r *http.Request) {
		body = decodeBody(t, r)
		writeJSON(t, w, map[string]any{"number": 12, "state": "closed"})
	})

	client := newTestClient(t, mux)
	require.NoError(t, client.CloseRequest(context.Background(), "owner/repo", writerReq))
	assert.Equal(t, "closed", body["state"])
}

func TestFollowUser(t *testing.T) {
	var followed string
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /user/following/{login}", func(w http.ResponseWriter, r *http.Request) {
		followed = r.PathValue("login")
		w.WriteHeader(http.StatusNoContent)
	})

	client := newTestClient(t, mux)
	require.NoError(t, client.FollowUser(context.Background(), "alice"))
	assert.Equal(t, "alice", followed)
}
