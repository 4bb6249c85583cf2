package application_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// --- Recording mock implementations ---

type call struct {
	Op     string
	Number int
	Detail string
}

type callLog struct {
	mu    sync.Mutex
	calls []call
}

func (l *callLog) record(op string, number int, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call{Op: op, Number: number, Detail: detail})
}

func (l *callLog) ops(number int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var ops []string
	for _, c := range l.calls {
		if c.Number == number {
			ops = append(ops, c.Op)
		}
	}
	return ops
}

func (l *callLog) snapshot() []call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]call(nil), l.calls...)
}

type mockHostingClient struct {
	repo     model.Repository
	repoErr  error
	requests []model.Request
	listErr  error
	votes    map[int][]model.Vote
	voteErr  map[int]error
	log      *callLog
}

func (m *mockHostingClient) ListEligibleRequests(_ context.Context, _ string, _ time.Duration) ([]model.Request, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.requests, nil
}

func (m *mockHostingClient) FetchVotes(_ context.Context, _ string, req model.Request) ([]model.Vote, error) {
	m.log.record("fetch_votes", req.Number, "")
	if err := m.voteErr[req.Number]; err != nil {
		return nil, err
	}
	return m.votes[req.Number], nil
}

func (m *mockHostingClient) FetchRepository(_ context.Context, _ string) (model.Repository, error) {
	return m.repo, m.repoErr
}

type mockHostingWriter struct {
	log        *callLog
	statuses   []model.StatusReport
	notices    []model.Notice
	labels     map[int][]string
	merge      map[int]model.MergeOutcome
	mergeErr   map[int]error
	commentErr error
	closeErr   error
}

func newMockWriter(log *callLog) *mockHostingWriter {
	return &mockHostingWriter{
		log:      log,
		labels:   make(map[int][]string),
		merge:    make(map[int]model.MergeOutcome),
		mergeErr: make(map[int]error),
	}
}

func (m *mockHostingWriter) PostStatus(_ context.Context, _ string, req model.Request, report model.StatusReport) error {
	m.log.record("status", req.Number, string(report.Kind))
	m.statuses = append(m.statuses, report)
	return nil
}

func (m *mockHostingWriter) MergeRequest(_ context.Context, _ string, req model.Request, _ model.Notice) (model.MergeOutcome, error) {
	m.log.record("merge", req.Number, req.HeadSHA)
	if err := m.mergeErr[req.Number]; err != nil {
		return model.MergeOutcome{}, err
	}
	if out, ok := m.merge[req.Number]; ok {
		return out, nil
	}
	return model.MergeOutcome{Merged: true, CommitSHA: fmt.Sprintf("merge%04d", req.Number)}, nil
}

func (m *mockHostingWriter) LabelRequest(_ context.Context, _ string, number int, labels []string) error {
	m.log.record("label", number, strings.Join(labels, ","))
	m.labels[number] = labels
	return nil
}

func (m *mockHostingWriter) LeaveComment(_ context.Context, _ string, number int, notice model.Notice) error {
	m.log.record("comment", number, string(notice.Kind))
	m.notices = append(m.notices, notice)
	return m.commentErr
}

func (m *mockHostingWriter) CloseRequest(_ context.Context, _ string, req model.Request) error {
	m.log.record("close", req.Number, "")
	return m.closeErr
}

func (m *mockHostingWriter) FollowUser(_ context.Context, login string) error {
	m.log.record("follow", 0, login)
	return nil
}

type mockRecordStore struct {
	log     *callLog
	records []model.VoteRecord
	err     error
}

func (m *mockRecordStore) Persist(_ context.Context, record model.VoteRecord) error {
	m.log.record("persist", record.RequestNumber, string(record.Outcome))
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockRecordStore) ListRecent(_ context.Context, _ string, _ int) ([]model.VoteRecord, error) {
	return m.records, nil
}

func (m *mockRecordStore) ListByRequest(_ context.Context, _ string, _ int) ([]model.VoteRecord, error) {
	return nil, nil
}

// --- Fixtures ---

const testRepo = "octo/project"

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func votesFor(number int, directions ...int) []model.Vote {
	votes := make([]model.Vote, 0, len(directions))
	for i, d := range directions {
		votes = append(votes, model.Vote{
			Voter:         fmt.Sprintf("voter%d", i),
			RequestNumber: number,
			Direction:     d,
			Weight:        1,
			CastAt:        testNow.Add(-time.Hour),
		})
	}
	return votes
}

func requestAged(number int, age time.Duration) model.Request {
	return model.Request{
		Number:       number,
		RepoFullName: testRepo,
		Title:        fmt.Sprintf("Change %d", number),
		Author:       fmt.Sprintf("author%d", number),
		HeadSHA:      fmt.Sprintf("head%04d", number),
		CreatedAt:    testNow.Add(-age),
		EligibleAt:   testNow.Add(-age),
	}
}
