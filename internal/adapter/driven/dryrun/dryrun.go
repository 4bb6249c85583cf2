// Package dryrun provides HostingWriter and VoteRecordStore implementations
// that log each mutation instead of performing it.
package dryrun

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
	"github.com/ericfisherdev/mergevote/internal/notice"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.HostingWriter   = (*Writer)(nil)
	_ driven.VoteRecordStore = (*RecordStore)(nil)
)

// Writer reports success for every mutation without touching the hosting service.
type Writer struct {
	logger *slog.Logger
}

// NewWriter creates a Writer that logs to logger, or to slog.Default() when nil.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger.With("dry_run", true)}
}

// PostStatus logs the commit status that would be posted.
func (w *Writer) PostStatus(_ context.Context, repoFullName string, req model.Request, report model.StatusReport) error {
	w.logger.Info("would post status",
		"repo", repoFullName,
		"pr", req.Number,
		"sha", req.HeadSHA,
		"status", string(report.Kind),
		"description", notice.StatusDescription(report),
	)
	return nil
}

// MergeRequest reports the request as merged. There is no merge commit, so
// CommitSHA is empty.
func (w *Writer) MergeRequest(_ context.Context, repoFullName string, req model.Request, n model.Notice) (model.MergeOutcome, error) {
	w.logger.Info("would merge",
		"repo", repoFullName,
		"pr", req.Number,
		"sha", req.HeadSHA,
		"message", notice.MergeMessage(n),
	)
	return model.MergeOutcome{Merged: true}, nil
}

// LabelRequest logs the label set that would replace the request's labels.
func (w *Writer) LabelRequest(_ context.Context, repoFullName string, number int, labels []string) error {
	w.logger.Info("would label", "repo", repoFullName, "pr", number, "labels", labels)
	return nil
}

// LeaveComment logs the decision comment; the body is logged at debug level.
func (w *Writer) LeaveComment(_ context.Context, repoFullName string, number int, n model.Notice) error {
	w.logger.Info("would comment", "repo", repoFullName, "pr", number, "kind", string(n.Kind))
	w.logger.Debug("comment body", "repo", repoFullName, "pr", number, "body", notice.Comment(n))
	return nil
}

// CloseRequest logs the close.
func (w *Writer) CloseRequest(_ context.Context, repoFullName string, req model.Request) error {
	w.logger.Info("would close", "repo", repoFullName, "pr", req.Number)
	return nil
}

// FollowUser logs the follow.
func (w *Writer) FollowUser(_ context.Context, login string) error {
	w.logger.Info("would follow", "user", login)
	return nil
}

// RecordStore discards records on Persist and reads from an optional
// underlying store, so dry runs can still list the real archive.
type RecordStore struct {
	logger *slog.Logger
	reader driven.VoteRecordStore
}

// NewRecordStore creates a RecordStore. reader may be nil, in which case the
// list methods return no records.
func NewRecordStore(logger *slog.Logger, reader driven.VoteRecordStore) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{logger: logger.With("dry_run", true), reader: reader}
}

// Persist logs the record and discards it.
func (s *RecordStore) Persist(_ context.Context, record model.VoteRecord) error {
	s.logger.Info("would archive vote record",
		"repo", record.RepoFullName,
		"pr", record.RequestNumber,
		"outcome", string(record.Outcome),
		"votes", len(record.Votes),
	)
	return nil
}

// ListRecent delegates to the underlying store.
func (s *RecordStore) ListRecent(ctx context.Context, repoFullName string, limit int) ([]model.VoteRecord, error) {
	if s.reader == nil {
		return nil, nil
	}
	return s.reader.ListRecent(ctx, repoFullName, limit)
}

// ListByRequest delegates to the underlying store.
func (s *RecordStore) ListByRequest(ctx context.Context, repoFullName string, number int) ([]model.VoteRecord, error) {
	if s.reader == nil {
		return nil, nil
	}
	return s.reader.ListByRequest(ctx, repoFullName, number)
}
