package sqlite

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.VoteRecordStore = (*VoteRecordRepo)(nil)

// VoteRecordRepo is the SQLite implementation of the VoteRecordStore port interface.
// Records are append-only: there is no update or delete path.
type VoteRecordRepo struct {
	db *DB
}

// NewVoteRecordRepo creates a new VoteRecordRepo backed by the given DB.
func NewVoteRecordRepo(db *DB) *VoteRecordRepo {
	return &VoteRecordRepo{db: db}
}

// Persist archives a record and its votes in a single transaction. A record
// without an ID gets a ULID derived from its RecordedAt time. Returns
// driven.ErrRecordExists if the same decision was archived before.
func (r *VoteRecordRepo) Persist(ctx context.Context, record model.VoteRecord) error {
	if record.ID == "" {
		record.ID = newULID(record.RecordedAt)
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const insertRecord = `
		INSERT INTO vote_records (id, repo_full_name, pr_number, head_sha, outcome, commit_sha, total, variance, threshold, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, insertRecord,
		record.ID, record.RepoFullName, record.RequestNumber, record.HeadSHA,
		string(record.Outcome), record.CommitSHA,
		record.Total, record.Variance, record.Threshold,
		formatTime(record.RecordedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("persist vote record for %s#%d: %w", record.RepoFullName, record.RequestNumber, driven.ErrRecordExists)
		}
		return fmt.Errorf("persist vote record for %s#%d: %w", record.RepoFullName, record.RequestNumber, err)
	}

	const insertVote = `
		INSERT INTO vote_record_votes (record_id, voter, direction, weight, cast_at)
		VALUES (?, ?, ?, ?, ?)
	`

	for _, v := range record.Votes {
		if _, err := tx.ExecContext(ctx, insertVote,
			record.ID, v.Voter, v.Direction, v.Weight, formatTime(v.CastAt),
		); err != nil {
			return fmt.Errorf("insert vote by %s for %s#%d: %w", v.Voter, record.RepoFullName, record.RequestNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote record for %s#%d: %w", record.RepoFullName, record.RequestNumber, err)
	}

	return nil
}

// ListRecent returns up to limit records for the repository, newest first.
func (r *VoteRecordRepo) ListRecent(ctx context.Context, repoFullName string, limit int) ([]model.VoteRecord, error) {
	const query = `
		SELECT id, repo_full_name, pr_number, head_sha, outcome, commit_sha, total, variance, threshold, recorded_at
		FROM vote_records
		WHERE repo_full_name = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`

	return r.queryRecords(ctx, query, repoFullName, limit)
}

// ListByRequest returns every record for one request, oldest first.
func (r *VoteRecordRepo) ListByRequest(ctx context.Context, repoFullName string, number int) ([]model.VoteRecord, error) {
	const query = `
		SELECT id, repo_full_name, pr_number, head_sha, outcome, commit_sha, total, variance, threshold, recorded_at
		FROM vote_records
		WHERE repo_full_name = ? AND pr_number = ?
		ORDER BY recorded_at, id
	`

	return r.queryRecords(ctx, query, repoFullName, number)
}

func (r *VoteRecordRepo) queryRecords(ctx context.Context, query string, args ...any) ([]model.VoteRecord, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query vote records: %w", err)
	}
	defer rows.Close()

	var records []model.VoteRecord
	for rows.Next() {
		rec, err := scanVoteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vote record: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vote records: %w", err)
	}

	for i := range records {
		votes, err := r.votesFor(ctx, records[i].ID, records[i].RequestNumber)
		if err != nil {
			return nil, err
		}
		records[i].Votes = votes
	}

	return records, nil
}

func (r *VoteRecordRepo) votesFor(ctx context.Context, recordID string, number int) ([]model.Vote, error) {
	const query = `
		SELECT voter, direction, weight, cast_at
		FROM vote_record_votes
		WHERE record_id = ?
		ORDER BY voter
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("query votes for record %s: %w", recordID, err)
	}
	defer rows.Close()

	var votes []model.Vote
	for rows.Next() {
		v := model.Vote{RequestNumber: number}
		var castAt string
		if err := rows.Scan(&v.Voter, &v.Direction, &v.Weight, &castAt); err != nil {
			return nil, fmt.Errorf("scan vote for record %s: %w", recordID, err)
		}
		if castAt != "" {
			v.CastAt, err = parseTime(castAt)
			if err != nil {
				return nil, fmt.Errorf("parse cast_at: %w", err)
			}
		}
		votes = append(votes, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate votes for record %s: %w", recordID, err)
	}

	return votes, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanVoteRecord(s scanner) (*model.VoteRecord, error) {
	var rec model.VoteRecord
	var outcome, recordedAt string

	err := s.Scan(
		&rec.ID, &rec.RepoFullName, &rec.RequestNumber, &rec.HeadSHA,
		&outcome, &rec.CommitSHA, &rec.Total, &rec.Variance, &rec.Threshold,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Outcome = model.RecordOutcome(outcome)

	rec.RecordedAt, err = parseTime(recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parse recorded_at: %w", err)
	}

	return &rec, nil
}

// newULID returns a lexically sortable ID whose timestamp part is t.
func newULID(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime stores times in UTC. The zero time is stored as an empty string.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
