package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
)

// ErrRecordExists indicates a vote record for the same terminal decision was already archived.
var ErrRecordExists = errors.New("vote record already exists")

// VoteRecordStore defines the driven port for the append-only vote record archive.
// Persist returns ErrRecordExists if a record with the same repository, request
// number, head SHA, and outcome was archived before.
type VoteRecordStore interface {
	Persist(ctx context.Context, record model.VoteRecord) error
	// ListRecent returns the most recent records for the repository, newest first.
	ListRecent(ctx context.Context, repoFullName string, limit int) ([]model.VoteRecord, error)
	// ListByRequest returns every record for one request, oldest first.
	ListByRequest(ctx context.Context, repoFullName string, number int) ([]model.VoteRecord, error)
}
