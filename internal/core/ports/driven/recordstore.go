package driven

import (
	"context"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// RecordStore persists subjects and their child items.
// Upserts are last-write-wins on the primary key, so overlapping writers
// need no coordination.
type RecordStore interface {
	// GetRecord retrieves a subject by instance and id.
	// Returns domain.ErrNotFound if nothing is stored.
	GetRecord(ctx context.Context, instanceID string, subjectID int64) (*domain.LocalRecord, error)

	// UpsertRecord creates or replaces a subject.
	UpsertRecord(ctx context.Context, record *domain.LocalRecord) error

	// CountChildren returns how many child items are stored for a subject.
	CountChildren(ctx context.Context, instanceID string, subjectID int64) (int, error)

	// UpsertChildren creates or replaces child items.
	UpsertChildren(ctx context.Context, children []domain.ChildItem) error

	// CountRecords returns how many subjects are stored for an instance.
	CountRecords(ctx context.Context, instanceID string) (int, error)

	// Close releases resources.
	Close() error
}
