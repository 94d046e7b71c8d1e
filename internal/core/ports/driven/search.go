package driven

import (
	"context"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// SearchIndex is the full-text search collaborator.
// Writes are best-effort from the indexer's point of view.
type SearchIndex interface {
	// UpsertDocuments adds or replaces documents in the named index,
	// keyed by keyField. Repeated upserts of the same key are idempotent.
	UpsertDocuments(ctx context.Context, index string, docs []domain.SearchDocument, keyField string) error

	// Search performs a keyword search over the named index.
	Search(ctx context.Context, index, query string, limit int) ([]domain.SearchHit, error)

	// Close releases resources.
	Close() error
}
