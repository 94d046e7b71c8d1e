package driving

import (
	"context"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// SearchService provides search over indexed content to external actors.
type SearchService interface {
	// Search queries the index for a source kind ("forum" or "tracker").
	Search(ctx context.Context, kind domain.SourceKind, query string, limit int) ([]domain.SearchHit, error)
}
