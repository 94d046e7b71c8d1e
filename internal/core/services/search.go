package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// DefaultSearchLimit applies when the caller passes no limit.
const DefaultSearchLimit = 20

// maxSearchLimit caps caller-supplied limits.
const maxSearchLimit = 100

// SearchService queries the search index on behalf of external actors.
type SearchService struct {
	index driven.SearchIndex
}

// NewSearchService creates a search service. index may be nil, in which
// case every search returns domain.ErrSearchUnavailable.
func NewSearchService(index driven.SearchIndex) *SearchService {
	return &SearchService{index: index}
}

// Search runs a keyword query against the index for the given source kind.
func (s *SearchService) Search(
	ctx context.Context, kind domain.SourceKind, query string, limit int,
) ([]domain.SearchHit, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q kind=%s", query, kind)

	if s.index == nil {
		return nil, domain.ErrSearchUnavailable
	}

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchHit{}, nil
	}

	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	switch kind {
	case domain.KindForum, domain.KindTracker:
	default:
		return nil, fmt.Errorf("%w: source kind %q", domain.ErrUnsupportedType, kind)
	}

	hits, err := s.index.Search(ctx, domain.IndexName(kind), query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}
	logger.Debug("Search returned %d hits", len(hits))
	return hits, nil
}
