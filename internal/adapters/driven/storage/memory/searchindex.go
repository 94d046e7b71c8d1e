package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// Ensure SearchIndex implements the interface.
var _ driven.SearchIndex = (*SearchIndex)(nil)

// SearchIndex is an in-memory implementation of driven.SearchIndex.
// A document matches when every query term occurs in its title, body or
// author; the score is the total number of occurrences.
type SearchIndex struct {
	mu      sync.RWMutex
	indexes map[string]map[string]domain.SearchDocument
}

// NewSearchIndex creates a new in-memory search index.
func NewSearchIndex() *SearchIndex {
	return &SearchIndex{
		indexes: make(map[string]map[string]domain.SearchDocument),
	}
}

// UpsertDocuments writes documents keyed by entity_id.
func (s *SearchIndex) UpsertDocuments(_ context.Context, index string, docs []domain.SearchDocument, keyField string) error {
	if keyField != domain.SearchKeyField {
		return fmt.Errorf("%w: key field %q", domain.ErrUnsupportedType, keyField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indexes[index]
	if !ok {
		idx = make(map[string]domain.SearchDocument)
		s.indexes[index] = idx
	}
	for _, d := range docs {
		idx[d.EntityID] = d
	}
	return nil
}

// Search returns matching documents, highest score first.
func (s *SearchIndex) Search(_ context.Context, index, query string, limit int) ([]domain.SearchHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	hits := []domain.SearchHit{}
	if len(terms) == 0 {
		return hits, nil
	}

	s.mu.RLock()
	for _, d := range s.indexes[index] {
		text := strings.ToLower(d.Title + " " + d.Body + " " + d.Author)
		score := 0
		for _, term := range terms {
			n := strings.Count(text, term)
			if n == 0 {
				score = 0
				break
			}
			score += n
		}
		if score > 0 {
			hits = append(hits, domain.SearchHit{Document: d, Score: float64(score)})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.EntityID < hits[j].Document.EntityID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Len returns the number of documents in an index.
func (s *SearchIndex) Len(index string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indexes[index])
}

// Close is a no-op.
func (s *SearchIndex) Close() error {
	return nil
}
