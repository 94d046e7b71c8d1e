package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// searchIndex implements driven.SearchIndex on the search_documents table
// and its FTS5 shadow.
type searchIndex struct {
	store *Store
}

var _ driven.SearchIndex = (*searchIndex)(nil)

// UpsertDocuments writes documents keyed by (index, entity_id). Only the
// entity_id key field is supported.
func (s *searchIndex) UpsertDocuments(ctx context.Context, index string, docs []domain.SearchDocument, keyField string) error {
	if keyField != domain.SearchKeyField {
		return fmt.Errorf("%w: key field %q", domain.ErrUnsupportedType, keyField)
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_documents (index_name, entity_id, entity_type, instance_id, subject_id,
			child_id, number, author, title, slug, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_name, entity_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			instance_id = excluded.instance_id,
			subject_id = excluded.subject_id,
			child_id = excluded.child_id,
			number = excluded.number,
			author = excluded.author,
			title = excluded.title,
			slug = excluded.slug,
			body = excluded.body
	`)
	if err != nil {
		return fmt.Errorf("preparing document upsert: %w", err)
	}
	defer stmt.Close()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, index, d.EntityID, d.EntityType, d.InstanceID, d.SubjectID,
			d.ChildID, d.Number, d.Author, d.Title, d.Slug, d.Body); err != nil {
			return fmt.Errorf("saving document %s: %w", d.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
	}
	return nil
}

// Search runs a full-text query against one index, best matches first.
func (s *searchIndex) Search(ctx context.Context, index, query string, limit int) ([]domain.SearchHit, error) {
	match := ftsQuery(query)
	if match == "" {
		return []domain.SearchHit{}, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT d.entity_id, d.entity_type, d.instance_id, d.subject_id, d.child_id, d.number,
			d.author, d.title, d.slug, d.body, bm25(search_fts)
		FROM search_fts
		JOIN search_documents d ON d.id = search_fts.rowid
		WHERE search_fts MATCH ? AND d.index_name = ?
		ORDER BY bm25(search_fts)
		LIMIT ?
	`, match, index, limit)
	if err != nil {
		return nil, fmt.Errorf("querying search index: %w", err)
	}
	defer rows.Close()

	hits := []domain.SearchHit{}
	for rows.Next() {
		var hit domain.SearchHit
		var rank float64
		d := &hit.Document
		if err := rows.Scan(&d.EntityID, &d.EntityType, &d.InstanceID, &d.SubjectID, &d.ChildID,
			&d.Number, &d.Author, &d.Title, &d.Slug, &d.Body, &rank); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		// bm25 is lower-is-better; flip it so higher scores rank first.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search hits: %w", err)
	}
	return hits, nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *searchIndex) Close() error {
	return nil
}

// ftsQuery quotes every term so user input cannot use FTS5 query syntax.
// Terms are implicitly ANDed.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}
