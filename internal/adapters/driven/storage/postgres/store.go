package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// DefaultMaxConns is used when no pool size is configured.
const DefaultMaxConns = 4

const schema = `
CREATE TABLE IF NOT EXISTS records (
  instance_id      TEXT        NOT NULL,
  subject_id       BIGINT      NOT NULL,
  kind             TEXT        NOT NULL,
  title            TEXT        NOT NULL DEFAULT '',
  slug             TEXT        NOT NULL DEFAULT '',
  state            TEXT        NOT NULL DEFAULT '',
  author           TEXT        NOT NULL DEFAULT '',
  body             TEXT        NOT NULL DEFAULT '',
  item_count       INT         NOT NULL DEFAULT 0,
  last_activity_at TIMESTAMPTZ,
  created_at       TIMESTAMPTZ,
  attributes       JSONB       NOT NULL DEFAULT '{}',
  updated_at       TIMESTAMPTZ NOT NULL,
  PRIMARY KEY (instance_id, subject_id)
);
CREATE TABLE IF NOT EXISTS children (
  instance_id TEXT   NOT NULL,
  child_id    BIGINT NOT NULL,
  subject_id  BIGINT NOT NULL,
  number      INT    NOT NULL DEFAULT 0,
  author      TEXT   NOT NULL DEFAULT '',
  body        TEXT   NOT NULL DEFAULT '',
  text        TEXT   NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ,
  updated_at  TIMESTAMPTZ,
  PRIMARY KEY (instance_id, child_id)
);
CREATE INDEX IF NOT EXISTS idx_children_subject ON children(instance_id, subject_id);
`

const upsertChild = `
INSERT INTO children (instance_id, child_id, subject_id, number, author, body, text, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (instance_id, child_id) DO UPDATE SET
  subject_id = EXCLUDED.subject_id, number = EXCLUDED.number, author = EXCLUDED.author,
  body = EXCLUDED.body, text = EXCLUDED.text,
  created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at`

// Store is a PostgreSQL RecordStore.
type Store struct {
	pool *pgxpool.Pool
}

var _ driven.RecordStore = (*Store)(nil)

// NewStore opens a pool for dsn and ensures the schema exists.
func NewStore(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// GetRecord retrieves a subject by instance and id.
func (s *Store) GetRecord(ctx context.Context, instanceID string, subjectID int64) (*domain.LocalRecord, error) {
	var rec domain.LocalRecord
	var kind string
	var lastActivity, createdAt *time.Time
	err := s.pool.QueryRow(ctx, `
SELECT instance_id, subject_id, kind, title, slug, state, author, body,
  item_count, last_activity_at, created_at, attributes
FROM records WHERE instance_id = $1 AND subject_id = $2`, instanceID, subjectID).
		Scan(&rec.InstanceID, &rec.SubjectID, &kind, &rec.Title, &rec.Slug, &rec.State,
			&rec.Author, &rec.Body, &rec.ItemCount, &lastActivity, &createdAt, &rec.Attributes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanning record: %w", domain.ErrStorage, err)
	}

	rec.Kind = domain.SourceKind(kind)
	rec.LastActivityAt = derefTime(lastActivity)
	rec.CreatedAt = derefTime(createdAt)
	return &rec, nil
}

// UpsertRecord creates or replaces a subject.
func (s *Store) UpsertRecord(ctx context.Context, rec *domain.LocalRecord) error {
	if rec == nil {
		return domain.ErrInvalidInput
	}
	attributes := rec.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}

	_, err := s.pool.Exec(ctx, `
INSERT INTO records (instance_id, subject_id, kind, title, slug, state, author, body,
  item_count, last_activity_at, created_at, attributes, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
ON CONFLICT (instance_id, subject_id) DO UPDATE SET
  kind = EXCLUDED.kind, title = EXCLUDED.title, slug = EXCLUDED.slug, state = EXCLUDED.state,
  author = EXCLUDED.author, body = EXCLUDED.body, item_count = EXCLUDED.item_count,
  last_activity_at = EXCLUDED.last_activity_at, created_at = EXCLUDED.created_at,
  attributes = EXCLUDED.attributes, updated_at = EXCLUDED.updated_at`,
		rec.InstanceID, rec.SubjectID, string(rec.Kind), rec.Title, rec.Slug, rec.State,
		rec.Author, rec.Body, rec.ItemCount,
		nullTime(rec.LastActivityAt), nullTime(rec.CreatedAt), attributes)
	if err != nil {
		return fmt.Errorf("%w: saving record: %w", domain.ErrStorage, err)
	}
	return nil
}

// CountChildren returns how many child items are stored for a subject.
func (s *Store) CountChildren(ctx context.Context, instanceID string, subjectID int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM children WHERE instance_id = $1 AND subject_id = $2`,
		instanceID, subjectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting children: %w", domain.ErrStorage, err)
	}
	return n, nil
}

// UpsertChildren creates or replaces child items in a single batch.
func (s *Store) UpsertChildren(ctx context.Context, children []domain.ChildItem) error {
	if len(children) == 0 {
		return nil
	}

	b := &pgx.Batch{}
	for _, c := range children {
		b.Queue(upsertChild, c.InstanceID, c.ChildID, c.SubjectID, c.Number,
			c.Author, c.Body, c.Text, nullTime(c.CreatedAt), nullTime(c.UpdatedAt))
	}

	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for _, c := range children {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%w: saving child %d: %w", domain.ErrStorage, c.ChildID, err)
		}
	}
	return nil
}

// CountRecords returns how many subjects are stored for an instance.
func (s *Store) CountRecords(ctx context.Context, instanceID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM records WHERE instance_id = $1`, instanceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting records: %w", domain.ErrStorage, err)
	}
	return n, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
