package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-mirror/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// DatabaseFile is the name of the database inside the data directory.
const DatabaseFile = "mirror.db"

// Store is a unified SQLite-based storage. It implements driven.RecordStore
// directly and exposes the scheduler store and search index through
// wrapper types sharing the same connection.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.RecordStore = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-mirror/data/mirror.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-mirror", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// SearchIndex returns an FTS5-backed SearchIndex sharing this store's
// connection. Closing the index leaves the store open.
func (s *Store) SearchIndex() driven.SearchIndex {
	return &searchIndex{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Store ====================

// GetRecord retrieves a subject by instance and id.
func (s *Store) GetRecord(ctx context.Context, instanceID string, subjectID int64) (*domain.LocalRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT instance_id, subject_id, kind, title, slug, state, author, body,
			item_count, last_activity_at, created_at, attributes
		FROM records WHERE instance_id = ? AND subject_id = ?
	`, instanceID, subjectID)

	var rec domain.LocalRecord
	var kind, attributesJSON string
	var lastActivity, createdAt sql.NullString
	if err := row.Scan(&rec.InstanceID, &rec.SubjectID, &kind, &rec.Title, &rec.Slug,
		&rec.State, &rec.Author, &rec.Body, &rec.ItemCount,
		&lastActivity, &createdAt, &attributesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning record: %w", domain.ErrStorage, err)
	}

	rec.Kind = domain.SourceKind(kind)
	rec.LastActivityAt = parseNullableNano(lastActivity)
	rec.CreatedAt = parseNullableNano(createdAt)
	if attributesJSON != "" {
		if err := json.Unmarshal([]byte(attributesJSON), &rec.Attributes); err != nil {
			return nil, fmt.Errorf("%w: unmarshaling attributes: %w", domain.ErrStorage, err)
		}
	}
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
	attributesJSON, err := json.Marshal(attributes)
	if err != nil {
		return fmt.Errorf("marshalling attributes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (instance_id, subject_id, kind, title, slug, state, author, body,
			item_count, last_activity_at, created_at, attributes, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, subject_id) DO UPDATE SET
			kind = excluded.kind,
			title = excluded.title,
			slug = excluded.slug,
			state = excluded.state,
			author = excluded.author,
			body = excluded.body,
			item_count = excluded.item_count,
			last_activity_at = excluded.last_activity_at,
			created_at = excluded.created_at,
			attributes = excluded.attributes,
			updated_at = excluded.updated_at
	`, rec.InstanceID, rec.SubjectID, string(rec.Kind), rec.Title, rec.Slug, rec.State,
		rec.Author, rec.Body, rec.ItemCount,
		formatNullableNano(rec.LastActivityAt), formatNullableNano(rec.CreatedAt),
		string(attributesJSON), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: saving record: %w", domain.ErrStorage, err)
	}
	return nil
}

// CountChildren returns how many child items are stored for a subject.
func (s *Store) CountChildren(ctx context.Context, instanceID string, subjectID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM children WHERE instance_id = ? AND subject_id = ?",
		instanceID, subjectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting children: %w", domain.ErrStorage, err)
	}
	return n, nil
}

// UpsertChildren creates or replaces child items in one transaction.
func (s *Store) UpsertChildren(ctx context.Context, children []domain.ChildItem) error {
	if len(children) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO children (instance_id, child_id, subject_id, number, author, body, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instance_id, child_id) DO UPDATE SET
			subject_id = excluded.subject_id,
			number = excluded.number,
			author = excluded.author,
			body = excluded.body,
			text = excluded.text,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing child upsert: %w", domain.ErrStorage, err)
	}
	defer stmt.Close()

	for _, c := range children {
		if _, err := stmt.ExecContext(ctx, c.InstanceID, c.ChildID, c.SubjectID, c.Number,
			c.Author, c.Body, c.Text,
			formatNullableNano(c.CreatedAt), formatNullableNano(c.UpdatedAt)); err != nil {
			return fmt.Errorf("%w: saving child %d: %w", domain.ErrStorage, c.ChildID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing children: %w", domain.ErrStorage, err)
	}
	return nil
}

// CountRecords returns how many subjects are stored for an instance.
func (s *Store) CountRecords(ctx context.Context, instanceID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE instance_id = ?", instanceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: counting records: %w", domain.ErrStorage, err)
	}
	return n, nil
}

// ==================== Helper Functions ====================

// formatNullableNano keeps sub-second precision so activity timestamps
// compare equal after a round trip.
func formatNullableNano(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseNullableNano(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
