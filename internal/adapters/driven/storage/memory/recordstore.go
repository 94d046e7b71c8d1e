package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

type recordKey struct {
	instanceID string
	subjectID  int64
}

type childKey struct {
	instanceID string
	childID    int64
}

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu       sync.RWMutex
	records  map[recordKey]domain.LocalRecord
	children map[childKey]domain.ChildItem
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records:  make(map[recordKey]domain.LocalRecord),
		children: make(map[childKey]domain.ChildItem),
	}
}

// GetRecord retrieves a subject by instance and id.
func (s *RecordStore) GetRecord(_ context.Context, instanceID string, subjectID int64) (*domain.LocalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[recordKey{instanceID, subjectID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec.Attributes = maps.Clone(rec.Attributes)
	return &rec, nil
}

// UpsertRecord creates or replaces a subject.
func (s *RecordStore) UpsertRecord(_ context.Context, rec *domain.LocalRecord) error {
	if rec == nil {
		return domain.ErrInvalidInput
	}
	stored := *rec
	stored.Attributes = maps.Clone(rec.Attributes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recordKey{rec.InstanceID, rec.SubjectID}] = stored
	return nil
}

// CountChildren returns how many child items are stored for a subject.
func (s *RecordStore) CountChildren(_ context.Context, instanceID string, subjectID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k, c := range s.children {
		if k.instanceID == instanceID && c.SubjectID == subjectID {
			n++
		}
	}
	return n, nil
}

// UpsertChildren creates or replaces child items.
func (s *RecordStore) UpsertChildren(_ context.Context, children []domain.ChildItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range children {
		s.children[childKey{c.InstanceID, c.ChildID}] = c
	}
	return nil
}

// CountRecords returns how many subjects are stored for an instance.
func (s *RecordStore) CountRecords(_ context.Context, instanceID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.records {
		if k.instanceID == instanceID {
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *RecordStore) Close() error {
	return nil
}
