package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.SearchHit
	err       error
	lastKind  domain.SourceKind
	lastLimit int
}

func (m *mockSearchService) Search(
	_ context.Context,
	kind domain.SourceKind,
	_ string,
	limit int,
) ([]domain.SearchHit, error) {
	m.lastKind = kind
	m.lastLimit = limit
	return m.results, m.err
}

type enqueueCall struct {
	instance string
	subject  int64
	page     int
}

// mockIndexer is a mock implementation of driving.Indexer.
type mockIndexer struct {
	status []driving.InstanceStatus
	err    error
	calls  []enqueueCall
}

func (m *mockIndexer) Enqueue(_ context.Context, instanceID string, subjectID int64, page int) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, enqueueCall{instanceID, subjectID, page})
	return nil
}

func (m *mockIndexer) Status() []driving.InstanceStatus {
	return m.status
}

func (m *mockIndexer) Instances() []string {
	ids := make([]string, len(m.status))
	for i := range m.status {
		ids[i] = m.status[i].InstanceID
	}
	return ids
}

// mockUserService is a mock implementation of driving.UserService.
type mockUserService struct {
	profile *domain.UserProfile
	err     error
}

func (m *mockUserService) UserProfile(_ context.Context, _, _ string) (*domain.UserProfile, error) {
	return m.profile, m.err
}

// Verify mocks implement interfaces.
var (
	_ driving.SearchService = (*mockSearchService)(nil)
	_ driving.Indexer       = (*mockIndexer)(nil)
	_ driving.UserService   = (*mockUserService)(nil)
)
