package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// --- Mock implementations for core service testing ---

// mockSource implements driven.SubjectSource over canned pages.
type mockSource struct {
	mu        sync.Mutex
	kind      domain.SourceKind
	pages     map[domain.WorkKey]*domain.SubjectPage
	summaries map[int64]domain.RemoteSummary
	fetchErr  map[domain.WorkKey]error
	listings  []*domain.ListingPage
	listErrAt int // 1-based listing page that fails; 0 never fails
	listErr   error

	fetchCalls []domain.WorkKey
	listCalls  int
}

func newMockSource(kind domain.SourceKind) *mockSource {
	return &mockSource{
		kind:      kind,
		pages:     make(map[domain.WorkKey]*domain.SubjectPage),
		summaries: make(map[int64]domain.RemoteSummary),
		fetchErr:  make(map[domain.WorkKey]error),
	}
}

// addSubject registers a subject with the given number of full pages of
// perPage children each. The page after the last one is empty.
func (m *mockSource) addSubject(id int64, pages, perPage int, lastActivity time.Time) domain.RemoteSummary {
	summary := domain.RemoteSummary{
		RemoteID:       id,
		Title:          "subject " + strconv.FormatInt(id, 10),
		ItemCount:      pages * perPage,
		LastActivityAt: lastActivity,
	}
	m.summaries[id] = summary
	for p := 1; p <= pages; p++ {
		children := make([]domain.ChildItem, 0, perPage)
		for i := 0; i < perPage; i++ {
			n := (p-1)*perPage + i + 1
			children = append(children, domain.ChildItem{
				ChildID: id*1000 + int64(n),
				Number:  n,
				Author:  "alice",
				Body:    "<p>post " + strconv.Itoa(n) + "</p>",
				Text:    "post " + strconv.Itoa(n),
			})
		}
		m.pages[domain.WorkKey{SubjectID: id, Page: p}] = &domain.SubjectPage{
			Summary: summary,
			Record: domain.LocalRecord{
				SubjectID:      id,
				Title:          summary.Title,
				Slug:           "subject-" + strconv.FormatInt(id, 10),
				ItemCount:      summary.ItemCount,
				LastActivityAt: lastActivity,
			},
			Children: children,
		}
	}
	return summary
}

func (m *mockSource) Kind() domain.SourceKind { return m.kind }

func (m *mockSource) ListSubjects(_ context.Context, cursor string) (*domain.ListingPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++

	idx := 0
	if cursor != "" {
		idx, _ = strconv.Atoi(cursor)
	}
	if m.listErrAt > 0 && idx+1 == m.listErrAt {
		return nil, m.listErr
	}
	if idx >= len(m.listings) {
		return &domain.ListingPage{}, nil
	}
	return m.listings[idx], nil
}

func (m *mockSource) FetchSubjectPage(_ context.Context, subjectID int64, page int) (*domain.SubjectPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := domain.WorkKey{SubjectID: subjectID, Page: page}
	m.fetchCalls = append(m.fetchCalls, key)

	if err := m.fetchErr[key]; err != nil {
		return nil, err
	}
	if p, ok := m.pages[key]; ok {
		cp := *p
		cp.Children = append([]domain.ChildItem(nil), p.Children...)
		return &cp, nil
	}
	summary := m.summaries[subjectID]
	return &domain.SubjectPage{Summary: summary, Record: domain.LocalRecord{SubjectID: subjectID}}, nil
}

func (m *mockSource) Validate(_ context.Context) error { return nil }

func (m *mockSource) calls() []domain.WorkKey {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.WorkKey(nil), m.fetchCalls...)
}

func (m *mockSource) listCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// mockRecordStore implements driven.RecordStore in memory.
type mockRecordStore struct {
	mu       sync.Mutex
	records  map[int64]domain.LocalRecord
	children map[int64]map[int64]domain.ChildItem

	recordErr   error
	childrenErr error
	countErr    error

	recordUpserts   int
	childrenUpserts int
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{
		records:  make(map[int64]domain.LocalRecord),
		children: make(map[int64]map[int64]domain.ChildItem),
	}
}

// seed stores a record matching the summary together with enough children.
func (m *mockRecordStore) seed(instanceID string, summary domain.RemoteSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[summary.RemoteID] = domain.LocalRecord{
		InstanceID:     instanceID,
		SubjectID:      summary.RemoteID,
		ItemCount:      summary.ItemCount,
		LastActivityAt: summary.LastActivityAt,
	}
	kids := make(map[int64]domain.ChildItem, summary.ItemCount)
	for i := 0; i < summary.ItemCount; i++ {
		kids[int64(i)] = domain.ChildItem{ChildID: int64(i)}
	}
	m.children[summary.RemoteID] = kids
}

func (m *mockRecordStore) GetRecord(_ context.Context, _ string, subjectID int64) (*domain.LocalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[subjectID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

func (m *mockRecordStore) UpsertRecord(_ context.Context, record *domain.LocalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordUpserts++
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records[record.SubjectID] = *record
	return nil
}

func (m *mockRecordStore) CountChildren(_ context.Context, _ string, subjectID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.children[subjectID]), nil
}

func (m *mockRecordStore) UpsertChildren(_ context.Context, children []domain.ChildItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.childrenUpserts++
	if m.childrenErr != nil {
		return m.childrenErr
	}
	for _, c := range children {
		kids, ok := m.children[c.SubjectID]
		if !ok {
			kids = make(map[int64]domain.ChildItem)
			m.children[c.SubjectID] = kids
		}
		kids[c.ChildID] = c
	}
	return nil
}

func (m *mockRecordStore) CountRecords(_ context.Context, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.records), nil
}

func (m *mockRecordStore) Close() error { return nil }

func (m *mockRecordStore) upserts() (records, children int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordUpserts, m.childrenUpserts
}

// mockSearchIndex implements driven.SearchIndex and records upserts.
type mockSearchIndex struct {
	mu        sync.Mutex
	docs      map[string][]domain.SearchDocument
	keyFields []string
	upsertErr error
	hits      []domain.SearchHit
	searchErr error
	queries   []string
}

func newMockSearchIndex() *mockSearchIndex {
	return &mockSearchIndex{docs: make(map[string][]domain.SearchDocument)}
}

func (m *mockSearchIndex) UpsertDocuments(_ context.Context, index string, docs []domain.SearchDocument, keyField string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyFields = append(m.keyFields, keyField)
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.docs[index] = append(m.docs[index], docs...)
	return nil
}

func (m *mockSearchIndex) Search(_ context.Context, index, query string, _ int) ([]domain.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, index+":"+query)
	return m.hits, m.searchErr
}

func (m *mockSearchIndex) Close() error { return nil }

// mockSchedulerStore implements driven.SchedulerStore for testing.
type mockSchedulerStore struct {
	mu       sync.RWMutex
	tasks    map[string]*domain.ScheduledTask
	results  map[string][]domain.TaskResult
	saveErr  error
	getErr   error
	pruneErr error
	pruned   []int
}

func newMockSchedulerStore() *mockSchedulerStore {
	return &mockSchedulerStore{
		tasks:   make(map[string]*domain.ScheduledTask),
		results: make(map[string][]domain.TaskResult),
	}
}

func (m *mockSchedulerStore) GetTask(_ context.Context, taskID string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	task, exists := m.tasks[taskID]
	if !exists {
		return nil, nil
	}
	// Return a copy
	taskCopy := *task
	return &taskCopy, nil
}

func (m *mockSchedulerStore) ListTasks(_ context.Context) ([]domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := make([]domain.ScheduledTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, *t)
	}
	return tasks, nil
}

func (m *mockSchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if task == nil {
		return domain.ErrInvalidInput
	}
	taskCopy := *task
	m.tasks[task.ID] = &taskCopy
	return nil
}

func (m *mockSchedulerStore) DeleteTask(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, taskID)
	delete(m.results, taskID)
	return nil
}

func (m *mockSchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if result == nil {
		return domain.ErrInvalidInput
	}
	m.results[result.TaskID] = append(m.results[result.TaskID], *result)
	return nil
}

func (m *mockSchedulerStore) GetTaskHistory(_ context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := m.results[taskID]
	history := make([]domain.TaskResult, 0, len(results))
	for i := len(results) - 1; i >= 0 && (limit <= 0 || len(history) < limit); i-- {
		history = append(history, results[i])
	}
	return history, nil
}

func (m *mockSchedulerStore) PruneHistory(_ context.Context, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruned = append(m.pruned, keep)
	return m.pruneErr
}

// recordingSleep returns a sleep func that records durations without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	waits  []time.Duration
	onCall func(n int)
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	n := len(r.waits)
	hook := r.onCall
	r.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

func (r *recordingSleep) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

// Ensure mocks implement interfaces
var (
	_ driven.SubjectSource  = (*mockSource)(nil)
	_ driven.RecordStore    = (*mockRecordStore)(nil)
	_ driven.SearchIndex    = (*mockSearchIndex)(nil)
	_ driven.SchedulerStore = (*mockSchedulerStore)(nil)
)
