package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

var testActivity = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func forumInstance() domain.SourceInstance {
	return domain.SourceInstance{
		ID:           "magicians",
		Kind:         domain.KindForum,
		BaseURL:      "https://forum.example",
		PollInterval: 30 * time.Minute,
		LatestPages:  1,
	}
}

func newTestWorker(source *mockSource, store *mockRecordStore, search *mockSearchIndex, sleeper *recordingSleep) *SourceWorker {
	opts := WorkerOptions{ListingDelay: 2 * time.Second, ErrorDelay: 5 * time.Second}
	if sleeper != nil {
		opts.Sleep = sleeper.sleep
	}
	var idx driven.SearchIndex
	if search != nil {
		idx = search
	}
	return NewSourceWorker(forumInstance(), source, store, idx, opts)
}

func TestSourceWorker_Process_StoresAndEnqueuesNextPage(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.addSubject(42, 2, 3, testActivity)
	store := newMockRecordStore()
	search := newMockSearchIndex()
	w := newTestWorker(source, store, search, nil)

	require.True(t, w.Enqueue(42, 1))
	req, err := w.queue.Dequeue(context.Background())
	require.NoError(t, err)

	outcome := w.Process(context.Background(), req)

	assert.Equal(t, OutcomeStored, outcome)
	rec, err := store.GetRecord(context.Background(), "magicians", 42)
	require.NoError(t, err)
	assert.Equal(t, "magicians", rec.InstanceID)
	assert.Equal(t, domain.KindForum, rec.Kind)
	assert.Equal(t, 6, rec.ItemCount)

	children, _ := store.CountChildren(context.Background(), "magicians", 42)
	assert.Equal(t, 3, children)

	// Page 1 released, page 2 queued.
	assert.False(t, w.queue.IsOutstanding(domain.WorkKey{SubjectID: 42, Page: 1}))
	assert.True(t, w.queue.IsOutstanding(domain.WorkKey{SubjectID: 42, Page: 2}))
	assert.Equal(t, 1, w.queue.Len())

	docs := search.docs["forum"]
	require.Len(t, docs, 4)
	assert.Equal(t, "topic_42", docs[0].EntityID)
	assert.Equal(t, "post_42001", docs[1].EntityID)
	assert.Equal(t, "post 1", docs[1].Body)
	assert.Equal(t, []string{domain.SearchKeyField}, search.keyFields)
}

func TestSourceWorker_Process_LaterPageDoesNotUpsertRecord(t *testing.T) {
	source := newMockSource(domain.KindForum)
	summary := source.addSubject(42, 2, 3, testActivity)
	store := newMockRecordStore()
	store.records[42] = domain.LocalRecord{SubjectID: 42, Title: "kept", ItemCount: summary.ItemCount, LastActivityAt: testActivity}
	w := newTestWorker(source, store, nil, nil)

	outcome := w.Process(context.Background(), domain.IndexRequest{SubjectID: 42, Page: 2})

	assert.Equal(t, OutcomeStored, outcome)
	records, children := store.upserts()
	assert.Equal(t, 0, records)
	assert.Equal(t, 1, children)
	assert.Equal(t, "kept", store.records[42].Title)
	assert.True(t, w.queue.IsOutstanding(domain.WorkKey{SubjectID: 42, Page: 3}))
}

func TestSourceWorker_Process_SkipsFreshSubject(t *testing.T) {
	source := newMockSource(domain.KindForum)
	summary := source.addSubject(7, 1, 10, testActivity)
	store := newMockRecordStore()
	store.seed("magicians", summary)
	search := newMockSearchIndex()
	w := newTestWorker(source, store, search, nil)

	outcome := w.Process(context.Background(), domain.IndexRequest{SubjectID: 7, Page: 1})

	assert.Equal(t, OutcomeSkipped, outcome)
	records, children := store.upserts()
	assert.Equal(t, 0, records)
	assert.Equal(t, 0, children)
	assert.Equal(t, 0, w.queue.Outstanding())
	assert.Empty(t, search.keyFields)
	assert.Equal(t, int64(1), w.Status().Skipped)
}

func TestSourceWorker_Process_EmptyPageEndsChain(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.addSubject(9, 1, 2, testActivity)
	store := newMockRecordStore()
	w := newTestWorker(source, store, nil, nil)

	// Nothing stored yet, so page 2 is stale but empty.
	outcome := w.Process(context.Background(), domain.IndexRequest{SubjectID: 9, Page: 2})

	assert.Equal(t, OutcomeStored, outcome)
	assert.Equal(t, 0, w.queue.Outstanding())
}

func TestSourceWorker_Process_FetchFailures(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.fetchErr[domain.WorkKey{SubjectID: 1, Page: 1}] = &domain.TransportError{URL: "https://x/t/1.json", StatusCode: 502}
	source.fetchErr[domain.WorkKey{SubjectID: 2, Page: 1}] = &domain.ParseError{URL: "https://x/t/2.json", Err: errors.New("bad json")}
	store := newMockRecordStore()
	w := newTestWorker(source, store, nil, nil)

	w.Enqueue(1, 1)
	w.Enqueue(2, 1)
	assert.Equal(t, OutcomeFetchFailed, w.Process(context.Background(), domain.IndexRequest{SubjectID: 1, Page: 1}))
	assert.Equal(t, OutcomeParseFailed, w.Process(context.Background(), domain.IndexRequest{SubjectID: 2, Page: 1}))

	// Keys are released so the same pages can be requested again.
	assert.Equal(t, 0, w.queue.Outstanding())
	status := w.Status()
	assert.Equal(t, int64(1), status.FetchFailed)
	assert.Equal(t, int64(1), status.ParseFailed)
}

func TestSourceWorker_Process_RecordUpsertFailureStillStoresChildren(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.addSubject(3, 1, 2, testActivity)
	store := newMockRecordStore()
	store.recordErr = errors.New("disk full")
	w := newTestWorker(source, store, nil, nil)

	outcome := w.Process(context.Background(), domain.IndexRequest{SubjectID: 3, Page: 1})

	assert.Equal(t, OutcomeStoreFailed, outcome)
	children, _ := store.CountChildren(context.Background(), "magicians", 3)
	assert.Equal(t, 2, children)
	assert.True(t, w.queue.IsOutstanding(domain.WorkKey{SubjectID: 3, Page: 2}))
}

func TestSourceWorker_Process_SearchFailureIsNotFatal(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.addSubject(5, 1, 1, testActivity)
	store := newMockRecordStore()
	search := newMockSearchIndex()
	search.upsertErr = errors.New("meilisearch down")
	w := newTestWorker(source, store, search, nil)

	outcome := w.Process(context.Background(), domain.IndexRequest{SubjectID: 5, Page: 1})

	assert.Equal(t, OutcomeStored, outcome)
	assert.Len(t, search.keyFields, 1)
}

func TestSourceWorker_Enqueue_ClampsPage(t *testing.T) {
	w := newTestWorker(newMockSource(domain.KindForum), newMockRecordStore(), nil, nil)

	assert.True(t, w.Enqueue(1, 0))
	assert.False(t, w.Enqueue(1, 1))

	status := w.Status()
	assert.Equal(t, int64(1), status.Enqueued)
	assert.Equal(t, int64(1), status.Coalesced)
	assert.Equal(t, 1, status.QueueDepth)
}

func TestSourceWorker_Run_PagesInOrder(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.addSubject(10, 3, 2, testActivity)
	source.addSubject(20, 2, 2, testActivity)
	store := newMockRecordStore()
	// A stored record keeps the backfill from running.
	store.seed("magicians", domain.RemoteSummary{RemoteID: 99, LastActivityAt: testActivity})
	w := newTestWorker(source, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	w.Enqueue(10, 1)
	w.Enqueue(20, 1)

	// Each subject ends with a fetch of the empty page after its last one.
	require.Eventually(t, func() bool {
		return len(source.calls()) == 7 && w.queue.Outstanding() == 0
	}, 2*time.Second, 5*time.Millisecond)

	pagesBySubject := map[int64][]int{}
	for _, k := range source.calls() {
		pagesBySubject[k.SubjectID] = append(pagesBySubject[k.SubjectID], k.Page)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, pagesBySubject[10])
	assert.Equal(t, []int{1, 2, 3}, pagesBySubject[20])

	cancel()
	<-done
}

func TestSourceWorker_Run_ContinuesAfterTransportError(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.fetchErr[domain.WorkKey{SubjectID: 1, Page: 1}] = &domain.TransportError{URL: "https://x", Err: errors.New("timeout")}
	source.addSubject(2, 1, 1, testActivity)
	store := newMockRecordStore()
	store.seed("magicians", domain.RemoteSummary{RemoteID: 99, LastActivityAt: testActivity})
	w := newTestWorker(source, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	w.Enqueue(1, 1)
	w.Enqueue(2, 1)

	require.Eventually(t, func() bool {
		s := w.Status()
		return s.FetchFailed == 1 && s.Stored >= 1
	}, 2*time.Second, 5*time.Millisecond)

	_, err := store.GetRecord(context.Background(), "magicians", 2)
	assert.NoError(t, err)

	cancel()
	<-done
}

func TestSourceWorker_Run_StopsOnClose(t *testing.T) {
	store := newMockRecordStore()
	store.seed("magicians", domain.RemoteSummary{RemoteID: 99})
	w := newTestWorker(newMockSource(domain.KindForum), store, nil, nil)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	w.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after close")
	}
}

func TestSourceWorker_StartBackfill_SkipsWarmStore(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.listings = []*domain.ListingPage{{Subjects: []domain.RemoteSummary{{RemoteID: 1, ItemCount: 1}}}}
	store := newMockRecordStore()
	store.seed("magicians", domain.RemoteSummary{RemoteID: 99})
	w := newTestWorker(source, store, nil, &recordingSleep{})

	started := w.StartBackfill(context.Background())
	w.wg.Wait()

	assert.False(t, started)
	assert.Equal(t, 0, source.listCount())
	assert.False(t, w.Status().Backfilling)
}

func TestSourceWorker_StartBackfill_SkipsOnCountError(t *testing.T) {
	source := newMockSource(domain.KindForum)
	store := newMockRecordStore()
	store.countErr = errors.New("db locked")
	w := newTestWorker(source, store, nil, &recordingSleep{})

	assert.False(t, w.StartBackfill(context.Background()))
	assert.Equal(t, 0, source.listCount())
}

func TestSourceWorker_StartBackfill_WalksEmptyStore(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.listings = []*domain.ListingPage{
		{Subjects: []domain.RemoteSummary{{RemoteID: 1, ItemCount: 2}, {RemoteID: 2, ItemCount: 1}}, Next: "1"},
		{Subjects: []domain.RemoteSummary{{RemoteID: 3, ItemCount: 5}}},
	}
	store := newMockRecordStore()
	sleeper := &recordingSleep{}
	w := newTestWorker(source, store, nil, sleeper)

	started := w.StartBackfill(context.Background())
	w.wg.Wait()

	assert.True(t, started)
	assert.Equal(t, 2, source.listCount())
	assert.Equal(t, 3, w.queue.Len())
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.durations())
}

func TestSourceWorker_Walk_SkipsFreshSubjects(t *testing.T) {
	fresh := domain.RemoteSummary{RemoteID: 1, ItemCount: 3, LastActivityAt: testActivity}
	stale := domain.RemoteSummary{RemoteID: 2, ItemCount: 4, LastActivityAt: testActivity}
	source := newMockSource(domain.KindForum)
	source.listings = []*domain.ListingPage{{Subjects: []domain.RemoteSummary{fresh, stale}}}
	store := newMockRecordStore()
	store.seed("magicians", fresh)
	store.seed("magicians", domain.RemoteSummary{RemoteID: 2, ItemCount: 3, LastActivityAt: testActivity})
	w := newTestWorker(source, store, nil, &recordingSleep{})

	n, err := w.Walk(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, w.queue.IsOutstanding(domain.WorkKey{SubjectID: 1, Page: 1}))
	assert.True(t, w.queue.IsOutstanding(domain.WorkKey{SubjectID: 2, Page: 1}))
}

func TestSourceWorker_Walk_LatestModeStopsAfterMaxPages(t *testing.T) {
	source := newMockSource(domain.KindForum)
	for i := 0; i < 5; i++ {
		source.listings = append(source.listings, &domain.ListingPage{
			Subjects: []domain.RemoteSummary{{RemoteID: int64(i + 1), ItemCount: 1}},
			Next:     strconv.Itoa(i + 1),
		})
	}
	sleeper := &recordingSleep{}
	w := newTestWorker(source, newMockRecordStore(), nil, sleeper)

	n, err := w.Walk(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, source.listCount())
	assert.Len(t, sleeper.durations(), 1)
}

func TestSourceWorker_Walk_AbortsOnListingError(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.listings = []*domain.ListingPage{
		{Subjects: []domain.RemoteSummary{{RemoteID: 1, ItemCount: 1}}, Next: "1"},
		{Subjects: []domain.RemoteSummary{{RemoteID: 2, ItemCount: 1}}, Next: "2"},
		{Subjects: []domain.RemoteSummary{{RemoteID: 3, ItemCount: 1}}},
	}
	source.listErrAt = 2
	source.listErr = &domain.TransportError{URL: "https://forum.example/latest.json?page=1", StatusCode: 429}
	sleeper := &recordingSleep{}
	w := newTestWorker(source, newMockRecordStore(), nil, sleeper)

	n, err := w.Walk(context.Background(), 0)

	require.Error(t, err)
	assert.True(t, domain.IsTransportError(err))
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, source.listCount())
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, sleeper.durations())
}

func TestSourceWorker_Walk_Cancelled(t *testing.T) {
	source := newMockSource(domain.KindForum)
	source.listings = []*domain.ListingPage{
		{Subjects: []domain.RemoteSummary{{RemoteID: 1, ItemCount: 1}}, Next: "1"},
		{Subjects: []domain.RemoteSummary{{RemoteID: 2, ItemCount: 1}}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := newTestWorker(source, newMockRecordStore(), nil, &recordingSleep{})

	n, err := w.Walk(ctx, 0)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, n)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "stored", OutcomeStored.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "fetch_failed", OutcomeFetchFailed.String())
	assert.Equal(t, "parse_failed", OutcomeParseFailed.String())
	assert.Equal(t, "store_failed", OutcomeStoreFailed.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
