package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
	"github.com/custodia-labs/sercha-mirror/internal/metrics"
)

// Outcome is the terminal state of one processed index request.
type Outcome int

const (
	// OutcomeStored means the page was stale and its content was persisted.
	OutcomeStored Outcome = iota

	// OutcomeSkipped means the stored record was already up to date.
	OutcomeSkipped

	// OutcomeFetchFailed means a network error or non-2xx response.
	OutcomeFetchFailed

	// OutcomeParseFailed means the response body could not be decoded.
	OutcomeParseFailed

	// OutcomeStoreFailed means the record or children could not be persisted.
	OutcomeStoreFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStored:
		return "stored"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeParseFailed:
		return "parse_failed"
	case OutcomeStoreFailed:
		return "store_failed"
	default:
		return "unknown"
	}
}

// WorkerOptions tunes a SourceWorker. Zero values fall back to defaults.
type WorkerOptions struct {
	// ListingDelay spaces successive listing-page requests during a walk.
	ListingDelay time.Duration

	// ErrorDelay is waited after a listing failure before the walk aborts.
	ErrorDelay time.Duration

	// Sleep replaces the context-aware sleep. Used by tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// SourceWorker owns the dedup queue of one source instance and its single
// consumer loop.
type SourceWorker struct {
	instance domain.SourceInstance
	source   driven.SubjectSource
	store    driven.RecordStore
	search   driven.SearchIndex
	queue    *DedupQueue

	listingDelay time.Duration
	errorDelay   time.Duration
	sleep        func(ctx context.Context, d time.Duration) error

	wg          sync.WaitGroup
	backfilling atomic.Bool

	enqueued    atomic.Int64
	coalesced   atomic.Int64
	stored      atomic.Int64
	skipped     atomic.Int64
	fetchFailed atomic.Int64
	parseFailed atomic.Int64
	storeFailed atomic.Int64
}

// NewSourceWorker creates a worker for one instance. search may be nil.
func NewSourceWorker(
	instance domain.SourceInstance,
	source driven.SubjectSource,
	store driven.RecordStore,
	search driven.SearchIndex,
	opts WorkerOptions,
) *SourceWorker {
	w := &SourceWorker{
		instance:     instance,
		source:       source,
		store:        store,
		search:       search,
		queue:        NewDedupQueue(),
		listingDelay: opts.ListingDelay,
		errorDelay:   opts.ErrorDelay,
		sleep:        opts.Sleep,
	}
	if w.listingDelay <= 0 {
		w.listingDelay = domain.DefaultListingDelay
	}
	if w.errorDelay <= 0 {
		w.errorDelay = domain.DefaultErrorDelay
	}
	if w.sleep == nil {
		w.sleep = sleepContext
	}
	return w
}

// Instance returns the source instance this worker serves.
func (w *SourceWorker) Instance() domain.SourceInstance {
	return w.instance
}

// Enqueue queues a subject page unless the same page is already outstanding.
// Returns true if a new request was queued.
func (w *SourceWorker) Enqueue(subjectID int64, page int) bool {
	if page < domain.FirstPage {
		page = domain.FirstPage
	}
	req := domain.IndexRequest{SubjectID: subjectID, Page: page}
	if !w.queue.Enqueue(req) {
		w.coalesced.Add(1)
		metrics.Coalesced.WithLabelValues(w.instance.ID).Inc()
		logger.Debug("[%s] coalesced %s", w.instance.ID, req.Key())
		return false
	}
	w.enqueued.Add(1)
	metrics.Enqueued.WithLabelValues(w.instance.ID).Inc()
	metrics.QueueDepth.WithLabelValues(w.instance.ID).Set(float64(w.queue.Len()))
	return true
}

// Run starts the initial backfill when the store holds nothing for this
// instance, then consumes the queue until ctx is cancelled or the worker
// is closed. Failures of individual requests never stop the loop.
func (w *SourceWorker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer w.wg.Wait()
	defer cancel()

	w.StartBackfill(ctx)

	for {
		req, err := w.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		metrics.QueueDepth.WithLabelValues(w.instance.ID).Set(float64(w.queue.Len()))
		w.Process(ctx, req)
	}
}

// Close stops the consumer loop. Queued requests are dropped.
func (w *SourceWorker) Close() {
	w.queue.Close()
}

// StartBackfill launches a full listing walk in the background if no
// records are stored for the instance. Returns true if a walk was started.
func (w *SourceWorker) StartBackfill(ctx context.Context) bool {
	count, err := w.store.CountRecords(ctx, w.instance.ID)
	if err != nil {
		logger.Error("[%s] count records: %v; skipping backfill", w.instance.ID, err)
		return false
	}
	if count > 0 {
		logger.Info("[%s] %d records stored, skipping backfill", w.instance.ID, count)
		return false
	}

	w.backfilling.Store(true)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.backfilling.Store(false)

		logger.Info("[%s] store is empty, starting backfill", w.instance.ID)
		n, err := w.Walk(ctx, 0)
		if err != nil {
			logger.Warn("[%s] backfill aborted after enqueueing %d subjects: %v", w.instance.ID, n, err)
			return
		}
		logger.Info("[%s] backfill complete, %d subjects enqueued", w.instance.ID, n)
	}()
	return true
}

// Walk follows the listing pagination chain and enqueues the first page of
// every stale subject. maxPages bounds the number of listing pages; zero
// walks the whole listing. Listing requests are spaced by the listing
// delay. On a listing failure the walk waits the error delay and aborts;
// the next scheduled run starts again from the beginning.
func (w *SourceWorker) Walk(ctx context.Context, maxPages int) (int, error) {
	mode := "full"
	if maxPages > 0 {
		mode = "latest"
	}

	cursor := ""
	enqueued := 0
	for pages := 0; maxPages == 0 || pages < maxPages; pages++ {
		if pages > 0 {
			if err := w.sleep(ctx, w.listingDelay); err != nil {
				metrics.Walks.WithLabelValues(w.instance.ID, mode, "cancelled").Inc()
				return enqueued, err
			}
		}

		listing, err := w.source.ListSubjects(ctx, cursor)
		if err != nil {
			metrics.Walks.WithLabelValues(w.instance.ID, mode, "failed").Inc()
			logger.Warn("[%s] listing page %d failed: %v", w.instance.ID, pages+1, err)
			_ = w.sleep(ctx, w.errorDelay)
			return enqueued, fmt.Errorf("list subjects: %w", err)
		}

		for _, summary := range listing.Subjects {
			local, children := w.lookup(ctx, summary.RemoteID)
			if !domain.NeedsRefetch(local, children, summary) {
				continue
			}
			if w.Enqueue(summary.RemoteID, domain.FirstPage) {
				enqueued++
			}
		}

		if listing.Next == "" {
			break
		}
		cursor = listing.Next
	}

	metrics.Walks.WithLabelValues(w.instance.ID, mode, "ok").Inc()
	return enqueued, nil
}

// Process handles one dequeued request and releases its key when done.
// A non-empty stale page enqueues the following page before the key is
// released, so pages of one subject are processed in order.
func (w *SourceWorker) Process(ctx context.Context, req domain.IndexRequest) Outcome {
	key := req.Key()
	defer w.queue.Release(key)

	outcome := w.process(ctx, req)
	w.count(outcome)
	metrics.Processed.WithLabelValues(w.instance.ID, outcome.String()).Inc()
	logger.Debug("[%s] %s: %s", w.instance.ID, key, outcome)
	return outcome
}

func (w *SourceWorker) process(ctx context.Context, req domain.IndexRequest) Outcome {
	start := time.Now()
	page, err := w.source.FetchSubjectPage(ctx, req.SubjectID, req.Page)
	metrics.FetchDuration.WithLabelValues(w.instance.ID).Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Error("[%s] fetch %s: %v", w.instance.ID, req.Key(), err)
		if domain.IsParseError(err) {
			return OutcomeParseFailed
		}
		return OutcomeFetchFailed
	}

	local, children := w.lookup(ctx, req.SubjectID)
	if !domain.NeedsRefetch(local, children, page.Summary) {
		return OutcomeSkipped
	}

	outcome := OutcomeStored

	var record *domain.LocalRecord
	if req.Page == domain.FirstPage {
		record = &page.Record
		record.InstanceID = w.instance.ID
		record.SubjectID = req.SubjectID
		record.Kind = w.instance.Kind
		if err := w.store.UpsertRecord(ctx, record); err != nil {
			logger.Error("[%s] upsert record %d: %v", w.instance.ID, req.SubjectID, err)
			outcome = OutcomeStoreFailed
		}
	}

	if len(page.Children) > 0 {
		for i := range page.Children {
			page.Children[i].InstanceID = w.instance.ID
			page.Children[i].SubjectID = req.SubjectID
		}
		if err := w.store.UpsertChildren(ctx, page.Children); err != nil {
			logger.Error("[%s] upsert %d children of %d: %v", w.instance.ID, len(page.Children), req.SubjectID, err)
			outcome = OutcomeStoreFailed
		}

		w.Enqueue(req.SubjectID, req.Page+1)
	}

	w.index(ctx, record, page.Children)
	return outcome
}

// lookup returns the stored record (nil when missing) and its child count.
// Store failures are treated as "nothing stored" so the subject is refetched.
func (w *SourceWorker) lookup(ctx context.Context, subjectID int64) (*domain.LocalRecord, int) {
	local, err := w.store.GetRecord(ctx, w.instance.ID, subjectID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("[%s] get record %d: %v", w.instance.ID, subjectID, err)
		}
		return nil, 0
	}
	children, err := w.store.CountChildren(ctx, w.instance.ID, subjectID)
	if err != nil {
		logger.Warn("[%s] count children of %d: %v", w.instance.ID, subjectID, err)
		return local, 0
	}
	return local, children
}

// index forwards documents to the search collaborator. Failures are logged only.
func (w *SourceWorker) index(ctx context.Context, record *domain.LocalRecord, children []domain.ChildItem) {
	if w.search == nil {
		return
	}
	docs := BuildDocuments(w.instance.Kind, record, children)
	if len(docs) == 0 {
		return
	}
	index := domain.IndexName(w.instance.Kind)
	if err := w.search.UpsertDocuments(ctx, index, docs, domain.SearchKeyField); err != nil {
		logger.Warn("[%s] search upsert of %d documents: %v", w.instance.ID, len(docs), err)
	}
}

func (w *SourceWorker) count(o Outcome) {
	switch o {
	case OutcomeStored:
		w.stored.Add(1)
	case OutcomeSkipped:
		w.skipped.Add(1)
	case OutcomeFetchFailed:
		w.fetchFailed.Add(1)
	case OutcomeParseFailed:
		w.parseFailed.Add(1)
	case OutcomeStoreFailed:
		w.storeFailed.Add(1)
	}
}

// Status returns a snapshot of the worker's queue and counters.
func (w *SourceWorker) Status() driving.InstanceStatus {
	return driving.InstanceStatus{
		InstanceID:  w.instance.ID,
		Kind:        string(w.instance.Kind),
		QueueDepth:  w.queue.Len(),
		Outstanding: w.queue.Outstanding(),
		Enqueued:    w.enqueued.Load(),
		Coalesced:   w.coalesced.Load(),
		Stored:      w.stored.Load(),
		Skipped:     w.skipped.Load(),
		FetchFailed: w.fetchFailed.Load(),
		ParseFailed: w.parseFailed.Load(),
		StoreFailed: w.storeFailed.Load(),
		Backfilling: w.backfilling.Load(),
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
