package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// DedupQueue pairs an unbounded FIFO of index requests with the set of
// outstanding keys. A key stays outstanding from the moment it is enqueued
// until Release is called after its processing finishes, so at most one
// request per key is queued or in flight at any time.
//
// Enqueue may be called from any goroutine. Dequeue is meant for a single
// consumer.
type DedupQueue struct {
	mu          sync.Mutex
	outstanding map[domain.WorkKey]struct{}
	items       []domain.IndexRequest
	closed      bool

	// signal has a buffer of 1 and coalesces wakeups.
	signal chan struct{}
	done   chan struct{}
}

// NewDedupQueue creates an empty queue.
func NewDedupQueue() *DedupQueue {
	return &DedupQueue{
		outstanding: make(map[domain.WorkKey]struct{}),
		items:       make([]domain.IndexRequest, 0, 64),
		signal:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
}

// Enqueue adds the request unless its key is already outstanding.
// Returns true if a new request was queued, false if it was coalesced
// with an outstanding one or the queue is closed.
func (q *DedupQueue) Enqueue(req domain.IndexRequest) bool {
	key := req.Key()

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if _, ok := q.outstanding[key]; ok {
		return false
	}
	q.outstanding[key] = struct{}{}
	q.items = append(q.items, req)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Dequeue blocks until a request is available and returns it in FIFO order.
// The key remains outstanding until Release is called.
// Returns domain.ErrQueueClosed once the queue is closed, or the context error.
func (q *DedupQueue) Dequeue(ctx context.Context) (domain.IndexRequest, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return domain.IndexRequest{}, domain.ErrQueueClosed
		}
		if len(q.items) > 0 {
			req := q.items[0]
			if len(q.items) == 1 {
				q.items = q.items[:0]
			} else {
				q.items = q.items[1:]
			}
			q.mu.Unlock()
			return req, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.IndexRequest{}, ctx.Err()
		case <-q.done:
		case <-q.signal:
		}
	}
}

// Release marks the key as finished so it can be enqueued again.
func (q *DedupQueue) Release(key domain.WorkKey) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.outstanding, key)
}

// Len returns the number of requests waiting to be dequeued.
func (q *DedupQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Outstanding returns the number of queued plus in-flight keys.
func (q *DedupQueue) Outstanding() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.outstanding)
}

// IsOutstanding reports whether the key is queued or being processed.
func (q *DedupQueue) IsOutstanding(key domain.WorkKey) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.outstanding[key]
	return ok
}

// Close stops the queue. Pending requests are dropped and blocked
// Dequeue calls return domain.ErrQueueClosed.
func (q *DedupQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	close(q.done)
}
