package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

// Ensure Registry implements the interface.
var _ driving.Indexer = (*Registry)(nil)

// Registry holds one SourceWorker per configured instance and manages
// their lifecycle.
type Registry struct {
	workers   map[string]*SourceWorker
	order     []string
	scheduler *Scheduler

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRegistry creates a registry over the given workers. scheduler may be
// nil to disable periodic runs.
func NewRegistry(workers []*SourceWorker, scheduler *Scheduler) (*Registry, error) {
	r := &Registry{
		workers:   make(map[string]*SourceWorker, len(workers)),
		order:     make([]string, 0, len(workers)),
		scheduler: scheduler,
	}
	for _, w := range workers {
		id := w.Instance().ID
		if _, dup := r.workers[id]; dup {
			return nil, fmt.Errorf("%w: duplicate source instance %q", domain.ErrInvalidInput, id)
		}
		r.workers[id] = w
		r.order = append(r.order, id)
	}
	sort.Strings(r.order)
	return r, nil
}

// StartAll spawns each worker's consumer loop and the scheduler. Instances
// run independently; a slow or failing instance does not block the others.
// Calling StartAll twice is a no-op.
func (r *Registry) StartAll(ctx context.Context) {
	r.start(ctx, true)
}

// StartWorkers spawns the consumer loops only. One-shot commands use it so
// the scheduler's own walks do not run alongside theirs.
func (r *Registry) StartWorkers(ctx context.Context) {
	r.start(ctx, false)
}

func (r *Registry) start(ctx context.Context, withScheduler bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	for _, id := range r.order {
		w := r.workers[id]
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := w.Run(ctx); err != nil {
				logger.Error("[%s] worker stopped: %v", id, err)
			}
		}()
	}

	if withScheduler && r.scheduler != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.scheduler.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("scheduler stopped: %v", err)
			}
		}()
	}
	logger.Info("registry: started %d source workers", len(r.order))
}

// Stop cancels every loop and waits for them to return.
func (r *Registry) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.started = false
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	for _, w := range r.workers {
		w.Close()
	}
	r.wg.Wait()
}

// Enqueue forwards an index request to the instance's queue.
// A request coalesced with an outstanding one is not an error.
func (r *Registry) Enqueue(_ context.Context, instanceID string, subjectID int64, page int) error {
	w, ok := r.workers[instanceID]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownInstance, instanceID)
	}
	if subjectID <= 0 {
		return fmt.Errorf("%w: subject id must be positive", domain.ErrInvalidInput)
	}
	w.Enqueue(subjectID, page)
	return nil
}

// Worker returns the worker for an instance.
func (r *Registry) Worker(instanceID string) (*SourceWorker, bool) {
	w, ok := r.workers[instanceID]
	return w, ok
}

// Instances returns the configured instance ids in sorted order.
func (r *Registry) Instances() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Status returns a snapshot per instance, sorted by id.
func (r *Registry) Status() []driving.InstanceStatus {
	out := make([]driving.InstanceStatus, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workers[id].Status())
	}
	return out
}
