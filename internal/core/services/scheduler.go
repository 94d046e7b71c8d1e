package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// SchedulerOptions injects the clock. Zero values use the real clock.
type SchedulerOptions struct {
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Scheduler runs one "fetch latest" loop per source worker. Each loop walks
// the latest listing pages and then sleeps until the next round multiple of
// the instance's poll interval, so runs land on clock marks.
type Scheduler struct {
	workers []*SourceWorker
	store   driven.SchedulerStore
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. store may be nil, in which case runs
// are not recorded.
func NewScheduler(workers []*SourceWorker, store driven.SchedulerStore, opts SchedulerOptions) *Scheduler {
	s := &Scheduler{
		workers: workers,
		store:   store,
		now:     opts.Now,
		sleep:   opts.Sleep,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	return s
}

// Start runs every instance loop. It blocks until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(len(s.workers))
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.forgetRemoved(ctx)
	for _, w := range s.workers {
		if err := s.ensureTask(ctx, w.Instance()); err != nil {
			logger.Warn("scheduler: failed to initialise task for %s: %v", w.Instance().ID, err)
		}
	}

	for _, w := range s.workers {
		go func(w *SourceWorker) {
			defer s.wg.Done()
			s.loop(ctx, w)
		}(w)
	}
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err := ctx.Err(); err != nil && !s.stopped(stopCh) {
		return err
	}
	return nil
}

// Stop gracefully shuts down all loops and waits for running walks to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Scheduler) stopped(stopCh chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

// loop never exits on a failed run; only cancellation ends it.
func (s *Scheduler) loop(ctx context.Context, w *SourceWorker) {
	inst := w.Instance()
	for {
		s.RunOnce(ctx, w)

		wait := domain.UntilNextTick(s.now(), inst.PollInterval)
		logger.Debug("scheduler: %s sleeping %s until next tick", inst.ID, wait)
		if err := s.sleep(ctx, wait); err != nil {
			return
		}
	}
}

// RunOnce performs one "fetch latest" walk for the worker and records the result.
func (s *Scheduler) RunOnce(ctx context.Context, w *SourceWorker) domain.TaskResult {
	inst := w.Instance()
	result := domain.TaskResult{
		TaskID:    domain.LatestTaskID(inst.ID),
		RunID:     uuid.New().String(),
		StartedAt: s.now(),
	}

	n, err := w.Walk(ctx, inst.LatestPages)
	result.EndedAt = s.now()
	result.ItemsProcessed = n
	if err != nil {
		result.Error = err.Error()
		logger.Warn("scheduler: %s run %s failed: %v", inst.ID, result.RunID, err)
	} else {
		result.Success = true
		logger.Info("scheduler: %s run %s enqueued %d subjects", inst.ID, result.RunID, n)
	}

	s.record(ctx, inst, &result)
	return result
}

// Tasks returns the recorded task of every instance. Without a store
// nothing is recorded and the result is empty.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListTasks(ctx)
}

// History returns the most recent runs of one instance, newest first.
func (s *Scheduler) History(ctx context.Context, instanceID string, limit int) ([]domain.TaskResult, error) {
	if !s.configured(instanceID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownInstance, instanceID)
	}
	if s.store == nil {
		return nil, nil
	}
	return s.store.GetTaskHistory(ctx, domain.LatestTaskID(instanceID), limit)
}

func (s *Scheduler) configured(instanceID string) bool {
	for _, w := range s.workers {
		if w.Instance().ID == instanceID {
			return true
		}
	}
	return false
}

// forgetRemoved deletes tasks of instances that are no longer configured.
func (s *Scheduler) forgetRemoved(ctx context.Context) {
	if s.store == nil {
		return
	}
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}
	for _, task := range tasks {
		id, ok := domain.LatestTaskInstance(task.ID)
		if !ok || s.configured(id) {
			continue
		}
		if err := s.store.DeleteTask(ctx, task.ID); err != nil {
			logger.Warn("scheduler: failed to delete task %s: %v", task.ID, err)
			continue
		}
		logger.Info("scheduler: dropped task %s of removed instance", task.ID)
	}
}

// ensureTask creates or updates the instance's task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, inst domain.SourceInstance) error {
	if s.store == nil {
		return nil
	}
	id := domain.LatestTaskID(inst.ID)
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:   id,
			Name: fmt.Sprintf("Fetch latest (%s)", inst.ID),
		}
	}
	task.Interval = inst.PollInterval
	task.Enabled = true
	task.NextRun = s.now()

	return s.store.SaveTask(ctx, task)
}

// record persists the run outcome. Store failures are logged only.
func (s *Scheduler) record(ctx context.Context, inst domain.SourceInstance, result *domain.TaskResult) {
	if s.store == nil {
		return
	}
	// Recording outlives cancellation of the run itself.
	ctx = context.WithoutCancel(ctx)

	task, err := s.store.GetTask(ctx, result.TaskID)
	if err != nil {
		logger.Warn("scheduler: failed to load task %s: %v", result.TaskID, err)
	}
	if task == nil {
		task = &domain.ScheduledTask{ID: result.TaskID, Name: fmt.Sprintf("Fetch latest (%s)", inst.ID)}
	}
	task.Interval = inst.PollInterval
	task.Enabled = true
	task.LastRun = result.StartedAt
	task.NextRun = domain.NextAlignedTick(result.EndedAt, inst.PollInterval)
	if result.Success {
		task.LastError = ""
		task.LastSuccess = result.EndedAt
	} else {
		task.LastError = result.Error
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: failed to save task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		logger.Warn("scheduler: failed to record result for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, domain.HistoryRetention); err != nil {
		logger.Warn("scheduler: failed to prune history: %v", err)
	}
}
