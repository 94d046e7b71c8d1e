package domain

import (
	"strings"
	"time"
)

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Name is a human-readable name for the task.
	Name string

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	// RunID correlates the result with log lines of the same run.
	RunID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled (e.g., subjects enqueued).
	ItemsProcessed int
}

// HistoryRetention is how many results per task are kept.
const HistoryRetention = 100

const latestTaskPrefix = "latest:"

// LatestTaskID returns the scheduler task id for an instance's "fetch latest" run.
func LatestTaskID(instanceID string) string {
	return latestTaskPrefix + instanceID
}

// LatestTaskInstance is the inverse of LatestTaskID. ok is false for ids
// of any other task.
func LatestTaskInstance(taskID string) (instanceID string, ok bool) {
	return strings.CutPrefix(taskID, latestTaskPrefix)
}

// NextAlignedTick returns the first round multiple of interval strictly after now,
// so periodic runs land on clock marks rather than drifting from process start.
// A now that sits exactly on a boundary yields the following boundary.
func NextAlignedTick(now time.Time, interval time.Duration) time.Time {
	if interval <= 0 {
		return now
	}
	return now.Truncate(interval).Add(interval)
}

// UntilNextTick returns how long to sleep from now to the next aligned tick.
func UntilNextTick(now time.Time, interval time.Duration) time.Duration {
	return NextAlignedTick(now, interval).Sub(now)
}
