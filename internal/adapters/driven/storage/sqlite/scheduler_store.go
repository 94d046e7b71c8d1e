package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// schedulerStore keeps "fetch latest" task state and run history in the
// same database as the records.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const taskColumns = `id, name, interval_seconds, last_run, next_run, last_error, last_success, enabled`

const resultColumns = `task_id, run_id, started_at, ended_at, success, error, items_processed`

// resultTimeLayout is fixed width so run times sort as text.
const resultTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// GetTask returns nil and no error when the task does not exist.
func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, taskID)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns every task ordered by id.
func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying scheduled tasks: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating scheduled tasks: %w", domain.ErrStorage, err)
	}
	return tasks, nil
}

// SaveTask creates or replaces a task.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_error = excluded.last_error,
			last_success = excluded.last_success,
			enabled = excluded.enabled
	`, task.ID, task.Name, int64(task.Interval/time.Second),
		formatNullableNano(task.LastRun), formatNullableNano(task.NextRun),
		sql.NullString{String: task.LastError, Valid: task.LastError != ""},
		formatNullableNano(task.LastSuccess), task.Enabled)
	if err != nil {
		return fmt.Errorf("%w: saving task %s: %w", domain.ErrStorage, task.ID, err)
	}
	return nil
}

// DeleteTask removes a task together with its run history.
func (s *schedulerStore) DeleteTask(ctx context.Context, taskID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_results WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("%w: deleting history of %s: %w", domain.ErrStorage, taskID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_tasks WHERE id = ?`, taskID); err != nil {
		return fmt.Errorf("%w: deleting task %s: %w", domain.ErrStorage, taskID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing task delete: %w", domain.ErrStorage, err)
	}
	return nil
}

// RecordResult appends one run outcome.
func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx,
		`INSERT INTO task_results (`+resultColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.TaskID,
		sql.NullString{String: result.RunID, Valid: result.RunID != ""},
		result.StartedAt.UTC().Format(resultTimeLayout),
		result.EndedAt.UTC().Format(resultTimeLayout),
		result.Success,
		sql.NullString{String: result.Error, Valid: result.Error != ""},
		result.ItemsProcessed)
	if err != nil {
		return fmt.Errorf("%w: recording result of %s: %w", domain.ErrStorage, result.TaskID, err)
	}
	return nil
}

// GetTaskHistory returns results most recent first. A limit of zero or
// less returns the whole history.
func (s *schedulerStore) GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+resultColumns+`
		FROM task_results
		WHERE task_id = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying history of %s: %w", domain.ErrStorage, taskID, err)
	}
	defer rows.Close()

	var results []domain.TaskResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating history of %s: %w", domain.ErrStorage, taskID, err)
	}
	return results, nil
}

// PruneHistory keeps the most recent keep results per task.
func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_results
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rn
				FROM task_results
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("%w: pruning task history: %w", domain.ErrStorage, err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task                                   domain.ScheduledTask
		intervalSeconds                        int64
		lastRun, nextRun, lastErr, lastSuccess sql.NullString
	)

	err := row.Scan(&task.ID, &task.Name, &intervalSeconds,
		&lastRun, &nextRun, &lastErr, &lastSuccess, &task.Enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scanning task: %w", domain.ErrStorage, err)
	}

	task.Interval = time.Duration(intervalSeconds) * time.Second
	task.LastRun = parseNullableNano(lastRun)
	task.NextRun = parseNullableNano(nextRun)
	task.LastError = lastErr.String
	task.LastSuccess = parseNullableNano(lastSuccess)
	return &task, nil
}

func scanResult(row rowScanner) (*domain.TaskResult, error) {
	var (
		result             domain.TaskResult
		startedAt, endedAt sql.NullString
		runID, errMsg      sql.NullString
	)

	if err := row.Scan(&result.TaskID, &runID, &startedAt, &endedAt,
		&result.Success, &errMsg, &result.ItemsProcessed); err != nil {
		return nil, fmt.Errorf("%w: scanning task result: %w", domain.ErrStorage, err)
	}

	result.RunID = runID.String
	result.StartedAt = parseNullableNano(startedAt)
	result.EndedAt = parseNullableNano(endedAt)
	result.Error = errMsg.String
	return &result, nil
}
