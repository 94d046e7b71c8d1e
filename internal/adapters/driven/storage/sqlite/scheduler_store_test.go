package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	task := &domain.ScheduledTask{
		ID:          domain.LatestTaskID("magicians"),
		Name:        "Fetch latest (magicians)",
		Interval:    30 * time.Minute,
		LastRun:     now.Add(-10 * time.Minute),
		NextRun:     now.Add(20 * time.Minute),
		LastSuccess: now.Add(-10 * time.Minute),
		Enabled:     true,
	}
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	got, err := schedulerStore.GetTask(ctx, "latest:magicians")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.Name, got.Name)
	assert.Equal(t, task.Interval, got.Interval)
	assert.True(t, got.Enabled)
	assert.WithinDuration(t, task.NextRun, got.NextRun, time.Second)

	task.LastError = "transport: HTTP 502"
	task.Enabled = false
	require.NoError(t, schedulerStore.SaveTask(ctx, task))

	got, err = schedulerStore.GetTask(ctx, "latest:magicians")
	require.NoError(t, err)
	assert.Equal(t, "transport: HTTP 502", got.LastError)
	assert.False(t, got.Enabled)
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	task, err := setupTestStore(t).SchedulerStore().GetTask(context.Background(), "latest:none")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_NilArguments(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	assert.ErrorIs(t, schedulerStore.SaveTask(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, schedulerStore.RecordResult(ctx, nil), domain.ErrInvalidInput)
}

func TestSchedulerStore_ListAndDeleteTasks(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	for _, id := range []string{"magicians", "ethereum/pm"} {
		require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{
			ID: domain.LatestTaskID(id), Name: id, Interval: time.Minute, Enabled: true,
		}))
	}

	tasks, err := schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	require.NoError(t, schedulerStore.DeleteTask(ctx, "latest:magicians"))

	tasks, err = schedulerStore.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "latest:ethereum/pm", tasks[0].ID)
}

func TestSchedulerStore_TaskWithZeroTimes(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{
		ID: "latest:new", Name: "new", Interval: time.Hour, Enabled: true,
	}))

	got, err := schedulerStore.GetTask(ctx, "latest:new")
	require.NoError(t, err)
	assert.True(t, got.LastRun.IsZero())
	assert.True(t, got.NextRun.IsZero())
	assert.True(t, got.LastSuccess.IsZero())
}

func TestSchedulerStore_RecordResultAndHistory(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
		TaskID:         "latest:magicians",
		RunID:          "run-1",
		StartedAt:      now.Add(-5 * time.Minute),
		EndedAt:        now.Add(-4 * time.Minute),
		Success:        true,
		ItemsProcessed: 12,
	}))
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
		TaskID:    "latest:magicians",
		RunID:     "run-2",
		StartedAt: now,
		EndedAt:   now.Add(time.Minute),
		Error:     "list subjects: transport: HTTP 502",
	}))

	history, err := schedulerStore.GetTaskHistory(ctx, "latest:magicians", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "run-2", history[0].RunID)
	assert.False(t, history[0].Success)
	assert.Contains(t, history[0].Error, "502")
	assert.Equal(t, "run-1", history[1].RunID)
	assert.Equal(t, 12, history[1].ItemsProcessed)

	limited, err := schedulerStore.GetTaskHistory(ctx, "latest:magicians", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	empty, err := schedulerStore.GetTaskHistory(ctx, "latest:other", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSchedulerStore_PruneHistory(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for _, task := range []string{"latest:a", "latest:b"} {
		for i := 0; i < 10; i++ {
			require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
				TaskID:         task,
				RunID:          fmt.Sprintf("%s-%d", task, i),
				StartedAt:      now.Add(time.Duration(i) * time.Minute),
				EndedAt:        now.Add(time.Duration(i)*time.Minute + 30*time.Second),
				Success:        true,
				ItemsProcessed: i + 1,
			}))
		}
	}

	require.NoError(t, schedulerStore.PruneHistory(ctx, 3))

	for _, task := range []string{"latest:a", "latest:b"} {
		history, err := schedulerStore.GetTaskHistory(ctx, task, 100)
		require.NoError(t, err)
		require.Len(t, history, 3, task)
		assert.Equal(t, 10, history[0].ItemsProcessed)
		assert.Equal(t, 8, history[2].ItemsProcessed)
	}
}

func TestSchedulerStore_PruneHistory_SameSecond(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
			TaskID: "latest:a", StartedAt: now, EndedAt: now, Success: true, ItemsProcessed: i,
		}))
	}

	require.NoError(t, schedulerStore.PruneHistory(ctx, 2))

	history, err := schedulerStore.GetTaskHistory(ctx, "latest:a", 100)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.Equal(t, 3, history[1].ItemsProcessed)
}

func TestSchedulerStore_HistoryUnlimited(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
			TaskID:    "latest:a",
			RunID:     fmt.Sprintf("run-%d", i),
			StartedAt: start.Add(time.Duration(i) * 500 * time.Millisecond),
			EndedAt:   start.Add(time.Duration(i)*500*time.Millisecond + 100*time.Millisecond),
			Success:   true,
		}))
	}

	history, err := schedulerStore.GetTaskHistory(ctx, "latest:a", 0)
	require.NoError(t, err)
	require.Len(t, history, 4)

	// Sub-second start times still order most recent first.
	assert.Equal(t, "run-3", history[0].RunID)
	assert.Equal(t, "run-0", history[3].RunID)
	assert.Equal(t, start.Add(1500*time.Millisecond), history[0].StartedAt)
}

func TestSchedulerStore_DeleteTaskDropsHistory(t *testing.T) {
	schedulerStore := setupTestStore(t).SchedulerStore()
	ctx := context.Background()

	require.NoError(t, schedulerStore.SaveTask(ctx, &domain.ScheduledTask{
		ID: "latest:a", Name: "a", Interval: time.Minute, Enabled: true,
	}))
	now := time.Now().UTC()
	require.NoError(t, schedulerStore.RecordResult(ctx, &domain.TaskResult{
		TaskID: "latest:a", StartedAt: now, EndedAt: now, Error: "transport: HTTP 502",
	}))

	require.NoError(t, schedulerStore.DeleteTask(ctx, "latest:a"))

	task, err := schedulerStore.GetTask(ctx, "latest:a")
	require.NoError(t, err)
	assert.Nil(t, task)

	history, err := schedulerStore.GetTaskHistory(ctx, "latest:a", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
