package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

const defaultHistoryLimit = 20

type taskResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Interval    string     `json:"interval"`
	Enabled     bool       `json:"enabled"`
	LastRun     *time.Time `json:"lastRun,omitempty"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	NextRun     *time.Time `json:"nextRun,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

type runResponse struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	Success   bool      `json:"success"`
	Enqueued  int       `json:"enqueued"`
	Error     string    `json:"error,omitempty"`
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if s.ports.Scheduler == nil {
		writeError(w, http.StatusNotFound, "scheduler is disabled")
		return
	}
	tasks, err := s.ports.Scheduler.Tasks(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskResponse{
			ID:          t.ID,
			Name:        t.Name,
			Interval:    t.Interval.String(),
			Enabled:     t.Enabled,
			LastRun:     optionalTime(t.LastRun),
			LastSuccess: optionalTime(t.LastSuccess),
			NextRun:     optionalTime(t.NextRun),
			LastError:   t.LastError,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.ports.Scheduler == nil {
		writeError(w, http.StatusNotFound, "scheduler is disabled")
		return
	}
	q := r.URL.Query()
	instanceID := q.Get("instance")
	if instanceID == "" {
		writeError(w, http.StatusBadRequest, "instance is required")
		return
	}
	limit := defaultHistoryLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := s.ports.Scheduler.History(r.Context(), instanceID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	runs := make([]runResponse, 0, len(results))
	for _, res := range results {
		runs = append(runs, runResponse{
			RunID:     res.RunID,
			StartedAt: res.StartedAt,
			EndedAt:   res.EndedAt,
			Success:   res.Success,
			Enqueued:  res.ItemsProcessed,
			Error:     res.Error,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instance": instanceID,
		"task":     domain.LatestTaskID(instanceID),
		"runs":     runs,
	})
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
