package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

const requestTimeout = 30 * time.Second

type refreshResponse struct {
	Instance string `json:"instance"`
	Subject  int64  `json:"subject"`
	Page     int    `json:"page"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"startedAt": s.started.Format(time.RFC3339),
		"instances": len(s.ports.Indexer.Instances()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"instances": s.ports.Indexer.Status(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")
	i := strings.LastIndex(target, "/")
	if i <= 0 {
		writeError(w, http.StatusBadRequest, "expected /v1/refresh/{instance}/{subject}")
		return
	}
	instanceID := target[:i]
	subjectID, err := strconv.ParseInt(target[i+1:], 10, 64)
	if err != nil || subjectID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid subject id")
		return
	}

	page := domain.FirstPage
	q := r.URL.Query()
	if v := q.Get("post_number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid post_number")
			return
		}
		page = domain.PageForPostNumber(n)
	} else if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	if err := s.ports.Indexer.Enqueue(r.Context(), instanceID, subjectID, page); err != nil {
		writeDomainError(w, err)
		return
	}

	logger.Debug("[%s] refresh requested for %d page %d", instanceID, subjectID, page)
	writeJSON(w, http.StatusAccepted, refreshResponse{
		Instance: instanceID,
		Subject:  subjectID,
		Page:     page,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.ports.Search == nil {
		writeError(w, http.StatusServiceUnavailable, domain.ErrSearchUnavailable.Error())
		return
	}

	q := r.URL.Query()
	kind := domain.KindForum
	if v := q.Get("kind"); v != "" {
		kind = domain.SourceKind(v)
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	hits, err := s.ports.Search.Search(r.Context(), kind, q.Get("q"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(hits),
		"hits":  hits,
	})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if s.ports.Users == nil {
		writeError(w, http.StatusNotFound, "user lookups are not enabled")
		return
	}

	// {instance}/users/{username}
	target := r.PathValue("target")
	i := strings.LastIndex(target, "/users/")
	if i <= 0 || i+len("/users/") == len(target) {
		writeError(w, http.StatusNotFound, "expected /v1/forum/{instance}/users/{username}")
		return
	}
	instanceID, username := target[:i], target[i+len("/users/"):]

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	profile, err := s.ports.Users.UserProfile(ctx, instanceID, username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownInstance), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQueueClosed), errors.Is(err, domain.ErrSearchUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case domain.IsTransportError(err), domain.IsParseError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Warn("admin request failed: %v", err)
	}
	writeError(w, code, err.Error())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
