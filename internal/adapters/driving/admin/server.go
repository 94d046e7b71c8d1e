package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

// ErrMissingIndexer is returned when the indexer is not provided.
var ErrMissingIndexer = errors.New("admin: indexer is required")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	// Indexer accepts refresh requests and reports worker state.
	Indexer driving.Indexer

	// Search serves /v1/search. Optional.
	Search driving.SearchService

	// Users serves forum profile lookups. Optional.
	Users driving.UserService

	// Scheduler serves /v1/scheduler. Nil when periodic walks are disabled.
	Scheduler driving.Scheduler

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}

// Server is the admin HTTP server.
type Server struct {
	ports   Ports
	mux     *http.ServeMux
	started time.Time
}

// NewServer creates a server with every route registered.
func NewServer(ports Ports) (*Server, error) {
	if ports.Indexer == nil {
		return nil, ErrMissingIndexer
	}
	if ports.Gatherer == nil {
		ports.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		ports:   ports,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("admin API listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /v1/status", s.handleStatus)
	s.mux.HandleFunc("GET /v1/search", s.handleSearch)
	s.mux.HandleFunc("POST /v1/refresh/{target...}", s.handleRefresh)
	s.mux.HandleFunc("GET /v1/forum/{target...}", s.handleUser)
	s.mux.HandleFunc("GET /v1/scheduler/tasks", s.handleTasks)
	s.mux.HandleFunc("GET /v1/scheduler/history", s.handleHistory)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.ports.Gatherer, promhttp.HandlerOpts{}))
	if s.ports.MCP != nil {
		s.mux.Handle("/mcp", s.ports.MCP)
	}
}
