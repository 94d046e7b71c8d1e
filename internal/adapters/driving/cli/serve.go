package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mirror/internal/adapters/driving/admin"
	"github.com/custodia-labs/sercha-mirror/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
	"github.com/custodia-labs/sercha-mirror/internal/metrics"
)

var (
	serveListen      string
	serveNoScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the indexer and the admin API",
	Long: `Starts one worker per configured instance, the aligned "fetch latest"
scheduler and the admin HTTP API. Instances with an empty store start with a
full backfill walk.

Admin API:
  POST /v1/refresh/{instance}/{subject}?page=N
  POST /v1/refresh/{instance}/{subject}?post_number=N
  GET  /v1/status
  GET  /v1/search?q=...&kind=forum|tracker
  GET  /v1/forum/{instance}/users/{username}
  GET  /v1/scheduler/tasks
  GET  /v1/scheduler/history?instance=...
  GET  /metrics
  GET  /healthz
       /mcp  (Model Context Protocol over streamable HTTP)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "admin API address (overrides [http] listen)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "disable periodic latest walks")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger.SetTimestamps(true)
	if !logger.IsVerbose() {
		// Daemon logs include lifecycle and scheduler runs.
		logger.SetLevel(logger.LevelInfo)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if serveNoScheduler {
		settings.Indexer.SchedulerEnabled = false
	}
	addr := settings.HTTPAddr
	if serveListen != "" {
		addr = serveListen
	}

	rt, err := newRuntime(ctx, settings)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	return serve(ctx, rt, addr)
}

// serve runs the registry and the admin API until ctx is cancelled.
func serve(ctx context.Context, rt *runtime, addr string) error {
	if len(rt.registry.Instances()) == 0 {
		logger.Warn("no instances configured; only the admin API will run")
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	mcpServer, err := mcp.NewServer(&mcp.Ports{
		Search:  rt.search,
		Indexer: rt.registry,
		Users:   rt.users,
	})
	if err != nil {
		return err
	}

	server, err := admin.NewServer(admin.Ports{
		Indexer:   rt.registry,
		Search:    rt.search,
		Users:     rt.users,
		Scheduler: rt.scheduler,
		MCP:       mcpServer.Handler(),
	})
	if err != nil {
		return err
	}

	rt.validateSources(ctx)
	rt.validateSearch(ctx)
	rt.registry.StartAll(ctx)
	logger.Info("indexing %d instances", len(rt.registry.Instances()))

	err = server.ListenAndServe(ctx, addr)
	rt.registry.Stop()
	return err
}
