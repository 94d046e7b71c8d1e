package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-mirror/internal/adapters/driven/search/meilisearch"
	"github.com/custodia-labs/sercha-mirror/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-mirror/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/sercha-mirror/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-mirror/internal/connectors/discourse"
	"github.com/custodia-labs/sercha-mirror/internal/connectors/github"
	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-mirror/internal/core/services"
	"github.com/custodia-labs/sercha-mirror/internal/logger"
)

// validateTimeout bounds each source's startup check.
const validateTimeout = 15 * time.Second

// runtime holds the wired services for one process.
type runtime struct {
	settings domain.Settings
	registry *services.Registry
	// scheduler is nil when periodic walks are disabled.
	scheduler driving.Scheduler
	search    *services.SearchService
	users     *services.UserService
	index     driven.SearchIndex
	sources   map[string]driven.SubjectSource
	closers   []func() error
}

// openRuntime builds the runtime from the config file. Tests replace it.
var openRuntime = func(ctx context.Context) (*runtime, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	return newRuntime(ctx, settings)
}

func loadSettings() (domain.Settings, error) {
	store, err := file.NewConfigStore(configPath)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("loading config: %w", err)
	}
	logger.Debug("config loaded from %s", store.Path())
	return store.Settings(), nil
}

// newRuntime opens storage and search, then builds one source and worker
// per configured instance.
func newRuntime(ctx context.Context, settings domain.Settings) (*runtime, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	rt := &runtime{
		settings: settings,
		sources:  make(map[string]driven.SubjectSource, len(settings.Instances)),
	}

	records, schedStore, index, err := rt.openStorage(ctx)
	if err != nil {
		rt.Close() //nolint:errcheck
		return nil, err
	}

	opts := services.WorkerOptions{
		ListingDelay: settings.Indexer.ListingDelay,
		ErrorDelay:   settings.Indexer.ErrorDelay,
	}
	workers := make([]*services.SourceWorker, 0, len(settings.Instances))
	directories := make(map[string]driven.UserDirectory)
	for _, inst := range settings.Instances {
		src, err := openSource(ctx, inst)
		if err != nil {
			rt.Close() //nolint:errcheck
			return nil, fmt.Errorf("source %s: %w", inst.ID, err)
		}
		rt.sources[inst.ID] = src
		if dir, ok := src.(driven.UserDirectory); ok {
			directories[inst.ID] = dir
		}
		workers = append(workers, services.NewSourceWorker(inst, src, records, index, opts))
	}

	var scheduler *services.Scheduler
	if settings.Indexer.SchedulerEnabled {
		scheduler = services.NewScheduler(workers, schedStore, services.SchedulerOptions{})
		rt.scheduler = scheduler
	}

	rt.registry, err = services.NewRegistry(workers, scheduler)
	if err != nil {
		rt.Close() //nolint:errcheck
		return nil, err
	}
	rt.index = index
	rt.search = services.NewSearchService(index)
	rt.users = services.NewUserService(directories)
	return rt, nil
}

// openStorage opens the record store, scheduler store and search index
// selected by the settings. index is nil when search is disabled.
func (rt *runtime) openStorage(
	ctx context.Context,
) (driven.RecordStore, driven.SchedulerStore, driven.SearchIndex, error) {
	var (
		records    driven.RecordStore
		schedStore driven.SchedulerStore
		index      driven.SearchIndex
	)

	cfg := rt.settings
	switch cfg.Storage.Driver {
	case domain.StorageSQLite:
		store, err := sqlite.NewStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		rt.closers = append(rt.closers, store.Close)
		records = store
		schedStore = store.SchedulerStore()
		if cfg.Search.Driver == domain.SearchSQLite {
			index = store.SearchIndex()
		}
	case domain.StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.Storage.DSN, cfg.Storage.MaxConns)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		rt.closers = append(rt.closers, store.Close)
		records = store
		schedStore = memory.NewSchedulerStore()
	case domain.StorageMemory:
		records = memory.NewRecordStore()
		schedStore = memory.NewSchedulerStore()
	default:
		return nil, nil, nil, fmt.Errorf("%w: storage driver %q", domain.ErrUnsupportedType, cfg.Storage.Driver)
	}

	switch cfg.Search.Driver {
	case domain.SearchMeilisearch:
		ms := meilisearch.New(cfg.Search.URL, cfg.Search.APIKey)
		rt.closers = append(rt.closers, ms.Close)
		index = ms
	case domain.SearchMemory:
		index = memory.NewSearchIndex()
	}

	logger.Debug("storage: %s, search: %s",
		cfg.Storage.Driver.Description(), cfg.Search.Driver.Description())
	return records, schedStore, index, nil
}

// openSource builds the remote client for one instance.
func openSource(ctx context.Context, inst domain.SourceInstance) (driven.SubjectSource, error) {
	switch inst.Kind {
	case domain.KindForum:
		return discourse.New(inst), nil
	case domain.KindTracker:
		src, err := github.New(ctx, inst)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: source kind %q", domain.ErrUnsupportedType, inst.Kind)
	}
}

// validateSources checks every remote once. Failures are logged and the
// instance keeps running; the remote may come back later.
func (rt *runtime) validateSources(ctx context.Context) {
	for _, id := range rt.registry.Instances() {
		src := rt.sources[id]
		vctx, cancel := context.WithTimeout(ctx, validateTimeout)
		err := src.Validate(vctx)
		cancel()
		if err != nil {
			logger.Warn("[%s] validation failed: %v", id, err)
			continue
		}
		logger.Debug("[%s] reachable", id)
	}
}

// healthChecker is implemented by search backends running as a separate server.
type healthChecker interface {
	Health(ctx context.Context) error
}

// validateSearch checks a remote search backend once. Failures are logged;
// indexing continues and search upserts stay best effort.
func (rt *runtime) validateSearch(ctx context.Context) {
	hc, ok := rt.index.(healthChecker)
	if !ok {
		return
	}
	vctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()
	if err := hc.Health(vctx); err != nil {
		logger.Warn("search backend %s unreachable: %v", rt.settings.Search.URL, err)
		return
	}
	logger.Debug("search backend %s reachable", rt.settings.Search.URL)
}

// Close stops the registry and releases storage.
func (rt *runtime) Close() error {
	if rt.registry != nil {
		rt.registry.Stop()
	}
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
