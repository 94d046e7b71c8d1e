package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
	"github.com/custodia-labs/sercha-mirror/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultForumLatestPages is how many listing pages a scheduled forum run walks.
const DefaultForumLatestPages = 1

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	Storage struct {
		Driver   string `toml:"driver"`
		Path     string `toml:"path"`
		DSN      string `toml:"dsn"`
		MaxConns int    `toml:"max_conns"`
	} `toml:"storage"`

	Search struct {
		Driver    string `toml:"driver"`
		URL       string `toml:"url"`
		APIKey    string `toml:"api_key"`
		APIKeyEnv string `toml:"api_key_env"`
	} `toml:"search"`

	HTTP struct {
		Listen string `toml:"listen"`
	} `toml:"http"`

	Scheduler struct {
		Enabled      *bool  `toml:"enabled"`
		ListingDelay string `toml:"listing_delay"`
		ErrorDelay   string `toml:"error_delay"`
	} `toml:"scheduler"`

	Forums   []forumConfig   `toml:"forum"`
	Trackers []trackerConfig `toml:"tracker"`
}

type forumConfig struct {
	ID          string `toml:"id"`
	URL         string `toml:"url"`
	Interval    string `toml:"interval"`
	LatestPages *int   `toml:"latest_pages"`
}

type trackerConfig struct {
	ID          string `toml:"id"`
	Owner       string `toml:"owner"`
	Repo        string `toml:"repo"`
	APIURL      string `toml:"api_url"`
	Interval    string `toml:"interval"`
	LatestPages *int   `toml:"latest_pages"`
	Token       string `toml:"token"`
	TokenEnv    string `toml:"token_env"`
}

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	settings domain.Settings
}

// NewConfigStore creates a TOML-backed config store and loads it.
// If path is empty, defaults to ~/.sercha-mirror/config.toml.
// A missing file leaves the defaults in place.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".sercha-mirror", "config.toml")
	}

	s := &ConfigStore{
		filePath: path,
		settings: withDefaultPaths(domain.DefaultSettings(), filepath.Dir(path)),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads and validates the configuration file.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	settings, err := Parse(data, filepath.Dir(s.filePath))
	if err != nil {
		return fmt.Errorf("%s: %w", s.filePath, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

// Settings returns a copy of the loaded settings.
func (s *ConfigStore) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	settings.Instances = append([]domain.SourceInstance(nil), s.settings.Instances...)
	return settings
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Parse decodes TOML configuration, applies defaults and validates the
// result. configDir anchors the default data directory.
func Parse(data []byte, configDir string) (domain.Settings, error) {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return domain.Settings{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	settings := withDefaultPaths(domain.DefaultSettings(), configDir)

	if fc.Storage.Driver != "" {
		settings.Storage.Driver = domain.StorageDriver(fc.Storage.Driver)
	}
	if fc.Storage.Path != "" {
		settings.Storage.Path = expandHome(fc.Storage.Path)
	}
	settings.Storage.DSN = fc.Storage.DSN
	if fc.Storage.MaxConns > 0 {
		settings.Storage.MaxConns = fc.Storage.MaxConns
	}

	settings.Search.Driver = defaultSearchDriver(settings.Storage.Driver)
	if fc.Search.Driver != "" {
		settings.Search.Driver = domain.SearchDriver(fc.Search.Driver)
	}
	settings.Search.URL = fc.Search.URL
	settings.Search.APIKey = fc.Search.APIKey
	if fc.Search.APIKeyEnv != "" {
		settings.Search.APIKey = os.Getenv(fc.Search.APIKeyEnv)
	}

	if fc.HTTP.Listen != "" {
		settings.HTTPAddr = fc.HTTP.Listen
	}

	if fc.Scheduler.Enabled != nil {
		settings.Indexer.SchedulerEnabled = *fc.Scheduler.Enabled
	}
	var err error
	if settings.Indexer.ListingDelay, err = parseDuration("scheduler.listing_delay", fc.Scheduler.ListingDelay, domain.DefaultListingDelay); err != nil {
		return domain.Settings{}, err
	}
	if settings.Indexer.ErrorDelay, err = parseDuration("scheduler.error_delay", fc.Scheduler.ErrorDelay, domain.DefaultErrorDelay); err != nil {
		return domain.Settings{}, err
	}

	for _, f := range fc.Forums {
		inst, err := forumInstance(f)
		if err != nil {
			return domain.Settings{}, err
		}
		settings.Instances = append(settings.Instances, inst)
	}
	for _, t := range fc.Trackers {
		inst, err := trackerInstance(t)
		if err != nil {
			return domain.Settings{}, err
		}
		settings.Instances = append(settings.Instances, inst)
	}

	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func forumInstance(f forumConfig) (domain.SourceInstance, error) {
	interval, err := parseDuration("forum "+f.ID+" interval", f.Interval, domain.DefaultForumInterval)
	if err != nil {
		return domain.SourceInstance{}, err
	}
	return domain.SourceInstance{
		ID:           f.ID,
		Kind:         domain.KindForum,
		BaseURL:      strings.TrimRight(f.URL, "/"),
		PollInterval: interval,
		LatestPages:  intOr(f.LatestPages, DefaultForumLatestPages),
	}, nil
}

func trackerInstance(t trackerConfig) (domain.SourceInstance, error) {
	id := t.ID
	if id == "" && t.Owner != "" && t.Repo != "" {
		id = t.Owner + "/" + t.Repo
	}
	interval, err := parseDuration("tracker "+id+" interval", t.Interval, domain.DefaultTrackerInterval)
	if err != nil {
		return domain.SourceInstance{}, err
	}

	token := t.Token
	if t.TokenEnv != "" {
		token = os.Getenv(t.TokenEnv)
	}

	return domain.SourceInstance{
		ID:           id,
		Kind:         domain.KindTracker,
		BaseURL:      t.APIURL,
		Owner:        t.Owner,
		Repo:         t.Repo,
		PollInterval: interval,
		LatestPages:  intOr(t.LatestPages, 0),
		Token:        token,
	}, nil
}

// defaultSearchDriver pairs the search engine with the storage backend
// when none is configured.
func defaultSearchDriver(storage domain.StorageDriver) domain.SearchDriver {
	switch storage {
	case domain.StorageSQLite:
		return domain.SearchSQLite
	case domain.StorageMemory:
		return domain.SearchMemory
	default:
		return domain.SearchNone
	}
}

func withDefaultPaths(settings domain.Settings, configDir string) domain.Settings {
	if settings.Storage.Path == "" {
		settings.Storage.Path = filepath.Join(configDir, "data")
	}
	return settings
}

func parseDuration(field, raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, field)
	}
	return d, nil
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
