package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// StorageDriver selects the record store backend.
type StorageDriver string

// Available storage drivers.
const (
	// StorageSQLite is the embedded pure-Go SQLite store.
	StorageSQLite StorageDriver = "sqlite"

	// StoragePostgres is a PostgreSQL store reached through a DSN.
	StoragePostgres StorageDriver = "postgres"

	// StorageMemory keeps everything in process memory.
	StorageMemory StorageDriver = "memory"
)

// IsValid returns true if the storage driver is recognised.
func (d StorageDriver) IsValid() bool {
	switch d {
	case StorageSQLite, StoragePostgres, StorageMemory:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the driver.
func (d StorageDriver) Description() string {
	switch d {
	case StorageSQLite:
		return "SQLite (embedded)"
	case StoragePostgres:
		return "PostgreSQL"
	case StorageMemory:
		return "In-memory (non-persistent)"
	default:
		return unknownDescription
	}
}

// SearchDriver selects the search index backend.
type SearchDriver string

// Available search drivers.
const (
	// SearchSQLite indexes into an FTS5 table next to the SQLite record store.
	SearchSQLite SearchDriver = "sqlite"

	// SearchMeilisearch pushes documents to a Meilisearch server.
	SearchMeilisearch SearchDriver = "meilisearch"

	// SearchMemory keeps documents in process memory.
	SearchMemory SearchDriver = "memory"

	// SearchNone disables search indexing.
	SearchNone SearchDriver = "none"
)

// IsValid returns true if the search driver is recognised.
func (d SearchDriver) IsValid() bool {
	switch d {
	case SearchSQLite, SearchMeilisearch, SearchMemory, SearchNone:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the driver.
func (d SearchDriver) Description() string {
	switch d {
	case SearchSQLite:
		return "SQLite FTS5"
	case SearchMeilisearch:
		return "Meilisearch"
	case SearchMemory:
		return "In-memory"
	case SearchNone:
		return "Disabled"
	default:
		return unknownDescription
	}
}

// StorageSettings configures the record store.
type StorageSettings struct {
	Driver StorageDriver

	// Path is the data directory for SQLite.
	Path string

	// DSN is the connection string for PostgreSQL.
	DSN string

	// MaxConns bounds the PostgreSQL pool.
	MaxConns int
}

// SearchSettings configures the search index.
type SearchSettings struct {
	Driver SearchDriver
	URL    string
	APIKey string
}

// IndexerSettings tunes the backfill walker pacing.
type IndexerSettings struct {
	// ListingDelay spaces successive listing-page requests.
	ListingDelay time.Duration

	// ErrorDelay is waited after a failed listing request before the walk aborts.
	ErrorDelay time.Duration

	// SchedulerEnabled turns the periodic "fetch latest" loops on or off.
	SchedulerEnabled bool
}

// Settings is the full application configuration.
type Settings struct {
	Storage   StorageSettings
	Search    SearchSettings
	Indexer   IndexerSettings
	HTTPAddr  string
	Instances []SourceInstance
}

// Default pacing for the backfill walker.
const (
	DefaultListingDelay = 2 * time.Second
	DefaultErrorDelay   = 5 * time.Second
)

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		Storage: StorageSettings{
			Driver:   StorageSQLite,
			MaxConns: 4,
		},
		Search: SearchSettings{
			Driver: SearchSQLite,
		},
		Indexer: IndexerSettings{
			ListingDelay:     DefaultListingDelay,
			ErrorDelay:       DefaultErrorDelay,
			SchedulerEnabled: true,
		},
		HTTPAddr: ":3000",
	}
}

// Validate checks the settings and every configured instance.
func (s *Settings) Validate() error {
	if !s.Storage.Driver.IsValid() {
		return fmt.Errorf("%w: storage driver %q", ErrUnsupportedType, s.Storage.Driver)
	}
	if s.Storage.Driver == StoragePostgres && s.Storage.DSN == "" {
		return fmt.Errorf("%w: postgres storage requires a dsn", ErrInvalidInput)
	}
	if !s.Search.Driver.IsValid() {
		return fmt.Errorf("%w: search driver %q", ErrUnsupportedType, s.Search.Driver)
	}
	if s.Search.Driver == SearchMeilisearch && s.Search.URL == "" {
		return fmt.Errorf("%w: meilisearch requires a url", ErrInvalidInput)
	}
	if s.Search.Driver == SearchSQLite && s.Storage.Driver != StorageSQLite {
		return fmt.Errorf("%w: sqlite search requires sqlite storage", ErrInvalidInput)
	}

	seen := make(map[string]bool, len(s.Instances))
	for i := range s.Instances {
		inst := &s.Instances[i]
		if err := inst.Validate(); err != nil {
			return err
		}
		if seen[inst.ID] {
			return fmt.Errorf("%w: duplicate source instance %q", ErrInvalidInput, inst.ID)
		}
		seen[inst.ID] = true
	}
	return nil
}
