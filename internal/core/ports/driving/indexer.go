package driving

import "context"

// Indexer is the entry point for requesting that a subject page be re-indexed.
type Indexer interface {
	// Enqueue requests indexing of one subject page on an instance.
	// Returns domain.ErrUnknownInstance if the instance is not configured.
	// It returns as soon as the request is queued or coalesced with an
	// outstanding identical request; it never waits for the fetch.
	Enqueue(ctx context.Context, instanceID string, subjectID int64, page int) error

	// Status returns a snapshot for every configured instance.
	Status() []InstanceStatus

	// Instances returns the configured instance ids.
	Instances() []string
}

// InstanceStatus is a point-in-time view of one source worker.
type InstanceStatus struct {
	InstanceID string `json:"instance_id"`
	Kind       string `json:"kind"`

	// QueueDepth is the number of requests waiting to be processed.
	QueueDepth int `json:"queue_depth"`

	// Outstanding counts queued plus in-flight keys.
	Outstanding int `json:"outstanding"`

	// Counters since process start.
	Enqueued    int64 `json:"enqueued"`
	Coalesced   int64 `json:"coalesced"`
	Stored      int64 `json:"stored"`
	Skipped     int64 `json:"skipped"`
	FetchFailed int64 `json:"fetch_failed"`
	ParseFailed int64 `json:"parse_failed"`
	StoreFailed int64 `json:"store_failed"`

	// Backfilling is true while the initial walk runs.
	Backfilling bool `json:"backfilling"`
}
