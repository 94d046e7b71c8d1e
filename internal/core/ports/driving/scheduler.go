package driving

import (
	"context"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// Scheduler runs the periodic "fetch latest" loops for every source instance
// and reports what they did.
type Scheduler interface {
	// Start runs the loops. Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends every loop and waits for in-flight walks to return.
	Stop() error

	// Tasks returns the recorded "fetch latest" task of each instance.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// History returns an instance's most recent runs, newest first.
	// Returns domain.ErrUnknownInstance for an unconfigured instance.
	History(ctx context.Context, instanceID string, limit int) ([]domain.TaskResult, error)
}
