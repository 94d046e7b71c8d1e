package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-mirror/internal/core/services"
)

var walkPages int

// walkPollInterval is how often progress is reported while draining.
var walkPollInterval = 500 * time.Millisecond

var walkCmd = &cobra.Command{
	Use:   "walk [instance...]",
	Short: "Walk listings once and index stale subjects",
	Long: `Runs a listing walk in the foreground and waits until every stale topic or
issue it found has been indexed. Without arguments every configured instance
is walked. Use --pages to bound the walk to the most recent listing pages;
the default walks the full listing.`,
	RunE: runWalk,
}

func init() {
	walkCmd.Flags().IntVar(&walkPages, "pages", 0, "listing pages to walk (0 = all)")
	rootCmd.AddCommand(walkCmd)
}

func runWalk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close() //nolint:errcheck

	ids := args
	if len(ids) == 0 {
		ids = rt.registry.Instances()
	}
	workers := make([]*services.SourceWorker, 0, len(ids))
	for _, id := range ids {
		w, ok := rt.registry.Worker(id)
		if !ok {
			return fmt.Errorf("unknown instance %q", id)
		}
		workers = append(workers, w)
	}

	rt.registry.StartWorkers(ctx)

	for _, w := range workers {
		id := w.Instance().ID
		cmd.Printf("Walking %s...\n", id)
		n, err := w.Walk(ctx, walkPages)
		if err != nil {
			cmd.Printf("Walk of %s aborted after %d subjects: %v\n", id, n, err)
			continue
		}
		cmd.Printf("%s: %d stale subjects queued\n", id, n)
	}

	if err := waitIdle(ctx, cmd, workers); err != nil {
		return err
	}
	cmd.Println("Walk complete.")
	return nil
}

// waitIdle polls until no worker holds queued or in-flight requests,
// printing progress along the way. Idle must be seen on two consecutive
// polls so a backfill that is just starting is not missed.
func waitIdle(ctx context.Context, cmd *cobra.Command, workers []*services.SourceWorker) error {
	ticker := time.NewTicker(walkPollInterval)
	defer ticker.Stop()

	var lastStored int64
	idlePolls := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		busy := false
		var stored int64
		for _, w := range workers {
			st := w.Status()
			stored += st.Stored
			if st.Outstanding > 0 || st.Backfilling {
				busy = true
			}
		}
		if stored > lastStored {
			cmd.Printf("\rIndexed %d pages", stored)
			lastStored = stored
		}

		if busy {
			idlePolls = 0
			continue
		}
		idlePolls++
		if idlePolls >= 2 {
			if lastStored > 0 {
				cmd.Println()
			}
			return nil
		}
	}
}
