package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-mirror/internal/core/domain"
)

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// memorySettings returns settings backed by in-memory storage and search.
func memorySettings(instances ...domain.SourceInstance) domain.Settings {
	settings := domain.DefaultSettings()
	settings.Storage.Driver = domain.StorageMemory
	settings.Search.Driver = domain.SearchMemory
	settings.Indexer.SchedulerEnabled = false
	settings.Indexer.ListingDelay = time.Millisecond
	settings.Indexer.ErrorDelay = time.Millisecond
	settings.Instances = instances
	return settings
}

// useRuntime makes commands open a runtime built from settings and
// returns a pointer that receives it.
func useRuntime(t *testing.T, settings domain.Settings) **runtime {
	t.Helper()

	var opened *runtime
	original := openRuntime
	openRuntime = func(ctx context.Context) (*runtime, error) {
		rt, err := newRuntime(ctx, settings)
		opened = rt
		return rt, err
	}
	t.Cleanup(func() { openRuntime = original })
	return &opened
}
