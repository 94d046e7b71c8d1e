package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Flags(t *testing.T) {
	assert.NotNil(t, serveCmd.Flags().Lookup("listen"))
	assert.NotNil(t, serveCmd.Flags().Lookup("no-scheduler"))
}

func TestServe_ReturnsOnCancel(t *testing.T) {
	rt, err := newRuntime(context.Background(), memorySettings())
	require.NoError(t, err)
	defer rt.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, serve(ctx, rt, "127.0.0.1:0"))
}
