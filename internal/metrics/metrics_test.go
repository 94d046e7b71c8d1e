package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Idempotent(t *testing.T) {
	reg := prometheus.NewRegistry()

	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestCounters(t *testing.T) {
	Enqueued.WithLabelValues("test-instance").Inc()
	Enqueued.WithLabelValues("test-instance").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(Enqueued.WithLabelValues("test-instance")))
}

func TestCollectors_HaveHelp(t *testing.T) {
	Enqueued.WithLabelValues("lint")
	Coalesced.WithLabelValues("lint")
	QueueDepth.WithLabelValues("lint")
	Processed.WithLabelValues("lint", "stored")
	FetchDuration.WithLabelValues("lint").Observe(0.1)
	Walks.WithLabelValues("lint", "latest", "ok")

	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, len(Collectors()))
	for _, mf := range families {
		assert.NotEmpty(t, mf.GetHelp(), mf.GetName())
	}
}
