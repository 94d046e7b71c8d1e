// Package metrics holds the Prometheus collectors exported by the indexer.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sercha_mirror"

// Enqueued counts index requests accepted per instance.
var Enqueued = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "queue",
	Name:      "enqueued_total",
	Help:      "Index requests accepted into a dedup queue.",
}, []string{"instance"})

// Coalesced counts requests dropped as duplicates of an outstanding key.
var Coalesced = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "queue",
	Name:      "coalesced_total",
	Help:      "Index requests dropped because an identical key was outstanding.",
}, []string{"instance"})

// QueueDepth is the number of requests waiting in each instance queue.
var QueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "queue",
	Name:      "depth",
	Help:      "Index requests waiting to be processed.",
}, []string{"instance"})

// Processed counts processed requests by outcome (stored, skipped, fetch_failed, ...).
var Processed = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "worker",
	Name:      "processed_total",
	Help:      "Index requests processed, by outcome.",
}, []string{"instance", "outcome"})

// FetchDuration observes how long one page fetch takes.
var FetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "worker",
	Name:      "fetch_duration_seconds",
	Help:      "Time spent fetching one page from a source.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
}, []string{"instance"})

// Walks counts listing walks by mode (full, latest) and result.
var Walks = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "walker",
	Name:      "runs_total",
	Help:      "Listing walks, by mode and result.",
}, []string{"instance", "mode", "result"})

// Collectors returns every collector in the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		Enqueued,
		Coalesced,
		QueueDepth,
		Processed,
		FetchDuration,
		Walks,
	}
}

// Register registers all collectors with reg. Collectors that are already
// registered are left in place.
func Register(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
