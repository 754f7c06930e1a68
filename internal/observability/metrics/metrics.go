// Package metrics provides Prometheus instrumentation for contract-metadata.
//
// The tool is a short-lived CLI, so metrics are collected in a private
// registry and written to a node_exporter textfile at the end of a run
// instead of being served over HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contract_metadata"

var (
	enabled  bool
	registry *prometheus.Registry

	// Asset domain metrics
	upsertTotal *prometheus.CounterVec
	importTotal *prometheus.CounterVec

	// Verification domain metrics
	verifyTotal  *prometheus.CounterVec
	findingTotal *prometheus.CounterVec

	// Export metrics
	exportRecords *prometheus.GaugeVec

	commandDuration *prometheus.HistogramVec
	lastRun         prometheus.Gauge
)

// Init initializes the metrics system. Calling it again discards previously
// collected values.
func Init(enabledFlag bool) {
	enabled = enabledFlag
	if !enabled {
		registry = nil
		return
	}

	registry = prometheus.NewRegistry()
	factory := promauto.With(registry)

	upsertTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_upsert_total",
			Help:      "Total number of asset create and update operations",
		},
		[]string{"chain_namespace", "operation", "status"},
	)

	importTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_entries_total",
			Help:      "Total number of legacy contract map entries processed",
		},
		[]string{"status"},
	)

	verifyTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_verify_total",
			Help:      "Total number of assets verified",
		},
		[]string{"chain_namespace", "result"},
	)

	findingTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_findings_total",
			Help:      "Total number of verification errors and warnings by kind",
		},
		[]string{"severity", "kind"},
	)

	exportRecords = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "export_records",
			Help:      "Number of records written by the last export",
		},
		[]string{"format"},
	)

	commandDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command run time in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	lastRun = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last run that wrote metrics",
	})
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// Gatherer returns the registry holding the collected metrics, or nil when disabled.
func Gatherer() prometheus.Gatherer {
	if registry == nil {
		return nil
	}
	return registry
}

// WriteTextfile writes all collected metrics to path in the Prometheus text
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if !enabled {
		return nil
	}
	lastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// ObserveCommand records how long a command took.
func ObserveCommand(command string, start time.Time) {
	if !enabled {
		return
	}
	commandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}
