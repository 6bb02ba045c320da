package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EntryBuildFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsb_entry_build_failed",
			Help: "Number of times an entry has failed to build",
		},
		[]string{"entry", "error_type"},
	)

	EntryBuildCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tsb_entry_build_count",
			Help: "Total number of times an entry has been built",
		},
	)

	EntryBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tsb_entry_build_duration_seconds",
			Help:    "Entry build duration in seconds",
			Buckets: []float64{0.1, 0.2, 0.5, 1, 1.5, 2, 5, 10, 30, 60},
		},
		[]string{"entry"},
	)

	LastEntryBuildStart = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tsb_last_entry_build_start_timestamp",
			Help: "Unix timestamp of when the last entry build started",
		},
		[]string{"entry"},
	)

	LastEntryBuildEnd = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tsb_last_entry_build_end_timestamp",
			Help: "Unix timestamp of when the last entry build ended",
		},
		[]string{"entry"},
	)

	TranspiledFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsb_transpiled_files_total",
			Help: "Total number of files transpiled",
		},
		[]string{"entry"},
	)
)

// BuildSucceeded records a completed build that started at the given time.
func BuildSucceeded(entry string, start time.Time) {
	end := time.Now()
	EntryBuildCount.Inc()
	EntryBuildDuration.WithLabelValues(entry).Observe(end.Sub(start).Seconds())
	LastEntryBuildStart.WithLabelValues(entry).Set(float64(start.Unix()))
	LastEntryBuildEnd.WithLabelValues(entry).Set(float64(end.Unix()))
}

// BuildFailed records a failed build attempt. The error type distinguishes
// configuration problems from transpile errors.
func BuildFailed(entry, errorType string) {
	EntryBuildFailed.WithLabelValues(entry, errorType).Inc()
	LastEntryBuildEnd.WithLabelValues(entry).Set(float64(time.Now().Unix()))
}

// FilesTranspiled adds to the per-entry transpiled file count.
func FilesTranspiled(entry string, n int) {
	TranspiledFiles.WithLabelValues(entry).Add(float64(n))
}
