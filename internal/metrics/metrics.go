package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ImportRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobfeed_import_runs_total",
			Help: "Total number of import runs by outcome.",
		},
		[]string{"outcome"},
	)
	JobsImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobfeed_jobs_imported_total",
			Help: "Total number of jobs stored by imports.",
		},
	)
	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobfeed_import_duration_seconds",
			Help:    "Duration of each import run in seconds.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
	ProviderFetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobfeed_provider_fetch_errors_total",
			Help: "Total number of failed provider fetches.",
		},
		[]string{"provider"},
	)
	ImportsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobfeed_import_skipped_total",
			Help: "Total number of imports skipped because another run held the lock.",
		},
	)
)

// Outcome labels for ImportRuns.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeFailure = "failure"
)

var registerOnce sync.Once

// Register adds the collectors to reg. Only the first call has any effect.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(ImportRuns, JobsImported, ImportDuration, ProviderFetchErrors, ImportsSkipped)
	})
}

// Handler serves the default gatherer in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
