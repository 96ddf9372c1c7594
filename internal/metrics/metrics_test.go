package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_ExposesImportCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	Register(reg)

	ImportRuns.WithLabelValues(OutcomeSuccess).Inc()
	ProviderFetchErrors.WithLabelValues("provider1").Inc()

	count, err := testutil.GatherAndCount(reg, "jobfeed_import_runs_total", "jobfeed_provider_fetch_errors_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count < 2 {
		t.Errorf("series count = %d, want at least 2", count)
	}
}
