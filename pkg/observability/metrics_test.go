package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	t.Run("creates and registers all metrics", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		metrics := NewMetrics(registry)

		if metrics == nil {
			t.Fatal("NewMetrics returned nil")
		}
		if metrics.Registry() != registry {
			t.Error("Registry() should return the registry passed in")
		}
		if metrics.ReductionsTotal == nil || metrics.ChangesTotal == nil || metrics.StageDuration == nil {
			t.Error("core metrics should be initialized")
		}
	})

	t.Run("nil registry gets a fresh one", func(t *testing.T) {
		metrics := NewMetrics(nil)
		if metrics.Registry() == nil {
			t.Fatal("expected a registry")
		}
	})

	t.Run("registering twice panics", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		NewMetrics(registry)

		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic on duplicate registration")
			}
		}()
		NewMetrics(registry)
	})
}

func TestMetrics_ReductionMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ReductionsTotal.WithLabelValues("14", "success").Inc()
	metrics.ReductionsTotal.WithLabelValues("14", "success").Inc()
	metrics.ReductionsTotal.WithLabelValues("11", "unsupported").Inc()

	expected := `
# HELP palletdiff_reductions_total Total number of metadata reductions
# TYPE palletdiff_reductions_total counter
palletdiff_reductions_total{status="success",version="14"} 2
palletdiff_reductions_total{status="unsupported",version="11"} 1
`
	if err := testutil.CollectAndCompare(metrics.ReductionsTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}

	metrics.UnresolvedTypesTotal.WithLabelValues("15").Add(3)
	if got := testutil.ToFloat64(metrics.UnresolvedTypesTotal.WithLabelValues("15")); got != 3 {
		t.Errorf("Expected 3 unresolved types, got %v", got)
	}
}

func TestMetrics_ComparisonMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.ChangesTotal.WithLabelValues("CALL_INDEX_CHANGED", "ERROR").Inc()
	metrics.ComparisonsTotal.WithLabelValues("bump_required").Inc()

	expected := `
# HELP palletdiff_changes_total Total number of detected changes by rule and level
# TYPE palletdiff_changes_total counter
palletdiff_changes_total{level="ERROR",rule="CALL_INDEX_CHANGED"} 1
`
	if err := testutil.CollectAndCompare(metrics.ChangesTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}

	metrics.ObserveStage("diff", time.Now().Add(-10*time.Millisecond))
	if count := testutil.CollectAndCount(metrics.StageDuration); count != 1 {
		t.Errorf("Expected 1 stage series, got %d", count)
	}
}

func TestMetrics_CacheMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.CacheHitsTotal.WithLabelValues("runtime").Inc()
	metrics.CacheMissesTotal.WithLabelValues("runtime").Add(2)

	expected := `
# HELP palletdiff_cache_misses_total Total number of cache misses
# TYPE palletdiff_cache_misses_total counter
palletdiff_cache_misses_total{cache_type="runtime"} 2
`
	if err := testutil.CollectAndCompare(metrics.CacheMissesTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("Unexpected metric value: %v", err)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.ComparisonsTotal.WithLabelValues("safe").Inc()

	path := filepath.Join(t.TempDir(), "palletdiff.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `palletdiff_comparisons_total{verdict="safe"} 1`) {
		t.Errorf("textfile missing comparison counter:\n%s", data)
	}
}
