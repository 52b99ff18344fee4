package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ManifestOperationsTotal counts editor operations by operation and result
	// (updated, unchanged, skipped, failed).
	ManifestOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csprojsync_manifest_operations_total",
			Help: "Total number of manifest operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	// ManifestOperationDuration tracks the read/modify/write time of editor operations.
	ManifestOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "csprojsync_manifest_operation_duration_seconds",
			Help:    "Manifest operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to 1s
		},
		[]string{"operation"},
	)

	// ManifestItemsChangedTotal counts items added, removed or renamed by build action.
	ManifestItemsChangedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csprojsync_manifest_items_changed_total",
			Help: "Total number of manifest items changed by build action",
		},
		[]string{"build_action", "change"},
	)

	// ManifestLocateTotal counts locator lookups by manifest kind and outcome.
	ManifestLocateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csprojsync_manifest_locate_total",
			Help: "Total number of manifest lookups by kind and outcome",
		},
		[]string{"kind", "found"},
	)

	// WatchEventsTotal counts filesystem events received by the watcher.
	WatchEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csprojsync_watch_events_total",
			Help: "Total number of filesystem events by operation",
		},
		[]string{"op"},
	)

	// WatchBatchSize tracks how many events each flushed batch coalesced.
	WatchBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "csprojsync_watch_batch_size",
			Help:    "Number of filesystem events per flushed batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		},
	)
)

// RecordManifestOperation records the outcome and duration of an editor operation.
func RecordManifestOperation(operation, result string, d time.Duration) {
	ManifestOperationsTotal.WithLabelValues(operation, result).Inc()
	ManifestOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordItemsChanged records n items of buildAction changed in the given way.
func RecordItemsChanged(buildAction, change string, n int) {
	ManifestItemsChangedTotal.WithLabelValues(buildAction, change).Add(float64(n))
}

// RecordLocate records a locator lookup.
func RecordLocate(kind string, found bool) {
	if !found {
		kind = "none"
	}
	f := "false"
	if found {
		f = "true"
	}
	ManifestLocateTotal.WithLabelValues(kind, f).Inc()
}

// RecordWatchEvent counts one filesystem event.
func RecordWatchEvent(op string) {
	WatchEventsTotal.WithLabelValues(op).Inc()
}

// RecordWatchBatch records the size of a flushed batch.
func RecordWatchBatch(size int) {
	WatchBatchSize.Observe(float64(size))
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ServeMetrics exposes /metrics on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GetCounterValue retrieves the current value of a counter metric with the given labels
// This is primarily intended for testing
func GetCounterValue(counter *prometheus.CounterVec, labels ...string) (float64, error) {
	metric, err := counter.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0, err
	}

	var pb dto.Metric
	if err := metric.Write(&pb); err != nil {
		return 0, err
	}

	if pb.Counter != nil {
		return pb.Counter.GetValue(), nil
	}

	return 0, nil
}
