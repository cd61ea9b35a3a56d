package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Collector metrics
	collectorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcmonitor",
			Subsystem: "collector",
			Name:      "failures_total",
			Help:      "Total number of failed resource collector calls",
		},
		[]string{"kind", "region"},
	)

	resourcesCollected = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tcmonitor",
			Subsystem: "collector",
			Name:      "resources",
			Help:      "Number of resources collected in the last run",
		},
		[]string{"account", "kind"},
	)

	// Notification metrics
	deliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcmonitor",
			Subsystem: "notify",
			Name:      "deliveries_total",
			Help:      "Total number of notification delivery attempts",
		},
		[]string{"channel", "outcome"},
	)

	// Persistence metrics
	rowsUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcmonitor",
			Subsystem: "store",
			Name:      "rows_upserted_total",
			Help:      "Total number of rows upserted",
		},
		[]string{"table"},
	)

	rowFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcmonitor",
			Subsystem: "store",
			Name:      "row_failures_total",
			Help:      "Total number of rows that failed to upsert",
		},
		[]string{"table"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tcmonitor",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of a full monitoring run in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
)

// RecordCollectorFailure increments the failure counter for a kind/region pair.
func RecordCollectorFailure(kind, region string) {
	if region == "" {
		region = "global"
	}
	collectorFailuresTotal.WithLabelValues(kind, region).Inc()
}

// RecordResourcesCollected sets the collected gauge for an account/kind pair.
func RecordResourcesCollected(account, kind string, count int) {
	resourcesCollected.WithLabelValues(account, kind).Set(float64(count))
}

// RecordDelivery increments the delivery counter for a channel.
func RecordDelivery(channel string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	deliveriesTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordRowUpserted increments the upsert counter for a table.
func RecordRowUpserted(table string) {
	rowsUpsertedTotal.WithLabelValues(table).Inc()
}

// RecordRowFailure increments the row failure counter for a table.
func RecordRowFailure(table string) {
	rowFailuresTotal.WithLabelValues(table).Inc()
}

// ObserveRunDuration records the duration of a completed run.
func ObserveRunDuration(d time.Duration) {
	runDuration.Observe(d.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr for the lifetime of the process.
// Errors are returned through the channel so a batch run can ignore them.
func Serve(addr string) <-chan error {
	errs := make(chan error, 1)
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	go func() {
		errs <- http.ListenAndServe(addr, mux)
	}()

	return errs
}
