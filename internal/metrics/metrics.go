// Package metrics holds the engine's Prometheus collectors on a private
// registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metrics for the engine
type Registry struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	RowsScanned       *prometheus.CounterVec
	IndexRebuilds     *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.OperationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinysql_operations_total",
			Help: "Total number of engine operations by outcome",
		},
		[]string{"operation", "status"},
	)
	r.OperationDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tinysql_operation_duration_seconds",
			Help:    "Engine operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"operation"},
	)
	r.RowsScanned = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinysql_rows_scanned_total",
			Help: "Rows examined while evaluating predicates, by access path",
		},
		[]string{"access"},
	)
	r.IndexRebuilds = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tinysql_index_rebuilds_total",
			Help: "Index structures built from table data, by index kind",
		},
		[]string{"kind"},
	)
	return r
}

// RecordOperation counts one finished operation. status is a short outcome
// label such as "success" or "not_found".
func (r *Registry) RecordOperation(operation, status string, duration time.Duration) {
	r.OperationsTotal.WithLabelValues(operation, status).Inc()
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *Registry) RecordScan(access string, rows int) {
	r.RowsScanned.WithLabelValues(access).Add(float64(rows))
}

func (r *Registry) RecordIndexRebuild(kind string) {
	r.IndexRebuilds.WithLabelValues(kind).Inc()
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
