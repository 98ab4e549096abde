// Package metrics records run statistics in a dedicated Prometheus registry
// and writes them in the node exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "oci_report"

// Recorder is safe for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	pages    *prometheus.CounterVec
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
	partial  *prometheus.CounterVec
	scopes   prometheus.Gauge
	duration prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Listing pages fetched per resource kind.",
		}, []string{"kind"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records collected per resource kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_failures_total",
			Help:      "Failed scope and kind collections.",
		}, []string{"kind"}),
		partial: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_records_total",
			Help:      "Records kept without their enrichment.",
		}, []string{"kind"}),
		scopes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scopes",
			Help:      "Compartments covered by the last run.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
	r.registry.MustRegister(r.pages, r.records, r.failures, r.partial, r.scopes, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObservePage counts one delivered listing page.
func (r *Recorder) ObservePage(kind string, _ int) {
	r.pages.WithLabelValues(kind).Inc()
}

// ObserveCollection counts the records of one finished collection.
func (r *Recorder) ObserveCollection(kind string, records, partial int) {
	r.records.WithLabelValues(kind).Add(float64(records))
	r.partial.WithLabelValues(kind).Add(float64(partial))
}

func (r *Recorder) ObserveFailure(kind string) {
	r.failures.WithLabelValues(kind).Inc()
}

func (r *Recorder) SetScopes(n int) {
	r.scopes.Set(float64(n))
}

func (r *Recorder) SetDuration(d time.Duration) {
	r.duration.Set(d.Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
