// Package observability defines the Prometheus metrics of the converter and the layer server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "airmap"

// ConversionMetrics holds the counters of a CSV to GeoJSON run.
type ConversionMetrics struct {
	RecordsRead        *prometheus.CounterVec   // labels: dataset
	FeaturesWritten    *prometheus.CounterVec   // labels: dataset
	RecordsSkipped     *prometheus.CounterVec   // labels: dataset
	NoDataValues       *prometheus.CounterVec   // labels: dataset
	DatasetErrors      *prometheus.CounterVec   // labels: dataset
	ConversionDuration *prometheus.HistogramVec // labels: dataset
}

// NewConversionMetrics creates the conversion metrics and registers them with reg.
func NewConversionMetrics(reg prometheus.Registerer) *ConversionMetrics {
	m := &ConversionMetrics{
		RecordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "CSV rows read per dataset.",
		}, []string{"dataset"}),
		FeaturesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_written_total",
			Help:      "GeoJSON features written per dataset.",
		}, []string{"dataset"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "CSV rows dropped because their shape held no usable geometry.",
		}, []string{"dataset"}),
		NoDataValues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_data_values_total",
			Help:      "Features written with a null pollutant value.",
		}, []string{"dataset"}),
		DatasetErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_errors_total",
			Help:      "Datasets that failed to convert.",
		}, []string{"dataset"}),
		ConversionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time to read, convert and write one dataset.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"dataset"}),
	}

	reg.MustRegister(
		m.RecordsRead,
		m.FeaturesWritten,
		m.RecordsSkipped,
		m.NoDataValues,
		m.DatasetErrors,
		m.ConversionDuration,
	)

	return m
}

// ServerMetrics holds the counters of the layer server.
type ServerMetrics struct {
	LayerRequests *prometheus.CounterVec // labels: layer, status
	LayerCache    *prometheus.CounterVec // labels: result={hit,miss}
	LayersLoaded  prometheus.Gauge
}

// NewServerMetrics creates the server metrics and registers them with reg.
func NewServerMetrics(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		LayerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_requests_total",
			Help:      "Layer requests by layer and HTTP status.",
		}, []string{"layer", "status"}),
		LayerCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layer_cache_total",
			Help:      "Prepared layer cache lookups by result.",
		}, []string{"result"}),
		LayersLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layers_available",
			Help:      "Layers found on disk at startup.",
		}),
	}

	reg.MustRegister(m.LayerRequests, m.LayerCache, m.LayersLoaded)

	return m
}
