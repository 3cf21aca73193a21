// Package metrics provides the Prometheus metrics of an export run.
package metrics

import (
	"github.com/nvr-ai/go-cityscapes/diagnostics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cityscapes_export"

// ExportMetrics contains all Prometheus metrics related to converting and
// writing images. A nil *ExportMetrics is valid and records nothing.
type ExportMetrics struct {
	ImagesConverted    prometheus.Counter
	ImagesFailed       prometheus.Counter
	Warnings           *prometheus.CounterVec
	SplitImages        *prometheus.CounterVec
	ConversionDuration prometheus.Histogram
	registry           *prometheus.Registry
}

// NewExportMetrics creates the metrics and registers them with registry.
//
// Arguments:
//   - registry: The registry to register with. Each run uses its own.
//
// Returns:
//   - *ExportMetrics: The metrics.
//   - error: If registration fails.
func NewExportMetrics(registry *prometheus.Registry) (*ExportMetrics, error) {
	m := &ExportMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, errors.Wrap(err, "failed to register export metrics")
	}
	return m, nil
}

func (m *ExportMetrics) initMetrics() {
	m.ImagesConverted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_converted_total",
		Help:      "Total number of images whose ground truth was written.",
	})

	m.ImagesFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_failed_total",
		Help:      "Total number of images skipped after a fetch, conversion or write failure.",
	})

	m.Warnings = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "warnings_total",
		Help:      "Total number of non-fatal conversion warnings by kind.",
	}, []string{"kind"})

	m.SplitImages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "split_images_total",
		Help:      "Total number of images assigned to each split.",
	}, []string{"split"})

	m.ConversionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "conversion_duration_seconds",
		Help:      "Duration of converting and writing one image in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	// expose every kind, even at zero
	for _, k := range diagnostics.Kinds {
		m.Warnings.WithLabelValues(string(k))
	}
}

// IncrementConverted increases the converted image counter by one.
func (m *ExportMetrics) IncrementConverted() {
	if m == nil {
		return
	}
	m.ImagesConverted.Inc()
}

// IncrementFailed increases the failed image counter by one.
func (m *ExportMetrics) IncrementFailed() {
	if m == nil {
		return
	}
	m.ImagesFailed.Inc()
}

// RecordWarnings counts warnings by kind.
func (m *ExportMetrics) RecordWarnings(warnings []diagnostics.Warning) {
	if m == nil {
		return
	}
	for _, w := range warnings {
		m.Warnings.WithLabelValues(string(w.Kind)).Inc()
	}
}

// AddSplit adds n images to the counter of the named split.
func (m *ExportMetrics) AddSplit(split string, n int) {
	if m == nil {
		return
	}
	m.SplitImages.WithLabelValues(split).Add(float64(n))
}

// ObserveConversionDuration records the time spent on one image, in seconds.
func (m *ExportMetrics) ObserveConversionDuration(durationSeconds float64) {
	if m == nil {
		return
	}
	m.ConversionDuration.Observe(durationSeconds)
}

// WriteToTextfile writes the registry in the node-exporter textfile format.
func (m *ExportMetrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, "write metrics textfile %s", path)
	}
	return nil
}

// Collect implements the prometheus.Collector interface.
func (m *ExportMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ImagesConverted.Collect(ch)
	m.ImagesFailed.Collect(ch)
	m.Warnings.Collect(ch)
	m.SplitImages.Collect(ch)
	m.ConversionDuration.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *ExportMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ImagesConverted.Describe(ch)
	m.ImagesFailed.Describe(ch)
	m.Warnings.Describe(ch)
	m.SplitImages.Describe(ch)
	m.ConversionDuration.Describe(ch)
}
