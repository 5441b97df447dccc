package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts renders and describes the loaded dataset
type Metrics struct {
	renders     *prometheus.CounterVec
	datasetRows prometheus.Gauge
	loadSeconds prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agristat",
			Name:      "chart_renders_total",
			Help:      "Charts built, by view and whether the result was empty.",
		}, []string{"view", "empty"}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "agristat",
			Name:      "dataset_rows",
			Help:      "Rows in the loaded dataset.",
		}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agristat",
			Name:      "dataset_load_seconds",
			Help:      "Time spent loading the dataset.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}),
	}
	reg.MustRegister(m.renders, m.datasetRows, m.loadSeconds)
	return m
}

// ObserveRender counts one chart of the given view
func (m *Metrics) ObserveRender(view string, empty bool) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(view, strconv.FormatBool(empty)).Inc()
}

// ObserveLoad records a finished dataset load
func (m *Metrics) ObserveLoad(rows int, took time.Duration) {
	if m == nil {
		return
	}
	m.datasetRows.Set(float64(rows))
	m.loadSeconds.Observe(took.Seconds())
}
