package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

// Metrics holds the collectors describing served estimates and calibration.
// Every label set is bounded by the category list, so a long-running
// process can observe any number of results.
type Metrics struct {
	latency       *prometheus.HistogramVec
	energy        *prometheus.HistogramVec
	latencyRatio  *prometheus.GaugeVec
	energyRatio   *prometheus.GaugeVec
	estimateCount *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fodlam_estimate_latency_seconds",
				Help:    "Distribution of estimated latency per layer category.",
				Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
			},
			[]string{"category"},
		),
		energy: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fodlam_estimate_energy_joules",
				Help:    "Distribution of estimated energy per layer category.",
				Buckets: prometheus.ExponentialBuckets(1e-9, 10, 10),
			},
			[]string{"category"},
		),
		latencyRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fodlam_latency_per_mac_seconds",
				Help: "Calibrated average latency per multiply-accumulate.",
			},
			[]string{"category"},
		),
		energyRatio: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fodlam_energy_per_mac_joules",
				Help: "Calibrated average energy per multiply-accumulate.",
			},
			[]string{"category"},
		),
		estimateCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fodlam_estimates_total",
				Help: "Number of estimates served, by outcome.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.latency, m.energy, m.latencyRatio, m.energyRatio, m.estimateCount)
	return m
}

// ObserveResult records the totals of r.
func (m *Metrics) ObserveResult(r Result) {
	for _, k := range Keys() {
		c := r.Totals[k]
		m.latency.WithLabelValues(k).Observe(float64(c.Latency))
		m.energy.WithLabelValues(k).Observe(float64(c.Energy))
	}
	m.estimateCount.WithLabelValues("ok").Inc()
}

// ObserveFailure counts a rejected estimate.
func (m *Metrics) ObserveFailure() {
	m.estimateCount.WithLabelValues("error").Inc()
}

// ObserveRatios records the calibrated per-MAC ratios.
func (m *Metrics) ObserveRatios(latency, energy costmodel.Ratios) {
	for _, c := range costmodel.Categories {
		if v, err := latency.PerMAC(c); err == nil {
			m.latencyRatio.WithLabelValues(string(c)).Set(v)
		}
		if v, err := energy.PerMAC(c); err == nil {
			m.energyRatio.WithLabelValues(string(c)).Set(v)
		}
	}
}

// WriteMetrics writes the results and ratios to path in the Prometheus text
// format, for a node exporter textfile collector. Each result gets its own
// config-labelled gauges; the set of configs is fixed by the run.
func WriteMetrics(path string, results []Result, latency, energy costmodel.Ratios) error {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveRatios(latency, energy)

	lat := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fodlam_estimated_latency_seconds",
			Help: "Estimated latency of a configuration per layer category.",
		},
		[]string{"config", "category"},
	)
	en := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fodlam_estimated_energy_joules",
			Help: "Estimated energy of a configuration per layer category.",
		},
		[]string{"config", "category"},
	)
	reg.MustRegister(lat, en)

	for _, r := range results {
		m.ObserveResult(r)
		for _, k := range Keys() {
			c := r.Totals[k]
			lat.WithLabelValues(r.Config, k).Set(float64(c.Latency))
			en.WithLabelValues(r.Config, k).Set(float64(c.Energy))
		}
	}
	return prometheus.WriteToTextfile(path, reg)
}
