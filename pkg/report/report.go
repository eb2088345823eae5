// Package report renders estimates, diagnostics and cost tables as
// terminal tables, CSV, JSON, HTML and Prometheus text files.
package report

import (
	"time"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

// TotalKey names the grand-total entry next to the categories.
const TotalKey = "total"

// Layer is one resolved configuration entry.
type Layer struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Exact    bool    `json:"exact"`
	LatencyS float64 `json:"latency_s"`
	EnergyJ  float64 `json:"energy_j"`
}

// Result is the estimate of one configuration.
type Result struct {
	Config string                    `json:"config"`
	Layers []Layer                   `json:"layers"`
	Totals map[string]costmodel.Cost `json:"totals"`
}

// NewResult converts an estimate for reporting.
func NewResult(config string, est costmodel.Estimate) Result {
	r := Result{
		Config: config,
		Layers: make([]Layer, 0, len(est.Layers)),
		Totals: make(map[string]costmodel.Cost, len(costmodel.Categories)+1),
	}
	for _, l := range est.Layers {
		r.Layers = append(r.Layers, Layer{
			Name:     l.Name,
			Category: string(l.Category),
			Exact:    l.Exact,
			LatencyS: float64(l.Latency),
			EnergyJ:  float64(l.Energy),
		})
	}
	for _, c := range costmodel.Categories {
		r.Totals[string(c)] = est.Totals.Category(c)
	}
	r.Totals[TotalKey] = est.Totals.Total
	return r
}

// Keys returns the totals keys in report order.
func Keys() []string {
	keys := make([]string, 0, len(costmodel.Categories)+1)
	for _, c := range costmodel.Categories {
		keys = append(keys, string(c))
	}
	return append(keys, TotalKey)
}

// Report is everything one run produced.
type Report struct {
	RunID     string    `json:"run_id"`
	Generated time.Time `json:"generated"`
	Results   []Result  `json:"results"`
}
