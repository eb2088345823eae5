package costmodel

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ja7ad/fodlam/pkg/units"
)

// Cost is a latency and energy pair.
type Cost struct {
	Latency units.Seconds `json:"latency_s"`
	Energy  units.Joules  `json:"energy_j"`
}

// Totals are per-category sums and their grand total.
type Totals struct {
	ByCategory map[Category]Cost
	Total      Cost
}

// Category returns the totals of c (zero when no layer of c was resolved).
func (t Totals) Category(c Category) Cost { return t.ByCategory[c] }

// Aggregate sums resolved costs per category. Every category is present in
// the result; the grand total is the sum of the category totals.
func Aggregate(resolved []Resolved) Totals {
	lat := make(map[Category][]float64, len(Categories))
	en := make(map[Category][]float64, len(Categories))
	for _, r := range resolved {
		lat[r.Category] = append(lat[r.Category], float64(r.Latency))
		en[r.Category] = append(en[r.Category], float64(r.Energy))
	}

	t := Totals{ByCategory: make(map[Category]Cost, len(Categories))}
	catLat := make([]float64, 0, len(Categories))
	catEn := make([]float64, 0, len(Categories))
	for _, c := range Categories {
		cost := Cost{
			Latency: units.Seconds(floats.Sum(lat[c])),
			Energy:  units.Joules(floats.Sum(en[c])),
		}
		t.ByCategory[c] = cost
		catLat = append(catLat, float64(cost.Latency))
		catEn = append(catEn, float64(cost.Energy))
	}
	t.Total = Cost{
		Latency: units.Seconds(floats.Sum(catLat)),
		Energy:  units.Joules(floats.Sum(catEn)),
	}
	return t
}
