package costmodel

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// LayerStat is a layer's compute size, independent of any hardware.
type LayerStat struct {
	Category Category
	MACs     int64
}

// NetStats holds compute sizes for every layer that has a MAC count.
type NetStats map[LayerKey]LayerStat

// Ratios maps a category to its average cost per MAC. Only categories with
// at least one calibration layer are present.
type Ratios map[Category]float64

// PerMAC returns the ratio of c.
func (r Ratios) PerMAC(c Category) (float64, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	v, ok := r[c]
	if !ok {
		return 0, fmt.Errorf("%w: no calibration layers for category %s", ErrIncompleteCostData, c)
	}
	return v, nil
}

// ComputeRatios derives, per category, Σcost / ΣMACs over every layer that
// is in both stats and cost. Layers known to only one side are skipped.
// A category with no such layer is left out of the result.
func ComputeRatios(stats NetStats, cost map[LayerKey]float64) (Ratios, error) {
	keys := make([]LayerKey, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)

	costs := make(map[Category][]float64, len(Categories))
	macs := make(map[Category][]float64, len(Categories))
	for _, k := range keys {
		st := stats[k]
		if !st.Category.Valid() {
			return nil, fmt.Errorf("%w: %q for %s", ErrUnknownCategory, st.Category, k)
		}
		if st.MACs <= 0 {
			return nil, fmt.Errorf("%w: non-positive MAC count %d for %s", ErrIncompleteCostData, st.MACs, k)
		}
		c, ok := cost[k]
		if !ok {
			continue
		}
		costs[st.Category] = append(costs[st.Category], c)
		macs[st.Category] = append(macs[st.Category], float64(st.MACs))
	}

	ratios := make(Ratios, len(Categories))
	for _, cat := range Categories {
		if len(macs[cat]) == 0 {
			continue
		}
		ratios[cat] = floats.Sum(costs[cat]) / floats.Sum(macs[cat])
	}
	return ratios, nil
}
