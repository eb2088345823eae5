package costmodel

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ja7ad/fodlam/pkg/units"
)

// RawMeasurements are one source's numbers in the units it published.
// Power may be nil for a source that only publishes a design-wide figure.
type RawMeasurements struct {
	Latency map[LayerKey]float64
	Power   map[LayerKey]float64
}

// Measurements are one source's numbers in seconds and watts.
type Measurements struct {
	Source  Source
	Latency map[LayerKey]float64
	Power   map[LayerKey]float64
	// DesignPower is Source.DesignPower in watts.
	DesignPower float64
}

// Normalize converts raw into SI units using src's declared units.
func Normalize(src Source, raw RawMeasurements) Measurements {
	m := Measurements{
		Source:      src,
		Latency:     make(map[LayerKey]float64, len(raw.Latency)),
		Power:       make(map[LayerKey]float64, len(raw.Power)),
		DesignPower: src.PowerUnit.Normalize(src.DesignPower),
	}
	for k, v := range raw.Latency {
		m.Latency[k] = src.TimeUnit.Normalize(v)
	}
	for k, v := range raw.Power {
		m.Power[k] = src.PowerUnit.Normalize(v)
	}
	return m
}

// Keys returns the measured layers in ascending order.
func (m Measurements) Keys() []LayerKey {
	keys := slices.Collect(maps.Keys(m.Latency))
	slices.SortFunc(keys, compareKeys)
	return keys
}

// CostTables are the merged per-layer costs. They are read-only once built.
type CostTables struct {
	Latency map[LayerKey]float64 // seconds
	Power   map[LayerKey]float64 // watts
	Energy  map[LayerKey]float64 // joules
}

// Has reports whether k has an exact cost.
func (t CostTables) Has(k LayerKey) bool {
	_, ok := t.Latency[k]
	return ok
}

// Keys returns the keys of network in order, or every key when network is "".
func (t CostTables) Keys(network string) []LayerKey {
	keys := make([]LayerKey, 0, len(t.Latency))
	for k := range t.Latency {
		if network == "" || k.Network == network {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// Clone returns a deep copy of t.
func (t CostTables) Clone() CostTables {
	return CostTables{
		Latency: maps.Clone(t.Latency),
		Power:   maps.Clone(t.Power),
		Energy:  maps.Clone(t.Energy),
	}
}

// Merge combines the low- and high-fidelity sources into latency and power
// tables. Precedence is explicit: low is scaled to high's process node
// first, then every high entry overwrites it. Keys present in both sources
// are returned in order so the caller can report them.
//
// Low latency scales by s = High.ProcessNM/Low.ProcessNM, low power by s^2.
// A low layer without its own power is charged the scaled design power.
func Merge(cfg *Config, low, high Measurements) (CostTables, []LayerKey) {
	s := cfg.ProcessScale()

	latency := make(map[LayerKey]float64, len(low.Latency)+len(high.Latency))
	power := make(map[LayerKey]float64, len(low.Latency)+len(high.Latency))

	for k, v := range low.Latency {
		latency[k] = v * s
		p, ok := low.Power[k]
		if !ok {
			p = low.DesignPower
		}
		power[k] = p * s * s
	}

	var overlaps []LayerKey
	for k, v := range high.Latency {
		if _, ok := low.Latency[k]; ok {
			overlaps = append(overlaps, k)
		}
		latency[k] = v
		if p, ok := high.Power[k]; ok {
			power[k] = p
		} else {
			delete(power, k)
		}
	}
	slices.SortFunc(overlaps, compareKeys)

	return CostTables{Latency: latency, Power: power}, overlaps
}

// DeriveEnergy returns latency*power per key. The two maps must have
// identical key sets.
func DeriveEnergy(latency, power map[LayerKey]float64) (map[LayerKey]float64, error) {
	if len(latency) != len(power) {
		return nil, fmt.Errorf("%w: %d latency entries, %d power entries",
			ErrIncompleteCostData, len(latency), len(power))
	}
	energy := make(map[LayerKey]float64, len(latency))
	for k, l := range latency {
		p, ok := power[k]
		if !ok {
			return nil, fmt.Errorf("%w: no power for %s", ErrIncompleteCostData, k)
		}
		energy[k] = float64(units.Seconds(l).Energy(units.Watts(p)))
	}
	return energy, nil
}

func compareKeys(a, b LayerKey) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
