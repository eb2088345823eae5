// Package costmodel estimates per-layer latency and energy of a network on a
// dedicated accelerator from two published measurement datasets.
//
// A Model is built once from both sources and the networks' MAC counts:
//
//	normalize -> merge (low scaled to high's process node, high wins)
//	          -> energy = latency * power
//	          -> cost-per-MAC ratios per category
//
// and is read-only afterwards, so one Model may serve concurrent Estimate
// calls. Each call resolves its layer specs (exact lookup or MAC scaling)
// and aggregates them into conv, fc and grand totals.
package costmodel

import (
	"fmt"
	"maps"
	"slices"
)

// Inputs are the raw data a Model is built from. Stats may be nil, in which
// case only Lookup specs can be resolved.
type Inputs struct {
	Low   RawMeasurements
	High  RawMeasurements
	Stats NetStats
}

// Model is the calibrated cost model.
type Model struct {
	cfg      *Config
	low      Measurements
	high     Measurements
	tables   CostTables
	overlaps []LayerKey
	stats    NetStats
	latency  Ratios
	energy   Ratios
	resolver *Resolver
}

// Build runs the merge and calibration pipeline. A nil cfg uses the
// built-in calibration.
func Build(cfg *Config, in Inputs) (*Model, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Low.ProcessNM <= 0 || cfg.High.ProcessNM <= 0 {
		return nil, fmt.Errorf("%w: process node must be > 0 (low %v nm, high %v nm)",
			ErrConfiguration, cfg.Low.ProcessNM, cfg.High.ProcessNM)
	}

	m := &Model{
		cfg:   cfg,
		low:   Normalize(cfg.Low, in.Low),
		high:  Normalize(cfg.High, in.High),
		stats: maps.Clone(in.Stats),
	}
	m.tables, m.overlaps = Merge(cfg, m.low, m.high)

	energy, err := DeriveEnergy(m.tables.Latency, m.tables.Power)
	if err != nil {
		return nil, fmt.Errorf("derive energy: %w", err)
	}
	m.tables.Energy = energy

	if m.latency, err = ComputeRatios(m.stats, m.tables.Latency); err != nil {
		return nil, fmt.Errorf("latency ratios: %w", err)
	}
	if m.energy, err = ComputeRatios(m.stats, m.tables.Energy); err != nil {
		return nil, fmt.Errorf("energy ratios: %w", err)
	}

	m.resolver = NewResolver(m.tables, m.latency, m.energy)
	return m, nil
}

// Config returns the calibration the model was built with.
func (m *Model) Config() Config { return *m.cfg }

// Tables returns a copy of the merged cost tables.
func (m *Model) Tables() CostTables { return m.tables.Clone() }

// Sources returns copies of the normalized low and high measurements.
func (m *Model) Sources() (low, high Measurements) {
	low, high = m.low, m.high
	low.Latency, low.Power = maps.Clone(low.Latency), maps.Clone(low.Power)
	high.Latency, high.Power = maps.Clone(high.Latency), maps.Clone(high.Power)
	return low, high
}

// Overlaps returns the keys reported by both sources. High-fidelity values
// were kept for each of them.
func (m *Model) Overlaps() []LayerKey { return slices.Clone(m.overlaps) }

// Ratios returns copies of the latency (s/MAC) and energy (J/MAC) ratios.
func (m *Model) Ratios() (latency, energy Ratios) {
	return maps.Clone(m.latency), maps.Clone(m.energy)
}

// Networks returns the names of networks with exact costs, sorted.
func (m *Model) Networks() []string {
	seen := make(map[string]struct{})
	for k := range m.tables.Latency {
		seen[k.Network] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// CheckLookups asserts that every Lookup spec names a layer present in its
// network's cost tables. It runs before any resolution.
func (m *Model) CheckLookups(specs []LayerSpec) error {
	var missing []string
	for _, s := range specs {
		l, ok := s.(Lookup)
		if !ok {
			continue
		}
		if k := NewLayerKey(l.Network, l.Layer); !m.tables.Has(k) {
			missing = append(missing, k.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: layers not in dataset: %v", ErrConfiguration, missing)
	}
	return nil
}

// Estimate is the result of one configuration.
type Estimate struct {
	Layers []Resolved
	Totals Totals
}

// Estimate resolves specs and aggregates them. On any failure no partial
// result is returned.
func (m *Model) Estimate(specs []LayerSpec) (Estimate, error) {
	if err := m.CheckLookups(specs); err != nil {
		return Estimate{}, err
	}
	resolved, err := m.resolver.ResolveAll(specs)
	if err != nil {
		return Estimate{}, err
	}
	return Estimate{Layers: resolved, Totals: Aggregate(resolved)}, nil
}
