package costmodel

import (
	"fmt"

	"github.com/ja7ad/fodlam/pkg/units"
)

// LayerSpec is one configuration entry: a Lookup or a Scale. The set is
// closed; Resolve handles every member.
type LayerSpec interface {
	layerSpec()
}

// Lookup resolves through an exact entry in the cost tables.
// Category is optional; when empty it is derived from the layer name.
type Lookup struct {
	Network  string
	Layer    string
	Category Category
}

// Scale has no exact measurement; its cost is MACs times the category ratio.
type Scale struct {
	Name     string
	Category Category
	MACs     int64
}

func (Lookup) layerSpec() {}
func (Scale) layerSpec()  {}

// Resolved is the cost of one configuration entry.
type Resolved struct {
	Name     string
	Category Category
	Exact    bool
	Latency  units.Seconds
	Energy   units.Joules
}

// Resolver turns specs into costs. It only reads its tables.
type Resolver struct {
	tables  CostTables
	latency Ratios
	energy  Ratios
}

// NewResolver returns a resolver over tables and the per-MAC ratios.
func NewResolver(tables CostTables, latency, energy Ratios) *Resolver {
	return &Resolver{tables: tables, latency: latency, energy: energy}
}

// Resolve returns the cost of spec.
func (r *Resolver) Resolve(spec LayerSpec) (Resolved, error) {
	switch s := spec.(type) {
	case Lookup:
		return r.lookup(s)
	case Scale:
		return r.scale(s)
	default:
		return Resolved{}, fmt.Errorf("%w: unsupported layer spec %T", ErrConfiguration, spec)
	}
}

// ResolveAll resolves every spec, stopping at the first failure.
func (r *Resolver) ResolveAll(specs []LayerSpec) ([]Resolved, error) {
	out := make([]Resolved, 0, len(specs))
	for i, spec := range specs {
		res, err := r.Resolve(spec)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *Resolver) lookup(s Lookup) (Resolved, error) {
	key := NewLayerKey(s.Network, s.Layer)
	lat, ok := r.tables.Latency[key]
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownLayer, key)
	}
	energy, ok := r.tables.Energy[key]
	if !ok {
		return Resolved{}, fmt.Errorf("%w: no energy for %s", ErrIncompleteCostData, key)
	}

	cat := s.Category
	if cat == "" {
		var err error
		if cat, err = CategoryFromName(key.Layer); err != nil {
			return Resolved{}, err
		}
	} else if !cat.Valid() {
		return Resolved{}, fmt.Errorf("%w: %q for %s", ErrUnknownCategory, cat, key)
	}

	return Resolved{
		Name:     key.String(),
		Category: cat,
		Exact:    true,
		Latency:  units.Seconds(lat),
		Energy:   units.Joules(energy),
	}, nil
}

func (r *Resolver) scale(s Scale) (Resolved, error) {
	if !s.Category.Valid() {
		return Resolved{}, fmt.Errorf("%w: %q for %s", ErrUnknownCategory, s.Category, s.Name)
	}
	if s.MACs <= 0 {
		return Resolved{}, fmt.Errorf("%w: %s has non-positive MAC count %d", ErrConfiguration, s.Name, s.MACs)
	}
	lat, err := r.latency.PerMAC(s.Category)
	if err != nil {
		return Resolved{}, fmt.Errorf("latency: %w", err)
	}
	energy, err := r.energy.PerMAC(s.Category)
	if err != nil {
		return Resolved{}, fmt.Errorf("energy: %w", err)
	}

	macs := float64(s.MACs)
	return Resolved{
		Name:     s.Name,
		Category: s.Category,
		Latency:  units.Seconds(lat * macs),
		Energy:   units.Joules(energy * macs),
	}, nil
}
