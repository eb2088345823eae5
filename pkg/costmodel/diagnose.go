package costmodel

import "github.com/google/btree"

// DiagnosticRow is the cost per MAC of one calibration layer.
type DiagnosticRow struct {
	Key           LayerKey
	Category      Category
	MACs          int64
	LatencyPerMAC float64 // s/MAC
	EnergyPerMAC  float64 // J/MAC
}

// Less orders rows by key.
func (r DiagnosticRow) Less(than btree.Item) bool {
	return r.Key.Less(than.(DiagnosticRow).Key)
}

// Diagnostics reports every calibration layer and the category averages
// built from them.
type Diagnostics struct {
	Rows          []DiagnosticRow
	LatencyRatios Ratios
	EnergyRatios  Ratios
}

// Networks groups the rows by network, keeping key order.
func (d Diagnostics) Networks() map[string][]DiagnosticRow {
	out := make(map[string][]DiagnosticRow)
	for _, r := range d.Rows {
		out[r.Key.Network] = append(out[r.Key.Network], r)
	}
	return out
}

// Diagnose lists the per-layer cost per MAC of every layer that has both an
// exact cost and a MAC count.
func (m *Model) Diagnose() Diagnostics {
	tree := btree.New(2)
	for k, st := range m.stats {
		lat, ok := m.tables.Latency[k]
		if !ok {
			continue
		}
		macs := float64(st.MACs)
		tree.ReplaceOrInsert(DiagnosticRow{
			Key:           k,
			Category:      st.Category,
			MACs:          st.MACs,
			LatencyPerMAC: lat / macs,
			EnergyPerMAC:  m.tables.Energy[k] / macs,
		})
	}

	d := Diagnostics{Rows: make([]DiagnosticRow, 0, tree.Len())}
	d.LatencyRatios, d.EnergyRatios = m.Ratios()
	tree.Ascend(func(i btree.Item) bool {
		d.Rows = append(d.Rows, i.(DiagnosticRow))
		return true
	})
	return d
}
