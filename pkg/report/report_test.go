package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

func init() { color.NoColor = true }

func sampleEstimate() costmodel.Estimate {
	layers := []costmodel.Resolved{
		{Name: "VGG16/CONV1-1", Category: costmodel.Conv, Exact: true, Latency: 0.05, Energy: 0.01},
		{Name: "X/FC1", Category: costmodel.FC, Latency: 0.002, Energy: 0.0004},
	}
	return costmodel.Estimate{Layers: layers, Totals: costmodel.Aggregate(layers)}
}

func sampleReport() Report {
	return Report{
		RunID:     "run-1",
		Generated: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		Results:   []Result{NewResult("cfg", sampleEstimate())},
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult("cfg", sampleEstimate())
	require.Len(t, r.Layers, 2)
	assert.Equal(t, "conv", r.Layers[0].Category)
	assert.True(t, r.Layers[0].Exact)
	assert.Len(t, r.Totals, 3)
	assert.InDelta(t, 0.052, float64(r.Totals[TotalKey].Latency), 1e-15)
	assert.InDelta(t, 0.0104, float64(r.Totals[TotalKey].Energy), 1e-15)
	assert.Equal(t, []string{"conv", "fc", "total"}, Keys())
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, sampleReport().Results))
	out := buf.String()
	t.Log("\n" + out)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[2], "conv")
	assert.Contains(t, lines[2], "50.000 ms")
	assert.Contains(t, lines[2], "10.000 mJ")
	assert.Contains(t, lines[4], "total")
}

func TestWriteLayers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLayers(&buf, sampleReport().Results[0]))
	assert.Contains(t, buf.String(), "exact")
	assert.Contains(t, buf.String(), "scaled")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport().Results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"config", "category", "latency_s", "energy_j"}, rows[0])
	assert.Equal(t, []string{"cfg", "conv", "0.05", "0.01"}, rows[1])
	assert.Equal(t, []string{"cfg", "fc", "0.002", "0.0004"}, rows[2])

	assert.Equal(t, "total", rows[3][1])
	lat, err := strconv.ParseFloat(rows[3][2], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.052, lat, 1e-15)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleReport()))

	var got struct {
		RunID   string `json:"run_id"`
		Results []struct {
			Config string `json:"config"`
			Totals map[string]struct {
				Latency float64 `json:"latency_s"`
				Energy  float64 `json:"energy_j"`
			} `json:"totals"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	require.Len(t, got.Results, 1)
	assert.InDelta(t, 0.05, got.Results[0].Totals["conv"].Latency, 1e-15)
	assert.InDelta(t, 0.0104, got.Results[0].Totals["total"].Energy, 1e-15)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "<h2>cfg</h2>")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, `class="total"`)
	assert.Contains(t, out, "VGG16/CONV1-1")
}

func TestWriteDiagnostics(t *testing.T) {
	d := costmodel.Diagnostics{
		Rows: []costmodel.DiagnosticRow{{
			Key: costmodel.NewLayerKey("VGG16", "CONV1-1"), Category: costmodel.Conv,
			MACs: 1_000_000, LatencyPerMAC: 5e-8, EnergyPerMAC: 1e-8,
		}},
		LatencyRatios: costmodel.Ratios{costmodel.Conv: 5e-8},
		EnergyRatios:  costmodel.Ratios{costmodel.Conv: 1e-8},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDiagnostics(&buf, d))
	out := buf.String()
	assert.Contains(t, out, "CONV1-1")
	assert.Contains(t, out, "5.000000e-08")
	assert.Contains(t, out, "n/a", "fc has no calibration")
}

func TestWriteCostTables(t *testing.T) {
	k := costmodel.NewLayerKey("VGG16", "FC6")
	var buf bytes.Buffer
	require.NoError(t, WriteCostTables(&buf, costmodel.CostTables{
		Latency: map[costmodel.LayerKey]float64{k: 5e-5},
		Power:   map[costmodel.LayerKey]float64{k: 1.2},
		Energy:  map[costmodel.LayerKey]float64{k: 6e-5},
	}))
	assert.Contains(t, buf.String(), "50.000 us")
	assert.Contains(t, buf.String(), "1.200 W")
}

func TestWriteSourceTables(t *testing.T) {
	fc := costmodel.NewLayerKey("VGG16", "FC6")
	conv := costmodel.NewLayerKey("VGG16", "CONV1-1")
	low := costmodel.Measurements{
		Source:      costmodel.Source{Name: "eie", ProcessNM: 45},
		Latency:     map[costmodel.LayerKey]float64{fc: 3.44e-5},
		Power:       map[costmodel.LayerKey]float64{},
		DesignPower: 0.59,
	}
	high := costmodel.Measurements{
		Source:  costmodel.Source{Name: "eyeriss", ProcessNM: 65},
		Latency: map[costmodel.LayerKey]float64{conv: 0.247},
		Power:   map[costmodel.LayerKey]float64{conv: 0.0077},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSourceTables(&buf, low, high))
	out := buf.String()
	t.Logf("\n%s", out)

	assert.Contains(t, out, "# eie (45 nm, 1 layers, design power 590.000 mW)")
	assert.Contains(t, out, "# eyeriss (65 nm, 1 layers)")
	assert.Contains(t, out, "34.400 us")
	assert.Contains(t, out, "247.000 ms")
	assert.Contains(t, out, "7.700 mW")
	assert.Less(t, strings.Index(out, "FC6"), strings.Index(out, "CONV1-1"), "low source printed first")

	lines := strings.Split(out, "\n")
	for _, l := range lines {
		if strings.Contains(l, "FC6") {
			assert.True(t, strings.HasSuffix(strings.TrimSpace(l), "-"), "no per-layer power: %q", l)
		}
	}
}

func TestWriteMetrics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fodlam.prom")
	err := WriteMetrics(path, sampleReport().Results,
		costmodel.Ratios{costmodel.Conv: 5e-8}, costmodel.Ratios{costmodel.Conv: 1e-8})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `fodlam_estimated_latency_seconds{category="conv",config="cfg"} 0.05`)
	assert.Contains(t, out, `fodlam_energy_per_mac_joules{category="conv"} 1e-08`)
	assert.Contains(t, out, `fodlam_estimates_total{outcome="ok"} 1`)
	assert.NotContains(t, out, `fodlam_latency_per_mac_seconds{category="fc"}`)
}
