package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/fodlam/pkg/costmodel"
	"github.com/ja7ad/fodlam/pkg/report"
	"github.com/ja7ad/fodlam/pkg/units"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	conv := costmodel.NewLayerKey("N", "CONV1")
	fc := costmodel.NewLayerKey("N", "FC6")
	m, err := costmodel.Build(&costmodel.Config{
		Low: costmodel.Source{
			Name: "low", ProcessNM: 45, TimeUnit: units.Microsecond,
			PowerUnit: units.Milliwatt, DesignPower: 590,
		},
		High: costmodel.Source{
			Name: "high", ProcessNM: 65, TimeUnit: units.Second, PowerUnit: units.Watt,
		},
	}, costmodel.Inputs{
		Low: costmodel.RawMeasurements{Latency: map[costmodel.LayerKey]float64{fc: 30}},
		High: costmodel.RawMeasurements{
			Latency: map[costmodel.LayerKey]float64{conv: 0.05},
			Power:   map[costmodel.LayerKey]float64{conv: 0.2},
		},
		Stats: costmodel.NetStats{
			conv: {Category: costmodel.Conv, MACs: 1_000_000},
			fc:   {Category: costmodel.FC, MACs: 100_000},
		},
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(New(m, logger).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/estimate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEstimate_Lookup(t *testing.T) {
	srv := testServer(t)
	resp := post(t, srv, `{"name": "lk", "net": "N", "layers": ["conv1"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var res report.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "lk", res.Config)
	assert.InDelta(t, 0.05, float64(res.Totals["conv"].Latency), 1e-15)
	assert.InDelta(t, 0.01, float64(res.Totals["conv"].Energy), 1e-15)
	assert.Equal(t, res.Totals["conv"], res.Totals[report.TotalKey])
}

func TestEstimate_InlineRecords(t *testing.T) {
	srv := testServer(t)
	resp := post(t, srv, `{"records": [{"name": "conv_x", "type": "Convolution", "macs": 2000000}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res report.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "request", res.Config)
	assert.InDelta(t, 0.02, float64(res.Totals["conv"].Energy), 1e-12)
}

func TestEstimate_Errors(t *testing.T) {
	srv := testServer(t)
	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing_layer", `{"net": "N", "layers": ["conv9"]}`, http.StatusBadRequest},
		{"no_source", `{"layers": ["conv1"]}`, http.StatusBadRequest},
		{"stats_path", `{"stats": "/etc/passwd"}`, http.StatusBadRequest},
		{"bad_category", `{"records": [{"name": "x", "category": "pool", "macs": 1}]}`, http.StatusBadRequest},
		{"not_yaml", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, srv, tc.body)
			assert.Equal(t, tc.want, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDiagnoseTablesNetworks(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/v1/diagnose")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var diag struct {
		Layers       []diagnosticRow    `json:"layers"`
		EnergyRatios map[string]float64 `json:"energy_ratios"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&diag))
	assert.Len(t, diag.Layers, 2)
	assert.InDelta(t, 1e-8, diag.EnergyRatios["conv"], 1e-20)

	resp2, err := http.Get(srv.URL + "/v1/tables")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var rows []tableRow
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "CONV1", rows[0].Layer)

	resp3, err := http.Get(srv.URL + "/v1/networks")
	require.NoError(t, err)
	defer resp3.Body.Close()
	var nets []string
	require.NoError(t, json.NewDecoder(resp3.Body).Decode(&nets))
	assert.Equal(t, []string{"N"}, nets)
}

func TestMetrics(t *testing.T) {
	srv := testServer(t)
	post(t, srv, `{"name": "lk", "net": "N"}`)
	post(t, srv, `{"net": "N", "layers": ["nope"]}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `fodlam_estimate_energy_joules_count{category="conv"} 1`)
	assert.NotContains(t, out, `config="lk"`)
	assert.Contains(t, out, `fodlam_estimates_total{outcome="ok"} 1`)
	assert.Contains(t, out, `fodlam_estimates_total{outcome="error"} 1`)
	assert.Contains(t, out, `fodlam_latency_per_mac_seconds{category="fc"}`)
}

func TestMetrics_SeriesBoundedByCategory(t *testing.T) {
	srv := testServer(t)
	const requests = 50
	for i := 0; i < requests; i++ {
		resp := post(t, srv, fmt.Sprintf(`{"name": "cfg-%d", "net": "N"}`, i))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	series := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "fodlam_estimate_latency_seconds_count{") {
			series++
		}
		assert.NotContains(t, line, "cfg-")
	}
	assert.Equal(t, len(report.Keys()), series)
	assert.Contains(t, string(data), fmt.Sprintf(`fodlam_estimate_latency_seconds_count{category="total"} %d`, requests))
	assert.Contains(t, string(data), fmt.Sprintf(`fodlam_estimates_total{outcome="ok"} %d`, requests))
}

func TestSources(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/v1/sources")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]sourceTable
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Contains(t, got, "low")
	require.Contains(t, got, "high")

	low := got["low"]
	assert.Equal(t, "low", low.Name)
	assert.InDelta(t, 0.59, low.DesignPowerW, 1e-12)
	require.Len(t, low.Layers, 1)
	assert.Equal(t, "FC6", low.Layers[0].Layer)
	assert.InDelta(t, 3e-5, low.Layers[0].LatencyS, 1e-15, "unscaled")
	assert.Nil(t, low.Layers[0].PowerW)

	high := got["high"]
	assert.InDelta(t, 65.0, high.ProcessNM, 0)
	require.Len(t, high.Layers, 1)
	require.NotNil(t, high.Layers[0].PowerW)
	assert.InDelta(t, 0.2, *high.Layers[0].PowerW, 1e-15)
}

func TestWrongMethod(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/v1/estimate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	m, err := costmodel.Build(nil, costmodel.Inputs{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(m, slog.New(slog.NewTextHandler(io.Discard, nil))).ListenAndServe(ctx, "127.0.0.1:0")
	}()
	cancel()
	require.NoError(t, <-done)
}
