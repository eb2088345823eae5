// Package dataset reads the published measurement tables, the per-network
// MAC statistics and run configurations from disk.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

// Column and row names of the published tables.
const (
	ColLayer             = "Layer"
	ColTotalLatency      = "Total Latency (ms)"
	ColProcessingLatency = "Processing Latency (ms)"
	ColPower             = "Power (mW)"

	RowActualTime = "Actual Time"
	RowTotal      = "Total"
)

// LatencyKind selects which latency column of the high-fidelity table is used.
type LatencyKind string

// Latency kinds.
const (
	TotalLatency      LatencyKind = "total"
	ProcessingLatency LatencyKind = "processing"
)

// ParseLatencyKind accepts "total" or "processing"; empty means total.
func ParseLatencyKind(s string) (LatencyKind, error) {
	switch k := LatencyKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", TotalLatency:
		return TotalLatency, nil
	case ProcessingLatency:
		return k, nil
	}
	return "", fmt.Errorf("%w: latency kind %q", ErrMalformedRecord, s)
}

func (k LatencyKind) column() string {
	if k == ProcessingLatency {
		return ColProcessingLatency
	}
	return ColTotalLatency
}

// LoadLowFidelity reads a latency-only table. The header is "Layer" followed
// by one "<NETWORK> <LAYER>" column per layer; the "Actual Time" row holds
// the latencies. Empty cells are skipped.
func LoadLowFidelity(r io.Reader) (costmodel.RawMeasurements, error) {
	records, err := readAll(r)
	if err != nil {
		return costmodel.RawMeasurements{}, err
	}
	if len(records) == 0 {
		return costmodel.RawMeasurements{}, fmt.Errorf("%w: empty table", ErrNoLatencyRow)
	}

	header := records[0]
	layerCol, err := columnIndex(header, ColLayer)
	if err != nil {
		return costmodel.RawMeasurements{}, err
	}

	for _, record := range records[1:] {
		if record[layerCol] != RowActualTime {
			continue
		}
		latency := make(map[costmodel.LayerKey]float64)
		for i, name := range header {
			if i == layerCol || record[i] == "" {
				continue
			}
			fields := strings.Fields(name)
			if len(fields) != 2 {
				return costmodel.RawMeasurements{}, fmt.Errorf("%w: column %q is not \"<NETWORK> <LAYER>\"",
					ErrMalformedRecord, name)
			}
			v, err := parseValue(record[i], name)
			if err != nil {
				return costmodel.RawMeasurements{}, err
			}
			latency[costmodel.NewLayerKey(fields[0], fields[1])] = v
		}
		return costmodel.RawMeasurements{Latency: latency}, nil
	}

	return costmodel.RawMeasurements{}, fmt.Errorf("%w: no %q row", ErrNoLatencyRow, RowActualTime)
}

// LoadHighFidelity reads a per-layer table of one network with latency and
// power columns. The "Total" row is skipped.
func LoadHighFidelity(r io.Reader, network string, kind LatencyKind) (costmodel.RawMeasurements, error) {
	records, err := readAll(r)
	if err != nil {
		return costmodel.RawMeasurements{}, err
	}
	if len(records) == 0 {
		return costmodel.RawMeasurements{}, fmt.Errorf("%w: empty table", ErrMissingColumn)
	}

	header := records[0]
	layerCol, err := columnIndex(header, ColLayer)
	if err != nil {
		return costmodel.RawMeasurements{}, err
	}
	latCol, err := columnIndex(header, kind.column())
	if err != nil {
		return costmodel.RawMeasurements{}, err
	}
	powCol, err := columnIndex(header, ColPower)
	if err != nil {
		return costmodel.RawMeasurements{}, err
	}

	raw := costmodel.RawMeasurements{
		Latency: make(map[costmodel.LayerKey]float64, len(records)-1),
		Power:   make(map[costmodel.LayerKey]float64, len(records)-1),
	}
	for _, record := range records[1:] {
		layer := record[layerCol]
		if layer == RowTotal || layer == "" {
			continue
		}
		key := costmodel.NewLayerKey(network, layer)

		if raw.Latency[key], err = parseValue(record[latCol], layer); err != nil {
			return costmodel.RawMeasurements{}, err
		}
		if raw.Power[key], err = parseValue(record[powCol], layer); err != nil {
			return costmodel.RawMeasurements{}, err
		}
	}
	return raw, nil
}

// LoadLowFidelityFile opens path and calls LoadLowFidelity.
func LoadLowFidelityFile(path string) (costmodel.RawMeasurements, error) {
	var raw costmodel.RawMeasurements
	err := withFile(path, func(f io.Reader) error {
		var err error
		raw, err = LoadLowFidelity(f)
		return err
	})
	return raw, err
}

// LoadHighFidelityFile opens path and calls LoadHighFidelity.
func LoadHighFidelityFile(path, network string, kind LatencyKind) (costmodel.RawMeasurements, error) {
	var raw costmodel.RawMeasurements
	err := withFile(path, func(f io.Reader) error {
		var err error
		raw, err = LoadHighFidelity(f, network, kind)
		return err
	})
	return raw, err
}

func withFile(path string, fn func(io.Reader) error) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	f, err := os.Open(absPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func readAll(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = ','
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return records, nil
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

func parseValue(s, what string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q", ErrMalformedRecord, what, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s: negative value %v", ErrMalformedRecord, what, v)
	}
	return v, nil
}
