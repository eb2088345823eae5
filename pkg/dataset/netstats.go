package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

// Record is one layer as emitted by the network extractor, in execution
// order. Non-compute layers carry no MACs.
type Record struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type,omitempty" yaml:"type"`
	Category string `json:"category,omitempty" yaml:"category"`
	MACs     *int64 `json:"macs,omitempty" yaml:"macs"`
}

// Network is the extractor output of one network.
type Network struct {
	Name    string
	Records []Record
}

// LayerCategory resolves the record's category: an explicit category first, then
// the extractor type, then the layer-name prefix.
func (r Record) LayerCategory() (costmodel.Category, error) {
	if r.Category != "" {
		return costmodel.ParseCategory(r.Category)
	}
	if r.Type != "" {
		if c, err := costmodel.CategoryFromType(r.Type); err == nil {
			return c, nil
		}
	}
	return costmodel.CategoryFromName(r.Name)
}

// Stats returns the NetStats of every record with a MAC count.
func (n Network) Stats() (costmodel.NetStats, error) {
	stats := make(costmodel.NetStats, len(n.Records))
	for _, r := range n.Records {
		if r.MACs == nil {
			continue
		}
		if *r.MACs <= 0 {
			return nil, fmt.Errorf("%w: %s/%s: MAC count %d", ErrMalformedRecord, n.Name, r.Name, *r.MACs)
		}
		c, err := r.LayerCategory()
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", n.Name, r.Name, err)
		}
		key := costmodel.NewLayerKey(n.Name, r.Name)
		if _, dup := stats[key]; dup {
			return nil, fmt.Errorf("%w: duplicate layer %s", ErrMalformedRecord, key)
		}
		stats[key] = costmodel.LayerStat{Category: c, MACs: *r.MACs}
	}
	return stats, nil
}

// LoadNetwork decodes an extractor JSON array.
func LoadNetwork(r io.Reader, name string) (Network, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return Network{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return Network{Name: name, Records: records}, nil
}

// NetworkName derives a network name from a statistics file path:
// "nets/vgg16.json" is "VGG16".
func NetworkName(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

// LoadNetworkFile reads one statistics file. An empty name is derived from
// the path.
func LoadNetworkFile(path, name string) (Network, error) {
	if name == "" {
		name = NetworkName(path)
	}
	var n Network
	err := withFile(path, func(f io.Reader) error {
		var err error
		n, err = LoadNetwork(f, name)
		return err
	})
	return n, err
}

// LoadNetworkDir reads every *.json statistics file in dir, sorted by name.
func LoadNetworkDir(dir string) ([]Network, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	nets := make([]Network, 0, len(paths))
	for _, p := range paths {
		n, err := LoadNetworkFile(p, "")
		if err != nil {
			return nil, err
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// MergeStats combines the stats of several networks.
func MergeStats(nets []Network) (costmodel.NetStats, error) {
	all := make(costmodel.NetStats)
	for _, n := range nets {
		stats, err := n.Stats()
		if err != nil {
			return nil, err
		}
		for k, v := range stats {
			if _, dup := all[k]; dup {
				return nil, fmt.Errorf("%w: duplicate layer %s", ErrMalformedRecord, k)
			}
			all[k] = v
		}
	}
	return all, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
