package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

// RunConfig selects the layers one estimate covers. Exactly one of Net
// (exact lookups into the published tables) or Stats/Records (MAC scaling
// from extractor output) is set. Empty Layers means every available layer.
type RunConfig struct {
	Name    string   `yaml:"name" json:"name"`
	Net     string   `yaml:"net" json:"net,omitempty"`
	Stats   string   `yaml:"stats" json:"stats,omitempty"`
	Records []Record `yaml:"records" json:"records,omitempty"`
	Layers  []string `yaml:"layers" json:"layers"`

	dir string
}

// ParseRunConfig decodes a YAML or JSON run configuration.
func ParseRunConfig(data []byte) (RunConfig, error) {
	var c RunConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return RunConfig{}, fmt.Errorf("%w: %v", costmodel.ErrConfiguration, err)
	}
	return c, c.Validate()
}

// LoadRunConfig reads path. A relative Stats path is resolved against the
// configuration's directory; an empty Name defaults to the file name.
func LoadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, err
	}
	c, err := ParseRunConfig(data)
	if err != nil {
		return RunConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	c.dir = filepath.Dir(path)
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}

// Validate checks that exactly one layer source is named.
func (c RunConfig) Validate() error {
	n := 0
	if c.Net != "" {
		n++
	}
	if c.Stats != "" {
		n++
	}
	if len(c.Records) > 0 {
		n++
	}
	if n != 1 {
		return fmt.Errorf("%w: exactly one of net, stats or records must be set", costmodel.ErrConfiguration)
	}
	return nil
}

// Specs builds the layer specs. available are the keys with exact costs and
// back Net configurations.
func (c RunConfig) Specs(available []costmodel.LayerKey) ([]costmodel.LayerSpec, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch {
	case c.Net != "":
		return c.lookupSpecs(available)
	case len(c.Records) > 0:
		return c.ScaleSpecs(Network{Name: c.Name, Records: c.Records})
	default:
		path := c.Stats
		if !filepath.IsAbs(path) && c.dir != "" {
			path = filepath.Join(c.dir, path)
		}
		n, err := LoadNetworkFile(path, "")
		if err != nil {
			return nil, err
		}
		return c.ScaleSpecs(n)
	}
}

func (c RunConfig) lookupSpecs(available []costmodel.LayerKey) ([]costmodel.LayerSpec, error) {
	net := costmodel.NewLayerKey(c.Net, "").Network
	var inNet []costmodel.LayerKey
	for _, k := range available {
		if k.Network == net {
			inNet = append(inNet, k)
		}
	}

	if len(c.Layers) == 0 {
		if len(inNet) == 0 {
			return nil, fmt.Errorf("%w: network %q has no published layers", costmodel.ErrConfiguration, c.Net)
		}
		specs := make([]costmodel.LayerSpec, 0, len(inNet))
		for _, k := range inNet {
			specs = append(specs, costmodel.Lookup{Network: k.Network, Layer: k.Layer})
		}
		return specs, nil
	}

	var missing []string
	specs := make([]costmodel.LayerSpec, 0, len(c.Layers))
	for _, layer := range c.Layers {
		k := costmodel.NewLayerKey(c.Net, layer)
		if !slices.Contains(inNet, k) {
			missing = append(missing, k.Layer)
			continue
		}
		specs = append(specs, costmodel.Lookup{Network: k.Network, Layer: k.Layer})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: layers %v not in network %q", costmodel.ErrConfiguration, missing, c.Net)
	}
	return specs, nil
}

// ScaleSpecs builds Scale specs from n for the configured layers. Every
// requested layer must exist in n with a MAC count.
func (c RunConfig) ScaleSpecs(n Network) ([]costmodel.LayerSpec, error) {
	byName := make(map[string]Record, len(n.Records))
	var order []string
	for _, r := range n.Records {
		if r.MACs == nil {
			continue
		}
		name := costmodel.NormalizeLayerName(r.Name)
		byName[name] = r
		order = append(order, name)
	}

	layers := c.Layers
	if len(layers) == 0 {
		layers = order
	}

	var missing []string
	specs := make([]costmodel.LayerSpec, 0, len(layers))
	for _, layer := range layers {
		name := costmodel.NormalizeLayerName(layer)
		r, ok := byName[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if *r.MACs <= 0 {
			return nil, fmt.Errorf("%w: %s: MAC count %d", costmodel.ErrConfiguration, name, *r.MACs)
		}
		cat, err := r.LayerCategory()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		specs = append(specs, costmodel.Scale{
			Name:     n.Name + "/" + name,
			Category: cat,
			MACs:     *r.MACs,
		})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: layers %v have no MAC count in %q", costmodel.ErrConfiguration, missing, n.Name)
	}
	return specs, nil
}
