package costmodel

import (
	"fmt"
	"strings"
)

// LayerKey identifies one layer of one network across all cost tables.
// Build keys with NewLayerKey so names from different sources collide.
type LayerKey struct {
	Network string
	Layer   string
}

// NewLayerKey returns the key for layer of network. The network name is
// upper-cased and the layer name normalized.
func NewLayerKey(network, layer string) LayerKey {
	return LayerKey{
		Network: strings.ToUpper(strings.TrimSpace(network)),
		Layer:   NormalizeLayerName(layer),
	}
}

// NormalizeLayerName upper-cases name and maps underscores to hyphens, so
// "conv1_1" and "CONV1-1" are the same layer.
func NormalizeLayerName(name string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(name)), "_", "-")
}

func (k LayerKey) String() string { return k.Network + "/" + k.Layer }

// Less orders keys by network, then layer.
func (k LayerKey) Less(o LayerKey) bool {
	if k.Network != o.Network {
		return k.Network < o.Network
	}
	return k.Layer < o.Layer
}

// Category is the scaling class of a layer.
type Category string

// The two layer categories. No other value is valid.
const (
	Conv Category = "conv"
	FC   Category = "fc"
)

// Categories lists every category in report order.
var Categories = []Category{Conv, FC}

// Valid reports whether c is conv or fc.
func (c Category) Valid() bool { return c == Conv || c == FC }

// ParseCategory accepts "conv" or "fc" in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// CategoryFromName derives the category from the layer-name prefix
// convention: CONV* is conv, FC* is fc.
func CategoryFromName(layer string) (Category, error) {
	n := NormalizeLayerName(layer)
	switch {
	case strings.HasPrefix(n, "CONV"):
		return Conv, nil
	case strings.HasPrefix(n, "FC"):
		return FC, nil
	}
	return "", fmt.Errorf("%w: layer %q", ErrUnknownCategory, layer)
}

// extractorTypes maps network-extractor layer types to categories.
var extractorTypes = map[string]Category{
	"Convolution":   Conv,
	"Deconvolution": Conv,
	"InnerProduct":  FC,
}

// CategoryFromType maps a layer type emitted by the network extractor.
func CategoryFromType(typ string) (Category, error) {
	if c, ok := extractorTypes[strings.TrimSpace(typ)]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: type %q", ErrUnknownCategory, typ)
}
