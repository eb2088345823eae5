package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

var vggKeys = []costmodel.LayerKey{
	costmodel.NewLayerKey("VGG16", "CONV1-1"),
	costmodel.NewLayerKey("VGG16", "CONV1-2"),
	costmodel.NewLayerKey("VGG16", "FC6"),
	costmodel.NewLayerKey("ALEX", "FC6"),
}

func TestLoadRunConfig_Lookup(t *testing.T) {
	c, err := LoadRunConfig(filepath.Join("testdata", "configs", "lookup.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "lookup", c.Name)
	assert.Equal(t, "vgg16", c.Net)

	specs, err := c.Specs(vggKeys)
	require.NoError(t, err)
	assert.Equal(t, []costmodel.LayerSpec{
		costmodel.Lookup{Network: "VGG16", Layer: "CONV1-1"},
		costmodel.Lookup{Network: "VGG16", Layer: "CONV1-2"},
		costmodel.Lookup{Network: "VGG16", Layer: "FC6"},
	}, specs)
}

func TestRunConfig_LookupAllLayers(t *testing.T) {
	specs, err := RunConfig{Net: "ALEX"}.Specs(vggKeys)
	require.NoError(t, err)
	assert.Equal(t, []costmodel.LayerSpec{costmodel.Lookup{Network: "ALEX", Layer: "FC6"}}, specs)

	_, err = RunConfig{Net: "RESNET"}.Specs(vggKeys)
	require.ErrorIs(t, err, costmodel.ErrConfiguration)
}

func TestRunConfig_LookupSubsetInvariant(t *testing.T) {
	specs, err := RunConfig{Net: "VGG16", Layers: []string{"conv1_1", "conv5_3"}}.Specs(vggKeys)
	require.ErrorIs(t, err, costmodel.ErrConfiguration)
	assert.Nil(t, specs)
}

func TestLoadRunConfig_Scale(t *testing.T) {
	c, err := LoadRunConfig(filepath.Join("testdata", "configs", "scale.json"))
	require.NoError(t, err)
	assert.Equal(t, "mynet-subset", c.Name)

	specs, err := c.Specs(nil)
	require.NoError(t, err)
	assert.Equal(t, []costmodel.LayerSpec{
		costmodel.Scale{Name: "MYNET/CONV1", Category: costmodel.Conv, MACs: 105415200},
		costmodel.Scale{Name: "MYNET/FC1", Category: costmodel.FC, MACs: 37748736},
		costmodel.Scale{Name: "MYNET/HEAD", Category: costmodel.FC, MACs: 4096},
	}, specs)
}

func TestRunConfig_ScaleErrors(t *testing.T) {
	macs := int64(10)
	n := Network{Name: "N", Records: []Record{
		{Name: "conv1", Type: "Convolution", MACs: &macs},
		{Name: "norm1", Type: "LRN"},
		{Name: "odd", Type: "LSTM", MACs: &macs},
	}}

	_, err := RunConfig{Stats: "x", Layers: []string{"norm1"}}.ScaleSpecs(n)
	require.ErrorIs(t, err, costmodel.ErrConfiguration, "layer without MACs")

	_, err = RunConfig{Stats: "x", Layers: []string{"odd"}}.ScaleSpecs(n)
	require.ErrorIs(t, err, costmodel.ErrUnknownCategory)

	specs, err := RunConfig{Stats: "x", Layers: []string{"CONV1"}}.ScaleSpecs(n)
	require.NoError(t, err)
	assert.Len(t, specs, 1)
}

func TestParseRunConfig_InlineRecords(t *testing.T) {
	c, err := ParseRunConfig([]byte(`
name: inline
records:
  - {name: conv_a, type: Convolution, macs: 1000}
  - {name: fc_a, category: fc, macs: 10}
`))
	require.NoError(t, err)

	specs, err := c.Specs(nil)
	require.NoError(t, err)
	assert.Equal(t, []costmodel.LayerSpec{
		costmodel.Scale{Name: "inline/CONV-A", Category: costmodel.Conv, MACs: 1000},
		costmodel.Scale{Name: "inline/FC-A", Category: costmodel.FC, MACs: 10},
	}, specs)
}

func TestRunConfig_Validate(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join("testdata", "configs", "bad.yaml"))
	require.ErrorIs(t, err, costmodel.ErrConfiguration)

	_, err = ParseRunConfig([]byte(`layers: [conv1]`))
	require.ErrorIs(t, err, costmodel.ErrConfiguration)

	_, err = ParseRunConfig([]byte(`net: [`))
	require.ErrorIs(t, err, costmodel.ErrConfiguration)
}
