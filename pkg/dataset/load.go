package dataset

import (
	"path/filepath"

	"github.com/ja7ad/fodlam/pkg/costmodel"
)

// Default file names inside a data directory.
const (
	DefaultLowFile     = "eie-layers.csv"
	DefaultHighFile    = "eyeriss-vgg16.csv"
	DefaultHighNetwork = "VGG16"
	DefaultNetsDir     = "nets"
)

// Paths locates the inputs of one model.
type Paths struct {
	LowFile     string
	HighFile    string
	HighNetwork string
	LatencyKind LatencyKind
	// NetsDir holds one extractor JSON per network. A missing directory
	// leaves the model without MAC statistics.
	NetsDir string
}

// DefaultPaths returns the standard layout under dataDir.
func DefaultPaths(dataDir string) Paths {
	return Paths{
		LowFile:     filepath.Join(dataDir, DefaultLowFile),
		HighFile:    filepath.Join(dataDir, DefaultHighFile),
		HighNetwork: DefaultHighNetwork,
		LatencyKind: TotalLatency,
		NetsDir:     DefaultNetsDir,
	}
}

// LoadInputs reads both measurement tables and every network statistics
// file.
func LoadInputs(p Paths) (costmodel.Inputs, []Network, error) {
	low, err := LoadLowFidelityFile(p.LowFile)
	if err != nil {
		return costmodel.Inputs{}, nil, err
	}
	network := p.HighNetwork
	if network == "" {
		network = DefaultHighNetwork
	}
	high, err := LoadHighFidelityFile(p.HighFile, network, p.LatencyKind)
	if err != nil {
		return costmodel.Inputs{}, nil, err
	}

	in := costmodel.Inputs{Low: low, High: high}
	if p.NetsDir == "" || !fileExists(p.NetsDir) {
		return in, nil, nil
	}

	nets, err := LoadNetworkDir(p.NetsDir)
	if err != nil {
		return costmodel.Inputs{}, nil, err
	}
	if in.Stats, err = MergeStats(nets); err != nil {
		return costmodel.Inputs{}, nil, err
	}
	return in, nets, nil
}
