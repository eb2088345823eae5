package costmodel

import "github.com/ja7ad/fodlam/pkg/units"

// Source describes one published measurement dataset.
// Units:
//   - ProcessNM: nanometers (fabrication feature size)
//   - TimeUnit/PowerUnit: factor to seconds / watts of the published numbers
//   - DesignPower: design-wide power in PowerUnit, charged to every layer of a
//     source that publishes no per-layer power
type Source struct {
	Name        string
	ProcessNM   float64
	TimeUnit    units.Unit
	PowerUnit   units.Unit
	DesignPower float64
}

// Config holds the two calibration sources.
// Low is the less complete dataset and is scaled to High's process node;
// High wins on key collision.
type Config struct {
	Low  Source
	High Source
}

// _defaultConfig returns the EIE (low) and Eyeriss (high) calibration.
// Both designs were fabricated on TSMC processes.
func _defaultConfig() *Config {
	return &Config{
		Low: Source{
			Name:        "eie",
			ProcessNM:   45,
			TimeUnit:    units.Microsecond,
			PowerUnit:   units.Milliwatt,
			DesignPower: 590, // mW, whole design
		},
		High: Source{
			Name:      "eyeriss",
			ProcessNM: 65,
			TimeUnit:  units.Millisecond,
			PowerUnit: units.Milliwatt,
		},
	}
}

// DefaultConfig returns a copy of the built-in calibration.
func DefaultConfig() *Config { return _defaultConfig() }

// NewConfig returns the default calibration with fields of override applied.
// Notes:
//   - Name overrides when non-empty.
//   - ProcessNM/TimeUnit/PowerUnit must be > 0 to override defaults.
//   - DesignPower: zero is an intentional "no design power" only on High;
//     negative is treated as unset.
func NewConfig(override *Config) *Config {
	base := _defaultConfig()
	if override == nil {
		return base
	}

	merged := *base
	merged.Low = mergeSource(base.Low, override.Low)
	merged.High = mergeSource(base.High, override.High)
	if override.Low.DesignPower > 0 {
		merged.Low.DesignPower = override.Low.DesignPower
	}
	if override.High.DesignPower >= 0 {
		merged.High.DesignPower = override.High.DesignPower
	}
	return &merged
}

func mergeSource(base, o Source) Source {
	if o.Name != "" {
		base.Name = o.Name
	}
	if o.ProcessNM > 0 {
		base.ProcessNM = o.ProcessNM
	}
	if o.TimeUnit > 0 {
		base.TimeUnit = o.TimeUnit
	}
	if o.PowerUnit > 0 {
		base.PowerUnit = o.PowerUnit
	}
	return base
}

// ProcessScale is the linear feature-size factor High.ProcessNM / Low.ProcessNM.
// Latency scales by it, power by its square.
func (c *Config) ProcessScale() float64 {
	return c.High.ProcessNM / c.Low.ProcessNM
}
