// Package units converts published measurement values into SI units and
// carries the resulting quantities as typed floats.
package units

import (
	"fmt"
	"strings"
)

// Unit is a multiplicative factor that maps a raw value to its SI base unit
// (seconds for time, watts for power).
type Unit float64

// Time units.
const (
	Second      Unit = 1
	Millisecond Unit = 1e-3
	Microsecond Unit = 1e-6
	Nanosecond  Unit = 1e-9
)

// Power units.
const (
	Watt      Unit = 1
	Milliwatt Unit = 1e-3
	Microwatt Unit = 1e-6
)

// Normalize returns v expressed in the SI base unit.
func (u Unit) Normalize(v float64) float64 { return v * float64(u) }

// Denormalize is the inverse of Normalize.
func (u Unit) Denormalize(v float64) float64 { return v / float64(u) }

// ParseUnit maps a unit symbol as it appears in published tables
// ("us", "ms", "mW", ...) to its Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.TrimSpace(s) {
	case "s", "sec":
		return Second, nil
	case "ms":
		return Millisecond, nil
	case "us", "µs":
		return Microsecond, nil
	case "ns":
		return Nanosecond, nil
	case "W", "w":
		return Watt, nil
	case "mW", "mw":
		return Milliwatt, nil
	case "uW", "µW", "uw":
		return Microwatt, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// Seconds is a latency in seconds.
type Seconds float64

// Watts is a power in watts.
type Watts float64

// Joules is an energy in joules.
type Joules float64

// Energy returns the energy spent drawing p for duration s.
func (s Seconds) Energy(p Watts) Joules { return Joules(float64(s) * float64(p)) }

// Humanized returns a human-readable string with an automatic prefix (s, ms, us, ns).
func (s Seconds) Humanized() string { return humanize(float64(s), "s") }

// Humanized returns a human-readable string with an automatic prefix (W, mW, uW).
func (w Watts) Humanized() string { return humanize(float64(w), "W") }

// Humanized returns a human-readable string with an automatic prefix (J, mJ, uJ, nJ).
func (j Joules) Humanized() string { return humanize(float64(j), "J") }

func humanize(v float64, sym string) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs == 0:
		return fmt.Sprintf("0 %s", sym)
	case abs >= 1:
		return fmt.Sprintf("%.3f %s", v, sym)
	case abs >= 1e-3:
		return fmt.Sprintf("%.3f m%s", v*1e3, sym)
	case abs >= 1e-6:
		return fmt.Sprintf("%.3f u%s", v*1e6, sym)
	default:
		return fmt.Sprintf("%.3f n%s", v*1e9, sym)
	}
}
