package units

import "errors"

// ErrUnknownUnit indicates a unit symbol that has no known conversion factor.
var ErrUnknownUnit = errors.New("units: unknown unit")
