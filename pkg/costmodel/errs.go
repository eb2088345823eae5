package costmodel

import "errors"

var (
	// ErrConfiguration indicates that a run configuration asks for a layer the
	// dataset it names does not contain, or carries an invalid entry.
	ErrConfiguration = errors.New("costmodel: configuration error")

	// ErrUnknownLayer indicates a Lookup spec whose key is absent from the
	// merged cost tables.
	ErrUnknownLayer = errors.New("costmodel: unknown layer")

	// ErrUnknownCategory indicates a layer name, type or category that maps to
	// neither conv nor fc.
	ErrUnknownCategory = errors.New("costmodel: unknown layer category")

	// ErrIncompleteCostData indicates inconsistent latency/power/MAC key sets,
	// or a category with no calibration layers.
	ErrIncompleteCostData = errors.New("costmodel: incomplete cost data")
)
