package dataset

import "errors"

var (
	// ErrMissingColumn indicates a CSV header without a required column.
	ErrMissingColumn = errors.New("dataset: missing column")

	// ErrMalformedRecord indicates a field that could not be parsed.
	ErrMalformedRecord = errors.New("dataset: malformed record")

	// ErrNoLatencyRow indicates a low-fidelity table without its latency row.
	ErrNoLatencyRow = errors.New("dataset: no latency row")
)
