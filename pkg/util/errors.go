package util

import "errors"

var (
	// ErrInvalidConfiguration is returned when a computation or a box is
	// configured with invalid parameters (non-positive lengths or bin
	// widths, wrong parity of an angular order, negative thresholds).
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrShapeMismatch is returned when arrays given to a computation don't
	// have the expected length.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDegenerateQuery is returned when a neighbor query asks for zero
	// neighbors or uses a non-positive cutoff.
	ErrDegenerateQuery = errors.New("degenerate query")
)
