package profile

import "errors"

// ErrInsufficientData is returned when fewer than min_sample_size runs
// fall within the requested window.
var ErrInsufficientData = errors.New("insufficient data")
