package baseline

import "errors"

var (
	// ErrBaselineNotFound is returned when a baseline id does not resolve.
	ErrBaselineNotFound = errors.New("baseline not found")

	// ErrBaselineExists is returned when a profile already has a baseline.
	ErrBaselineExists = errors.New("baseline already exists for profile")

	// ErrInvalidBaselineType is returned when baseline_type is outside the closed set.
	ErrInvalidBaselineType = errors.New("invalid baseline type")

	// ErrDescriptionRejected is returned when a description fails length or
	// content-boundary validation.
	ErrDescriptionRejected = errors.New("description rejected")
)
