package errors

import "errors"

var (
	ErrNotFound = errors.New("business profile not found")

	ErrInvalidID = errors.New("invalid business profile ID format")
)
