package errors

import "errors"

var (
	ErrNotFound = errors.New("mentor profile not found")

	ErrInvalidID = errors.New("invalid mentor ID format")
)
