package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means the booking left the expected status before a conditional update.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrTimeConflict = errors.New("booking time conflicts with existing booking")
)
