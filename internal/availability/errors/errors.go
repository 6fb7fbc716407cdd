package errors

import "errors"

var (
	ErrRuleNotFound = errors.New("availability rule not found")

	ErrBlockedDateNotFound = errors.New("blocked date not found")

	ErrInvalidID = errors.New("invalid availability rule ID format")

	// ErrResolutionFailed wraps a store failure while resolving slots. It is distinct from an
	// empty result.
	ErrResolutionFailed = errors.New("availability resolution failed")

	// ErrAborted means the caller went away or superseded the request before resolution finished.
	ErrAborted = errors.New("availability resolution aborted")

	ErrInvalidRequest = errors.New("invalid availability request")
)
