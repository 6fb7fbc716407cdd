package errors

import "errors"

var ErrSessionNotFound = errors.New("wizard session not found or expired")
