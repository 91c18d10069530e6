package service

import "errors"

// ErrInvalidInput marks requests rejected before any store call. Store and
// not-found errors propagate from the repository layer unchanged.
var ErrInvalidInput = errors.New("invalid input")
