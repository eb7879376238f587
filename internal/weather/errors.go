package weather

import "errors"

var (
	// ErrNetwork indicates a transport-level failure reaching the remote API.
	ErrNetwork = errors.New("network error")

	// ErrInvalidFormat indicates a response that is not the expected JSON shape.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrEmptyResult indicates a response whose results array is empty.
	ErrEmptyResult = errors.New("empty results")
)
