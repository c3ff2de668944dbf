package source

import "errors"

// Sentinel kinds for acquisition errors.
var (
	ErrFetch         = errors.New("fetch failed")
	ErrBadRecord     = errors.New("malformed record")
	ErrNoBearerToken = errors.New("missing bearer token")
)
