package api

import "errors"

// Sentinel kinds for HTTP handler errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("queue full")
	ErrNotFound     = errors.New("not found")
)
