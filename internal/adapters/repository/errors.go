package repository

import "errors"

// Sentinel kinds for report store errors.
var (
	ErrNotFound      = errors.New("report not found")
	ErrInvalidLimit  = errors.New("invalid list limit")
	ErrInvalidReport = errors.New("invalid report")
)
