package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrExport    = errors.New("export failed")
	ErrNilReport = errors.New("nil report")
)
