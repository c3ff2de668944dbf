// Package source defines the data acquisition contract and its adapters.
//
// A Source delivers the raw record batch for one analysis. Acquisition
// failure is fatal to the invocation; callers surface it, they do not retry.
package source

import (
	"context"

	"github.com/okian/campwatch/internal/domain/model"
)

// Source acquires the raw records for a query.
type Source interface {
	Fetch(ctx context.Context, q model.Query) ([]model.RawRecord, error)
}
