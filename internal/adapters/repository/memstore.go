package repository

import (
	"context"
	"sync"

	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/pkg/metrics"
)

// defaultMaxReports bounds the store when no option overrides it.
const defaultMaxReports = 100

// MemStore is an in-memory, bounded report store. Reports are kept in
// insertion order; when the bound is reached the oldest report is evicted.
type MemStore struct {
	mu         sync.RWMutex
	reports    map[string]*model.Report
	order      []string
	maxReports int
}

// NewMemStore creates a bounded in-memory report store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		reports:    make(map[string]*model.Report),
		maxReports: defaultMaxReports,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a report, evicting the oldest one when full. Saving a report
// with a run id that already exists overwrites it in place.
func (s *MemStore) Save(ctx context.Context, report *model.Report) error {
	if report == nil || report.RunID == "" {
		return ErrInvalidReport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[report.RunID]; ok {
		s.reports[report.RunID] = report
		return nil
	}

	if s.maxReports > 0 && len(s.order) >= s.maxReports {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.reports, oldest)
	}

	s.reports[report.RunID] = report
	s.order = append(s.order, report.RunID)
	metrics.UpdateReportsStored(len(s.order))
	return nil
}

// Get returns the report for a run id.
func (s *MemStore) Get(ctx context.Context, runID string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return report, nil
}

// List returns up to limit report summaries, newest first.
func (s *MemStore) List(ctx context.Context, limit int) ([]model.ReportMeta, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > n {
		limit = n
	}
	metas := make([]model.ReportMeta, 0, limit)
	for i := n - 1; i >= 0 && len(metas) < limit; i-- {
		metas = append(metas, s.reports[s.order[i]].Meta())
	}
	return metas, nil
}

// Count returns the number of reports currently held.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
