// Package repository defines the report store interface and errors.
package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMaxReports bounds how many reports the store keeps before evicting
// the oldest. Zero or negative means unbounded.
func WithMaxReports(n int) Option {
	return func(s *MemStore) {
		s.maxReports = n
	}
}
