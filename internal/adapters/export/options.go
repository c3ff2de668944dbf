package export

import "github.com/okian/campwatch/pkg/logger"

// Option applies a configuration option to the CSVExporter.
type Option func(*CSVExporter)

// WithLogger sets a custom logger for the exporter.
func WithLogger(l logger.Logger) Option {
	return func(e *CSVExporter) {
		if l != nil {
			e.logger = l
		}
	}
}
