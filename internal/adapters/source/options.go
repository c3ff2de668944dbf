package source

import (
	"net/http"
	"time"

	"github.com/okian/campwatch/pkg/logger"
)

// TwitterOption applies a configuration option to the TwitterSource.
type TwitterOption func(*TwitterSource)

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) TwitterOption {
	return func(s *TwitterSource) {
		if client != nil {
			s.client.Client = client
		}
	}
}

// WithHost overrides the API host, mainly for tests.
func WithHost(host string) TwitterOption {
	return func(s *TwitterSource) {
		if host != "" {
			s.client.Host = host
		}
	}
}

// WithPageDelay sets the pause between search result pages.
func WithPageDelay(delay time.Duration) TwitterOption {
	return func(s *TwitterSource) {
		if delay >= 0 {
			s.pageDelay = delay
		}
	}
}

// WithLogger sets a custom logger for the source.
func WithLogger(l logger.Logger) TwitterOption {
	return func(s *TwitterSource) {
		if l != nil {
			s.logger = l
		}
	}
}
