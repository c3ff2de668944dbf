// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Serve keeps the process running as an HTTP service instead of a
	// one-shot analysis.
	Serve bool `koanf:"serve"`

	// Query is the recent-search query submitted to the data source.
	Query string `koanf:"query"`

	// Lang optionally restricts fetched posts to a language code.
	Lang string `koanf:"lang"`

	// Minutes is the local recency window applied to fetched posts.
	Minutes int `koanf:"minutes"`

	// MaxResults caps the number of fetched posts per analysis.
	MaxResults int `koanf:"max_results"`

	// SimilarityThreshold is the near-duplicate cosine cutoff in [0,1].
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// OutDir is where one-shot runs write their CSV artifacts.
	OutDir string `koanf:"out_dir"`

	// SamplePath, when set, analyzes a local JSONL file instead of
	// calling the data source.
	SamplePath string `koanf:"sample_path"`

	// BearerToken authenticates against the Twitter API. Falls back to
	// TWITTER_BEARER_TOKEN at startup when empty.
	BearerToken string `koanf:"bearer_token"`

	// JobQueueSize bounds the in-memory analysis job queue.
	JobQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ReportStoreSize caps how many reports the in-memory store keeps.
	ReportStoreSize int `koanf:"report_store_size"`

	// MaxListLimit caps GET /analyses?limit.
	MaxListLimit int `koanf:"max_list_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		Serve:               false,
		Minutes:             180,
		MaxResults:          200,
		SimilarityThreshold: 0.8,
		OutDir:              "output",
		JobQueueSize:        1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          10_000,
		ReportStoreSize:     100,
		MaxListLimit:        100,
	}
}
