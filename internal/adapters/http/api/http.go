// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/campwatch/internal/domain/dedupe"
	"github.com/okian/campwatch/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a job for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, job model.Job) bool

	// NewJob builds a submission with a fresh id and defaulted thresholds.
	NewJob(q model.Query) model.Job

	// Read operations expose stored reports.
	GetReport(ctx context.Context, runID string) (*model.Report, error)
	ListReports(ctx context.Context, limit int) ([]model.ReportMeta, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	analysesHandler *AnalysesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		analysesHandler: NewAnalysesHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxListLimit caps the limit parameter of GET /analyses.
func WithMaxListLimit(limit int) ServerOption {
	return func(s *Server) {
		if limit > 0 {
			s.analysesHandler.maxListLimit = limit
		}
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyses", MetricsMiddleware(s.analysesHandler.HandleCollection, "analyses"))
	mux.HandleFunc("/analyses/", MetricsMiddleware(s.analysesHandler.HandleItem, "analyses_item"))
}

// analysisRequest mirrors the request schema for POST /analyses.
type analysisRequest struct {
	RequestID  string  `json:"request_id"`
	Query      string  `json:"query"`
	Lang       string  `json:"lang"`
	Minutes    int     `json:"minutes"`
	MaxResults int     `json:"max_results"`
	Threshold  float64 `json:"similarity_threshold"`
}

func (a analysisRequest) validate() error {
	switch {
	case strings.TrimSpace(a.Query) == "":
		return errors.New("missing query")
	case a.Minutes < 0:
		return errors.New("minutes must not be negative")
	case a.MaxResults < 0:
		return errors.New("max_results must not be negative")
	case a.Threshold < 0 || a.Threshold > 1:
		return errors.New("similarity_threshold must be in [0,1]")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	RunID     string `json:"run_id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func newKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

func wrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}
