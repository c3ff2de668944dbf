// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/campwatch/internal/adapters/repository"
	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/pkg/logger"
)

const (
	// maxBodyBytes bounds the request body size for POST /analyses.
	maxBodyBytes = 1 << 20

	defaultListLimit = 20
)

// AnalysesHandler handles analysis submission and retrieval requests.
type AnalysesHandler struct {
	deps         Dependencies
	maxListLimit int
}

// NewAnalysesHandler creates a new analyses handler.
func NewAnalysesHandler(deps Dependencies) *AnalysesHandler {
	return &AnalysesHandler{
		deps:         deps,
		maxListLimit: 100,
	}
}

// HandleCollection handles POST /analyses (submit) and GET /analyses (list).
func (h *AnalysesHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *AnalysesHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "submit analysis"

	var req analysisRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}

	job := h.deps.NewJob(model.Query{
		Text:       req.Query,
		Lang:       req.Lang,
		Minutes:    req.Minutes,
		MaxResults: req.MaxResults,
		Threshold:  req.Threshold,
	})
	// A client-supplied request id makes resubmissions detectable.
	if id := strings.TrimSpace(req.RequestID); id != "" {
		job.ID = id
	}

	if h.deps.SeenAndRecord(ctx, job.ID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", RunID: job.ID, Duplicate: true})
		return
	}

	if !h.deps.Enqueue(ctx, job) {
		// Unrecord so the client can retry the same id once the queue drains.
		h.deps.Unrecord(ctx, job.ID)
		writeError(w, http.StatusServiceUnavailable, "backpressure", newKind(op, ErrBackpressure))
		return
	}

	logger.Get().Named("api").Info(ctx, "analysis accepted",
		logger.String("runID", job.ID),
		logger.String("query", job.Query.Text),
	)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", RunID: job.ID})
}

func (h *AnalysesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "list analyses"

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", newKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	if limit > h.maxListLimit {
		limit = h.maxListLimit
	}

	metas, err := h.deps.ListReports(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if metas == nil {
		metas = []model.ReportMeta{}
	}
	writeJSON(w, http.StatusOK, metas)
}

// HandleItem handles GET /analyses/{id} and GET /analyses/{id}/summary.
func (h *AnalysesHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	ctx := r.Context()
	const op = "get analysis"

	rest := strings.TrimPrefix(r.URL.Path, "/analyses/")
	runID, remainder, _ := strings.Cut(rest, "/")
	if runID == "" || (remainder != "" && remainder != "summary") {
		writeError(w, http.StatusNotFound, "not_found", newKind(op, ErrNotFound))
		return
	}

	report, err := h.deps.GetReport(ctx, runID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	if remainder == "summary" {
		writeJSON(w, http.StatusOK, report.Summary)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
