// Package httphandler serves the JSON API for cycle results and archived vote records.
package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
)

const (
	defaultRecordLimit = 20
	maxRecordLimit     = 200
)

// CycleRunner is the subset of the poll service the API drives.
type CycleRunner interface {
	LatestCycle() (model.CycleResult, bool)
	TriggerCycle(ctx context.Context) (model.CycleResult, error)
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	cycles       CycleRunner
	records      driven.VoteRecordStore
	repoFullName string
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	cycles CycleRunner,
	records driven.VoteRecordStore,
	repoFullName string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		cycles:       cycles,
		records:      records,
		repoFullName: repoFullName,
		logger:       logger,
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/cycles/latest", h.LatestCycle)
	mux.HandleFunc("POST /api/v1/cycles", h.TriggerCycle)
	mux.HandleFunc("GET /api/v1/records", h.ListRecords)
	mux.HandleFunc("GET /api/v1/records/{number}", h.ListRecordsByRequest)
}

// NewServeMux creates an http.Handler with the API routes and any extra
// route registrations, wrapped with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger, extra ...func(*http.ServeMux)) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)
	for _, register := range extra {
		register(mux)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Repository: h.repoFullName,
		Time:       time.Now().UTC().Format(time.RFC3339),
	})
}

// LatestCycle returns the most recently completed cycle, or 404 before the first one.
func (h *Handler) LatestCycle(w http.ResponseWriter, _ *http.Request) {
	result, ok := h.cycles.LatestCycle()
	if !ok {
		writeError(w, http.StatusNotFound, "no cycle has completed yet")
		return
	}

	writeJSON(w, http.StatusOK, toCycleResponse(result))
}

// TriggerCycle runs a cycle immediately and returns its result once it completes.
func (h *Handler) TriggerCycle(w http.ResponseWriter, r *http.Request) {
	result, err := h.cycles.TriggerCycle(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, "cycle did not complete")
			return
		}
		h.logger.Error("manual cycle failed", "repo", h.repoFullName, "error", err)
		writeError(w, http.StatusBadGateway, "cycle failed")
		return
	}

	writeJSON(w, http.StatusOK, toCycleResponse(result))
}

// ListRecords returns the most recent vote records, newest first.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecordLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecordLimit)
	}

	records, err := h.records.ListRecent(r.Context(), h.repoFullName, limit)
	if err != nil {
		h.logger.Error("failed to list vote records", "repo", h.repoFullName, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponses(records))
}

// ListRecordsByRequest returns every vote record for one request.
func (h *Handler) ListRecordsByRequest(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid PR number")
		return
	}

	records, err := h.records.ListByRequest(r.Context(), h.repoFullName, number)
	if err != nil {
		h.logger.Error("failed to list vote records", "repo", h.repoFullName, "pr", number, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "no vote records for this pull request")
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponses(records))
}
