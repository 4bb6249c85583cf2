// Package web implements the HTML dashboard driving adapter using html/template.
package web

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	vm "github.com/ericfisherdev/mergevote/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/mergevote/internal/domain/model"
	"github.com/ericfisherdev/mergevote/internal/domain/port/driven"
)

const dashboardRecordLimit = 10

// CycleRunner is the subset of the poll service the dashboard reads and drives.
type CycleRunner interface {
	LatestCycle() (model.CycleResult, bool)
	TriggerCycle(ctx context.Context) (model.CycleResult, error)
}

// Handler is the web driving adapter that serves the dashboard.
type Handler struct {
	cycles       CycleRunner
	records      driven.VoteRecordStore
	repoFullName string
	logger       *slog.Logger
	tmpl         *template.Template
}

// NewHandler parses the embedded templates and returns a Handler.
func NewHandler(
	cycles CycleRunner,
	records driven.VoteRecordStore,
	repoFullName string,
	logger *slog.Logger,
) (*Handler, error) {
	tmpl, err := template.ParseFS(TemplateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Handler{
		cycles:       cycles,
		records:      records,
		repoFullName: repoFullName,
		logger:       logger,
		tmpl:         tmpl,
	}, nil
}

// Dashboard renders the latest cycle and the most recent vote records.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := vm.DashboardViewModel{
		Repository: h.repoFullName,
		CSRFToken:  ensureCSRFToken(w, r),
	}

	if cycle, ok := h.cycles.LatestCycle(); ok {
		data.HasCycle = true
		data.Cycle = toCycleViewModel(cycle)
	}

	records, err := h.records.ListRecent(r.Context(), h.repoFullName, dashboardRecordLimit)
	if err != nil {
		h.logger.Error("failed to list vote records", "error", err)
		data.RecordsError = "vote records are unavailable"
	} else {
		data.Records = toRecordViewModels(records)
	}

	h.render(w, "dashboard.html", data)
}

// RunCycle triggers an immediate polling cycle from the dashboard form and
// redirects back to the dashboard.
func (h *Handler) RunCycle(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	if _, err := h.cycles.TriggerCycle(r.Context()); err != nil {
		h.logger.Error("dashboard-triggered cycle failed", "error", err)
		http.Error(w, "cycle failed", http.StatusBadGateway)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
