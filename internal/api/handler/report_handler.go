package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/report"
)

type ReportHandler struct {
	service report.ReportService
	loc     *time.Location
	logger  *slog.Logger
}

func NewReportHandler(s report.ReportService, loc *time.Location, l *slog.Logger) *ReportHandler {
	if s == nil {
		panic("report service cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{
		service: s,
		loc:     loc,
		logger:  l.With("component", "ReportHandler"),
	}
}

func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateFromQuery(r, "asOf", h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	d, err := h.service.Dashboard(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// TodaysCollections handles GET /reports/today. ?date= selects another day.
func (h *ReportHandler) TodaysCollections(w http.ResponseWriter, r *http.Request) {
	day, err := dateFromQuery(r, "date", h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	entries, err := h.service.TodaysCollections(r.Context(), day)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *ReportHandler) Defaulters(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateFromQuery(r, "asOf", h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	list, err := h.service.Defaulters(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// DefaulterSet handles GET /reports/defaulters/set: a {clientId: true} map holding only
// clients with a loan in default.
func (h *ReportHandler) DefaulterSet(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateFromQuery(r, "asOf", h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	set, err := h.service.DefaulterSet(r.Context(), asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

func (h *ReportHandler) AllAgentCollections(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.AllAgentCollections(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, all)
}
