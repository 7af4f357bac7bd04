package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/api/handler/dto"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/go-chi/chi/v5"
)

type LoanHandler struct {
	service loan.LoanService
	loc     *time.Location
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, loc *time.Location, l *slog.Logger) *LoanHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LoanHandler{
		service: s,
		loc:     loc,
		logger:  l.With("component", "LoanHandler"),
	}
}

// GetLoan handles GET /loans/{loanID}, EMI records included.
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}
	l, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l, true))
}

func (h *LoanHandler) GetLoanByNumber(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.GetLoanByNumber(r.Context(), chi.URLParam(r, "loanNumber"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(l, true))
}

// LoanStatus handles GET /loans/{loanID}/status?asOf=YYYY-MM-DD.
func (h *LoanHandler) LoanStatus(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}
	asOf, err := dateFromQuery(r, "asOf", h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	status, err := h.service.LoanStatus(r.Context(), loanID, asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanStatusResponse(status))
}

// CollectEmi handles POST /loans/{loanID}/collections. A replayed request key answers 200
// with the original record instead of 201.
func (h *LoanHandler) CollectEmi(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.CollectEmiRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" && req.RequestKey == "" {
		req.RequestKey = key
	}
	collection, err := req.ToCollection(loanID, h.loc)
	if err != nil {
		respondError(w, err)
		return
	}

	res, err := h.service.CollectEmi(r.Context(), collection)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Collection rejected", slog.Int64("loanID", loanID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.NewCollectionResponse(res))
}
