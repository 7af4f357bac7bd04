package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/api/handler/dto"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
)

type ClientHandler struct {
	service client.ClientService
	loc     *time.Location
	logger  *slog.Logger
	now     func() time.Time
}

func NewClientHandler(s client.ClientService, loc *time.Location, l *slog.Logger) *ClientHandler {
	if s == nil {
		panic("client service cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ClientHandler{
		service: s,
		loc:     loc,
		logger:  l.With("component", "ClientHandler"),
		now:     time.Now,
	}
}

// CreateClient handles POST /clients.
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateClientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.RegisterClient(r.Context(), req.ToNewClient())
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to register client", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewClientResponse(created, false))
}

// ListClients handles GET /clients. Loans are summarised without their EMI records.
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	resp := make([]dto.ClientResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, dto.NewClientResponse(c, false))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ClientHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}
	c, err := h.service.GetClient(r.Context(), clientID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewClientResponse(c, true))
}

// ClientStatus handles GET /clients/{clientID}/status?asOf=YYYY-MM-DD.
func (h *ClientHandler) ClientStatus(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}
	asOf, err := dateFromQuery(r, "asOf", h.loc)
	if err != nil {
		respondError(w, err)
		return
	}
	summary, err := h.service.ClientStatus(r.Context(), clientID, asOf)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewClientStatusResponse(summary))
}

// IssueLoan handles POST /clients/{clientID}/loans.
func (h *ClientHandler) IssueLoan(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.IssueLoanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	loanReq, err := req.ToLoanRequest(h.now(), h.loc)
	if err != nil {
		respondError(w, err)
		return
	}

	issued, err := h.service.IssueLoan(r.Context(), clientID, loanReq)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to issue loan", slog.Int64("clientID", clientID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(issued, false))
}
