package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/abhishekdav003/easyfinance-sub000/internal/api/handler/dto"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/report"
)

type AgentHandler struct {
	service agent.AgentService
	reports report.ReportService
	logger  *slog.Logger
}

func NewAgentHandler(s agent.AgentService, reports report.ReportService, l *slog.Logger) *AgentHandler {
	if s == nil {
		panic("agent service cannot be nil")
	}
	return &AgentHandler{
		service: s,
		reports: reports,
		logger:  l.With("component", "AgentHandler"),
	}
}

// CreateAgent handles POST /agents.
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := dto.Struct(&req); err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.RegisterAgent(r.Context(), req.Name, req.Phone)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Service failed to register agent", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewAgentResponse(created))
}

// ListAgents handles GET /agents. ?active=true limits the list to active agents.
func (h *AgentHandler) ListAgents(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	agents, err := h.service.ListAgents(r.Context(), activeOnly)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewAgentListResponse(agents))
}

func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	agentID, err := idFromURL(r, "agentID")
	if err != nil {
		respondError(w, err)
		return
	}
	a, err := h.service.GetAgent(r.Context(), agentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewAgentResponse(a))
}

// UpdateAgentStatus handles PUT /agents/{agentID}/status. Deactivated agents keep their
// history but can no longer record collections.
func (h *AgentHandler) UpdateAgentStatus(w http.ResponseWriter, r *http.Request) {
	agentID, err := idFromURL(r, "agentID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.UpdateAgentStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := dto.Struct(&req); err != nil {
		respondError(w, err)
		return
	}

	if *req.Active {
		err = h.service.ReactivateAgent(r.Context(), agentID)
	} else {
		err = h.service.DeactivateAgent(r.Context(), agentID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Agent status updated", slog.Int64("agentID", agentID), slog.Bool("active", *req.Active))
	w.WriteHeader(http.StatusNoContent)
}

// AgentCollections handles GET /agents/{agentID}/collections.
func (h *AgentHandler) AgentCollections(w http.ResponseWriter, r *http.Request) {
	agentID, err := idFromURL(r, "agentID")
	if err != nil {
		respondError(w, err)
		return
	}
	if _, err := h.service.GetAgent(r.Context(), agentID); err != nil {
		respondError(w, err)
		return
	}
	totals, err := h.reports.AgentCollections(r.Context(), agentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, totals)
}
