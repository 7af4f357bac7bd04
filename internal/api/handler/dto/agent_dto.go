package dto

import (
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
)

type CreateAgentRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

type UpdateAgentStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type AgentResponse struct {
	AgentID   int64     `json:"agentId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewAgentResponse(a *agent.Agent) AgentResponse {
	return AgentResponse{
		AgentID:   a.AgentID,
		Name:      a.Name,
		Phone:     a.Phone,
		Active:    a.Active,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func NewAgentListResponse(agents []*agent.Agent) []AgentResponse {
	resp := make([]AgentResponse, 0, len(agents))
	for _, a := range agents {
		resp = append(resp, NewAgentResponse(a))
	}
	return resp
}
