package agent

import (
	"context"
	"time"
)

// Agent is a field collector referenced by EMI records.
type Agent struct {
	AgentID   int64     `json:"agentId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewAgent(name, phone string, now time.Time) *Agent {
	return &Agent{
		Name:      name,
		Phone:     phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type AgentRepository interface {
	// Save inserts the agent when AgentID is zero and updates it otherwise.
	Save(ctx context.Context, agent *Agent) error

	FindByID(ctx context.Context, agentID int64) (*Agent, error)

	FindByPhone(ctx context.Context, phone string) (*Agent, error)

	FindAll(ctx context.Context, activeOnly bool) ([]*Agent, error)

	SetActiveStatus(ctx context.Context, agentID int64, isActive bool) error
}

// Reader is the read side used by reports.
type Reader interface {
	ListAgents(ctx context.Context, activeOnly bool) ([]*Agent, error)
}
