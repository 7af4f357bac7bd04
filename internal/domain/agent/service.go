package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/contact"
)

const agentNotFound = "Agent not found by repository"

type AgentService interface {
	RegisterAgent(ctx context.Context, name, phone string) (*Agent, error)
	GetAgent(ctx context.Context, agentID int64) (*Agent, error)
	ListAgents(ctx context.Context, activeOnly bool) ([]*Agent, error)
	DeactivateAgent(ctx context.Context, agentID int64) error
	ReactivateAgent(ctx context.Context, agentID int64) error
	EnsureActive(ctx context.Context, agentID int64) error
}

var _ AgentService = (*agentService)(nil)

var _ Reader = (*agentService)(nil)

type agentService struct {
	repo   AgentRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewAgentService(repo AgentRepository, logger *slog.Logger) AgentService {
	if repo == nil {
		panic("agent repository cannot be nil")
	}
	return &agentService{
		repo:   repo,
		logger: logger.With(slog.String("component", "agentService")),
		now:    time.Now,
	}
}

func (s *agentService) RegisterAgent(ctx context.Context, name, phone string) (*Agent, error) {
	s.logger.InfoContext(ctx, "Attempting to register agent")

	name = strings.TrimSpace(name)
	if name == "" {
		s.logger.WarnContext(ctx, "Validation failed: name is empty")
		return nil, apperrors.NewValidationError(nil, "name", "agent name cannot be empty")
	}
	normalized, ok := contact.NormalizePhone(phone)
	if !ok {
		s.logger.WarnContext(ctx, "Validation failed: phone is invalid")
		return nil, apperrors.NewValidationError(nil, "phone", fmt.Sprintf("invalid phone number %q", phone))
	}

	existing, err := s.repo.FindByPhone(ctx, normalized)
	switch {
	case err == nil:
		s.logger.WarnContext(ctx, "Agent phone already registered", slog.Int64("existingAgentID", existing.AgentID))
		return nil, fmt.Errorf("%w: phone %s belongs to agent %d", apperrors.ErrDuplicateAgent, normalized, existing.AgentID)
	case !errors.Is(err, apperrors.ErrNotFound):
		s.logger.ErrorContext(ctx, "Repository error checking agent phone", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check agent phone: %w", err)
	}

	agent := NewAgent(name, normalized, s.now())
	if err := s.repo.Save(ctx, agent); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new agent", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new agent: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully registered agent", slog.Int64("agentID", agent.AgentID))
	return agent, nil
}

func (s *agentService) GetAgent(ctx context.Context, agentID int64) (*Agent, error) {
	agent, err := s.repo.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, agentNotFound, slog.Int64("agentID", agentID))
			return nil, fmt.Errorf("%w: agent %d", apperrors.ErrNotFound, agentID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding agent", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get agent %d: %w", agentID, err)
	}
	return agent, nil
}

func (s *agentService) ListAgents(ctx context.Context, activeOnly bool) ([]*Agent, error) {
	agents, err := s.repo.FindAll(ctx, activeOnly)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing agents", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	s.logger.InfoContext(ctx, "Successfully retrieved agents", slog.Int("count", len(agents)))
	return agents, nil
}

func (s *agentService) DeactivateAgent(ctx context.Context, agentID int64) error {
	return s.setActive(ctx, agentID, false)
}

func (s *agentService) ReactivateAgent(ctx context.Context, agentID int64) error {
	return s.setActive(ctx, agentID, true)
}

func (s *agentService) setActive(ctx context.Context, agentID int64, active bool) error {
	s.logger.InfoContext(ctx, "Calling repository SetActiveStatus", slog.Int64("agentID", agentID), slog.Bool("isActive", active))
	if err := s.repo.SetActiveStatus(ctx, agentID, active); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, agentNotFound, slog.Int64("agentID", agentID))
			return fmt.Errorf("%w: agent %d", apperrors.ErrNotFound, agentID)
		}
		s.logger.ErrorContext(ctx, "Repository error updating agent status", slog.Any("error", err))
		return fmt.Errorf("failed to update agent %d: %w", agentID, err)
	}
	return nil
}

// EnsureActive fails with ErrNotFound for unknown agents and ErrInvalidCollection for
// deactivated ones.
func (s *agentService) EnsureActive(ctx context.Context, agentID int64) error {
	agent, err := s.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if !agent.Active {
		return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "collectedBy", fmt.Sprintf("agent %d is not active", agentID))
	}
	return nil
}
