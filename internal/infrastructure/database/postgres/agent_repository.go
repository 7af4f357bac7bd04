package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
)

const agentColumns = `id, name, phone, active, created_at, updated_at`

type AgentRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ agent.AgentRepository = (*AgentRepository)(nil)

func NewAgentRepository(db DBPool, logger *slog.Logger) *AgentRepository {
	if db == nil {
		panic("DBPool cannot be nil for AgentRepository")
	}
	return &AgentRepository{db: db, logger: logger.With("component", "AgentRepository")}
}

func scanAgent(row pgx.Row) (*agent.Agent, error) {
	var a agent.Agent
	if err := row.Scan(&a.AgentID, &a.Name, &a.Phone, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepository) Save(ctx context.Context, a *agent.Agent) error {
	if a.AgentID == 0 {
		return r.createAgent(ctx, a)
	}

	query := `
        UPDATE agents
        SET name = $1, phone = $2, active = $3, updated_at = NOW()
        WHERE id = $4`

	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, query, a.Name, a.Phone, a.Active, a.AgentID)
	observe("UpdateAgent", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update agent", slog.Int64("agentID", a.AgentID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *AgentRepository) createAgent(ctx context.Context, a *agent.Agent) error {
	query := `
        INSERT INTO agents (name, phone, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id`

	start := time.Now()
	err := r.db.QueryRow(ctx, query, a.Name, a.Phone, a.Active, a.CreatedAt, a.UpdatedAt).Scan(&a.AgentID)
	observe("InsertAgent", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert agent", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Agent created in DB", slog.Int64("agentID", a.AgentID))
	return nil
}

func (r *AgentRepository) FindByID(ctx context.Context, agentID int64) (*agent.Agent, error) {
	return r.findOne(ctx, "FindAgentByID", `SELECT `+agentColumns+` FROM agents WHERE id = $1`, agentID)
}

func (r *AgentRepository) FindByPhone(ctx context.Context, phone string) (*agent.Agent, error) {
	return r.findOne(ctx, "FindAgentByPhone", `SELECT `+agentColumns+` FROM agents WHERE phone = $1`, phone)
}

func (r *AgentRepository) findOne(ctx context.Context, name, query string, arg any) (*agent.Agent, error) {
	start := time.Now()
	a, err := scanAgent(r.db.QueryRow(ctx, query, arg))
	observe(name, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get agent", slog.Any("lookup", arg), slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err)
	}
	return a, nil
}

func (r *AgentRepository) FindAll(ctx context.Context, activeOnly bool) ([]*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY id ASC`

	start := time.Now()
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		observe("FindAllAgents", start, err)
		r.logger.ErrorContext(ctx, "Failed to query agents", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err)
	}
	defer rows.Close()

	agents := make([]*agent.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			observe("FindAllAgents", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan agent row", slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err)
		}
		agents = append(agents, a)
	}
	err = rows.Err()
	observe("FindAllAgents", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating agent rows", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err)
	}
	return agents, nil
}

func (r *AgentRepository) SetActiveStatus(ctx context.Context, agentID int64, isActive bool) error {
	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, `UPDATE agents SET active = $1, updated_at = NOW() WHERE id = $2`, isActive, agentID)
	observe("SetAgentActive", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to set agent active status", slog.Int64("agentID", agentID), slog.Any("error", err))
		return apperrors.WrapDatabaseError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Agent not found for status update", slog.Int64("agentID", agentID))
		return apperrors.ErrNotFound
	}
	return nil
}
