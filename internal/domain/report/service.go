package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
)

const dashboardKey = "report:dashboard"

// DashboardCache is satisfied by cache.ViewCache[Dashboard].
type DashboardCache interface {
	Get(ctx context.Context, key string) (*Dashboard, bool)
	Set(ctx context.Context, key string, value *Dashboard)
	Delete(ctx context.Context, key string)
}

type ReportService interface {
	Dashboard(ctx context.Context, asOf time.Time) (*Dashboard, error)
	TodaysCollections(ctx context.Context, asOf time.Time) ([]CollectionEntry, error)
	DefaulterSet(ctx context.Context, asOf time.Time) (map[int64]bool, error)
	Defaulters(ctx context.Context, asOf time.Time) ([]Defaulter, error)
	AgentCollections(ctx context.Context, agentID int64) (*AgentCollections, error)
	AllAgentCollections(ctx context.Context) ([]AgentCollections, error)
	// Invalidate drops the cached dashboard. Write paths call it after committing.
	Invalidate(ctx context.Context)
}

type reportService struct {
	clients client.Reader
	agents  agent.Reader
	cache   DashboardCache
	loc     *time.Location
	logger  *slog.Logger
	now     func() time.Time
}

// NewReportService builds the aggregator. cache may be nil, in which case every dashboard
// request is recomputed.
func NewReportService(clients client.Reader, agents agent.Reader, cache DashboardCache, loc *time.Location, logger *slog.Logger) ReportService {
	if clients == nil {
		panic("client reader cannot be nil")
	}
	if agents == nil {
		panic("agent reader cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{
		clients: clients,
		agents:  agents,
		cache:   cache,
		loc:     loc,
		logger:  logger.With(slog.String("component", "reportService")),
		now:     time.Now,
	}
}

func (s *reportService) asOf(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.In(s.loc)
}

func (s *reportService) listClients(ctx context.Context) ([]*client.Client, error) {
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load clients for report", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}
	return clients, nil
}

func (s *reportService) listAgents(ctx context.Context) ([]*agent.Agent, error) {
	agents, err := s.agents.ListAgents(ctx, false)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load agents for report", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}
	return agents, nil
}

// Dashboard serves a cached snapshot only for requests about the current moment; a
// dashboard for an explicit date is always recomputed.
func (s *reportService) Dashboard(ctx context.Context, asOf time.Time) (*Dashboard, error) {
	cacheable := asOf.IsZero() && s.cache != nil
	if cacheable {
		if d, ok := s.cache.Get(ctx, dashboardKey); ok {
			s.logger.DebugContext(ctx, "Dashboard served from cache")
			return d, nil
		}
	}

	clients, err := s.listClients(ctx)
	if err != nil {
		return nil, err
	}
	d := BuildDashboard(clients, s.asOf(asOf))
	if cacheable {
		s.cache.Set(ctx, dashboardKey, &d)
	}
	return &d, nil
}

func (s *reportService) TodaysCollections(ctx context.Context, asOf time.Time) ([]CollectionEntry, error) {
	clients, err := s.listClients(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := s.listAgents(ctx)
	if err != nil {
		return nil, err
	}
	return TodaysCollections(clients, agents, s.asOf(asOf), s.loc), nil
}

func (s *reportService) DefaulterSet(ctx context.Context, asOf time.Time) (map[int64]bool, error) {
	clients, err := s.listClients(ctx)
	if err != nil {
		return nil, err
	}
	return DefaulterSet(clients, s.asOf(asOf)), nil
}

func (s *reportService) Defaulters(ctx context.Context, asOf time.Time) ([]Defaulter, error) {
	clients, err := s.listClients(ctx)
	if err != nil {
		return nil, err
	}
	return Defaulters(clients, s.asOf(asOf)), nil
}

func (s *reportService) AgentCollections(ctx context.Context, agentID int64) (*AgentCollections, error) {
	clients, err := s.listClients(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := s.listAgents(ctx)
	if err != nil {
		return nil, err
	}
	totals := AgentTotals(clients, agents, agentID)
	return &totals, nil
}

func (s *reportService) AllAgentCollections(ctx context.Context) ([]AgentCollections, error) {
	clients, err := s.listClients(ctx)
	if err != nil {
		return nil, err
	}
	agents, err := s.listAgents(ctx)
	if err != nil {
		return nil, err
	}
	return AllAgentTotals(clients, agents), nil
}

func (s *reportService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(ctx, dashboardKey)
}
