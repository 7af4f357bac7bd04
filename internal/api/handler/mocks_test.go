package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/agent"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/report"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type MockLoanService struct {
	mock.Mock
}

func (m *MockLoanService) CollectEmi(ctx context.Context, c loan.Collection) (*loan.CollectionResult, error) {
	args := m.Called(ctx, c)
	res, _ := args.Get(0).(*loan.CollectionResult)
	return res, args.Error(1)
}

func (m *MockLoanService) GetLoan(ctx context.Context, loanID int64) (*loan.Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) GetLoanByNumber(ctx context.Context, loanNumber string) (*loan.Loan, error) {
	args := m.Called(ctx, loanNumber)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockLoanService) LoanStatus(ctx context.Context, loanID int64, asOf time.Time) (*loan.StatusReport, error) {
	args := m.Called(ctx, loanID, asOf)
	s, _ := args.Get(0).(*loan.StatusReport)
	return s, args.Error(1)
}

type MockClientService struct {
	mock.Mock
}

func (m *MockClientService) RegisterClient(ctx context.Context, n client.NewClient) (*client.Client, error) {
	args := m.Called(ctx, n)
	c, _ := args.Get(0).(*client.Client)
	return c, args.Error(1)
}

func (m *MockClientService) IssueLoan(ctx context.Context, clientID int64, req client.LoanRequest) (*loan.Loan, error) {
	args := m.Called(ctx, clientID, req)
	l, _ := args.Get(0).(*loan.Loan)
	return l, args.Error(1)
}

func (m *MockClientService) GetClient(ctx context.Context, clientID int64) (*client.Client, error) {
	args := m.Called(ctx, clientID)
	c, _ := args.Get(0).(*client.Client)
	return c, args.Error(1)
}

func (m *MockClientService) ListClients(ctx context.Context) ([]*client.Client, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).([]*client.Client)
	return c, args.Error(1)
}

func (m *MockClientService) ClientStatus(ctx context.Context, clientID int64, asOf time.Time) (*client.StatusSummary, error) {
	args := m.Called(ctx, clientID, asOf)
	s, _ := args.Get(0).(*client.StatusSummary)
	return s, args.Error(1)
}

type MockAgentService struct {
	mock.Mock
}

func (m *MockAgentService) RegisterAgent(ctx context.Context, name, phone string) (*agent.Agent, error) {
	args := m.Called(ctx, name, phone)
	a, _ := args.Get(0).(*agent.Agent)
	return a, args.Error(1)
}

func (m *MockAgentService) GetAgent(ctx context.Context, agentID int64) (*agent.Agent, error) {
	args := m.Called(ctx, agentID)
	a, _ := args.Get(0).(*agent.Agent)
	return a, args.Error(1)
}

func (m *MockAgentService) ListAgents(ctx context.Context, activeOnly bool) ([]*agent.Agent, error) {
	args := m.Called(ctx, activeOnly)
	a, _ := args.Get(0).([]*agent.Agent)
	return a, args.Error(1)
}

func (m *MockAgentService) DeactivateAgent(ctx context.Context, agentID int64) error {
	return m.Called(ctx, agentID).Error(0)
}

func (m *MockAgentService) ReactivateAgent(ctx context.Context, agentID int64) error {
	return m.Called(ctx, agentID).Error(0)
}

func (m *MockAgentService) EnsureActive(ctx context.Context, agentID int64) error {
	return m.Called(ctx, agentID).Error(0)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Dashboard(ctx context.Context, asOf time.Time) (*report.Dashboard, error) {
	args := m.Called(ctx, asOf)
	d, _ := args.Get(0).(*report.Dashboard)
	return d, args.Error(1)
}

func (m *MockReportService) TodaysCollections(ctx context.Context, asOf time.Time) ([]report.CollectionEntry, error) {
	args := m.Called(ctx, asOf)
	e, _ := args.Get(0).([]report.CollectionEntry)
	return e, args.Error(1)
}

func (m *MockReportService) DefaulterSet(ctx context.Context, asOf time.Time) (map[int64]bool, error) {
	args := m.Called(ctx, asOf)
	s, _ := args.Get(0).(map[int64]bool)
	return s, args.Error(1)
}

func (m *MockReportService) Defaulters(ctx context.Context, asOf time.Time) ([]report.Defaulter, error) {
	args := m.Called(ctx, asOf)
	d, _ := args.Get(0).([]report.Defaulter)
	return d, args.Error(1)
}

func (m *MockReportService) AgentCollections(ctx context.Context, agentID int64) (*report.AgentCollections, error) {
	args := m.Called(ctx, agentID)
	a, _ := args.Get(0).(*report.AgentCollections)
	return a, args.Error(1)
}

func (m *MockReportService) AllAgentCollections(ctx context.Context) ([]report.AgentCollections, error) {
	args := m.Called(ctx)
	a, _ := args.Get(0).([]report.AgentCollections)
	return a, args.Error(1)
}

func (m *MockReportService) Invalidate(ctx context.Context) {
	m.Called(ctx)
}
