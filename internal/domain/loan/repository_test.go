package loan

import (
	"context"

	"github.com/abhishekdav003/easyfinance-sub000/internal/event"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

type TxMock struct {
	pgx.Tx
}

var tx pgx.Tx = &TxMock{}

func (m *MockRepository) CreateLoan(ctx context.Context, loan *Loan) (*Loan, error) {
	args := m.Called(ctx, loan)
	l, _ := args.Get(0).(*Loan)
	return l, args.Error(1)
}

func (m *MockRepository) LoanNumberExists(ctx context.Context, loanNumber string) (bool, error) {
	args := m.Called(ctx, loanNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) GetLoanByID(ctx context.Context, loanID int64) (*Loan, error) {
	args := m.Called(ctx, loanID)
	l, _ := args.Get(0).(*Loan)
	return l, args.Error(1)
}

func (m *MockRepository) GetLoanByNumber(ctx context.Context, loanNumber string) (*Loan, error) {
	args := m.Called(ctx, loanNumber)
	l, _ := args.Get(0).(*Loan)
	return l, args.Error(1)
}

func (m *MockRepository) FindLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error) {
	args := m.Called(ctx, tx, loanID)
	l, _ := args.Get(0).(*Loan)
	return l, args.Error(1)
}

func (m *MockRepository) FindEmiByRequestKeyInTx(ctx context.Context, tx pgx.Tx, loanID int64, requestKey string) (*EmiRecord, error) {
	args := m.Called(ctx, tx, loanID, requestKey)
	r, _ := args.Get(0).(*EmiRecord)
	return r, args.Error(1)
}

func (m *MockRepository) InsertEmiRecordInTx(ctx context.Context, tx pgx.Tx, record *EmiRecord) (*EmiRecord, error) {
	args := m.Called(ctx, tx, record)
	if rf, ok := args.Get(0).(func(*EmiRecord) *EmiRecord); ok {
		return rf(record), args.Error(1)
	}
	r, _ := args.Get(0).(*EmiRecord)
	return r, args.Error(1)
}

func (m *MockRepository) UpdateLoanProgressInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error {
	args := m.Called(ctx, tx, loan)
	return args.Error(0)
}

func (m *MockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	t, _ := args.Get(0).(pgx.Tx)
	return t, args.Error(1)
}

func (m *MockRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

var _ Repository = (*MockRepository)(nil)

type MockAgentVerifier struct {
	mock.Mock
}

func (m *MockAgentVerifier) EnsureActive(ctx context.Context, agentID int64) error {
	return m.Called(ctx, agentID).Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Invalidate(ctx context.Context) {
	m.Called(ctx)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishClientRegistered(ctx context.Context, ev event.ClientRegisteredEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) PublishLoanIssued(ctx context.Context, ev event.LoanIssuedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) PublishEmiCollected(ctx context.Context, ev event.EmiCollectedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) PublishLoanCompleted(ctx context.Context, ev event.LoanCompletedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockPublisher) PublishClientDefaultChanged(ctx context.Context, ev event.ClientDefaultChangedEvent) error {
	return m.Called(ctx, ev).Error(0)
}
