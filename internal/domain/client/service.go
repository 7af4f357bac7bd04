package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/event"
	"github.com/abhishekdav003/easyfinance-sub000/internal/infrastructure/monitoring"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
)

const clientNotFound = "Client not found by repository"

type LoanRequest struct {
	LoanNumber string
	Terms      loan.Terms
	CreatedBy  string
}

type ClientService interface {
	RegisterClient(ctx context.Context, n NewClient) (*Client, error)
	IssueLoan(ctx context.Context, clientID int64, req LoanRequest) (*loan.Loan, error)
	GetClient(ctx context.Context, clientID int64) (*Client, error)
	ListClients(ctx context.Context) ([]*Client, error)
	ClientStatus(ctx context.Context, clientID int64, asOf time.Time) (*StatusSummary, error)
}

var _ ClientService = (*clientService)(nil)

var _ Reader = (*clientService)(nil)

type clientService struct {
	repo   ClientRepository
	loans  LoanStore
	pub    event.EventPublisher
	cache  loan.CacheInvalidator
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time
}

func NewClientService(repo ClientRepository, loans LoanStore, pub event.EventPublisher, cache loan.CacheInvalidator, loc *time.Location, logger *slog.Logger) ClientService {
	if repo == nil {
		panic("client repository cannot be nil")
	}
	if loans == nil {
		panic("loan store cannot be nil")
	}
	if pub == nil {
		pub = event.NoopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &clientService{
		repo:   repo,
		loans:  loans,
		pub:    pub,
		cache:  cache,
		loc:    loc,
		logger: logger.With(slog.String("component", "clientService")),
		now:    time.Now,
	}
}

func (s *clientService) RegisterClient(ctx context.Context, n NewClient) (*Client, error) {
	s.logger.InfoContext(ctx, "Attempting to register client")

	client, err := n.build(s.now())
	if err != nil {
		s.logger.WarnContext(ctx, "Validation failed for new client", slog.Any("error", err))
		return nil, err
	}

	inUse, err := s.repo.PhonesInUse(ctx, client.Phones)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error checking client phones", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check client phones: %w", err)
	}
	if len(inUse) > 0 {
		s.logger.WarnContext(ctx, "Client phone already registered", slog.Any("phones", inUse))
		return nil, fmt.Errorf("%w: phone %s is already registered", apperrors.ErrDuplicateClient, strings.Join(inUse, ", "))
	}

	if err := s.repo.Save(ctx, client); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new client: %w", err)
	}
	logger := s.logger.With(slog.Int64("clientID", client.ClientID))
	monitoring.RecordClientRegistered()

	if pubErr := s.pub.PublishClientRegistered(ctx, event.ClientRegisteredEvent{
		ClientID:  client.ClientID,
		Name:      client.Name,
		Phones:    client.Phones,
		CreatedBy: client.CreatedBy,
		Timestamp: s.now(),
	}); pubErr != nil {
		logger.ErrorContext(ctx, "Client registered, but FAILED to publish registration event", slog.Any("error", pubErr))
	}
	s.invalidate(ctx)

	logger.InfoContext(ctx, "Successfully registered client")
	return client, nil
}

func (s *clientService) IssueLoan(ctx context.Context, clientID int64, req LoanRequest) (*loan.Loan, error) {
	logger := s.logger.With(slog.Int64("clientID", clientID))
	logger.InfoContext(ctx, "Attempting to issue loan", slog.String("emiType", string(req.Terms.EmiType)))

	newLoan, err := loan.NewLoan(req.Terms, req.LoanNumber, req.CreatedBy, s.now())
	if err != nil {
		logger.WarnContext(ctx, "Loan terms rejected", slog.Any("error", err))
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, clientID)
	if err != nil {
		logger.ErrorContext(ctx, "Repository error checking client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check client %d: %w", clientID, err)
	}
	if !exists {
		logger.WarnContext(ctx, clientNotFound)
		return nil, fmt.Errorf("%w: client %d", apperrors.ErrNotFound, clientID)
	}

	taken, err := s.loans.LoanNumberExists(ctx, newLoan.LoanNumber)
	if err != nil {
		logger.ErrorContext(ctx, "Repository error checking loan number", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check loan number: %w", err)
	}
	if taken {
		logger.WarnContext(ctx, "Loan number already in use", slog.String("loanNumber", newLoan.LoanNumber))
		return nil, fmt.Errorf("%w: %s", apperrors.ErrDuplicateLoanNumber, newLoan.LoanNumber)
	}

	newLoan.ClientID = clientID
	created, err := s.loans.CreateLoan(ctx, newLoan)
	if err != nil {
		logger.ErrorContext(ctx, "Repository failed to save loan", slog.Any("error", err))
		if errors.Is(err, apperrors.ErrDuplicateLoanNumber) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}
	monitoring.RecordLoanIssued(string(created.EmiType))

	if pubErr := s.pub.PublishLoanIssued(ctx, event.LoanIssuedEvent{
		ClientID:        clientID,
		LoanID:          created.ID,
		LoanNumber:      created.LoanNumber,
		EmiType:         string(created.EmiType),
		LoanAmount:      created.LoanAmount,
		DisbursedAmount: created.DisbursedAmount,
		EmiAmount:       created.EmiAmount,
		DueDate:         created.DueDate,
		Timestamp:       s.now(),
	}); pubErr != nil {
		logger.ErrorContext(ctx, "Loan issued, but FAILED to publish event", slog.Any("error", pubErr))
	}
	s.invalidate(ctx)

	logger.InfoContext(ctx, "Successfully issued loan", slog.Int64("loanID", created.ID), slog.String("loanNumber", created.LoanNumber))
	return created, nil
}

func (s *clientService) GetClient(ctx context.Context, clientID int64) (*Client, error) {
	client, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, clientNotFound, slog.Int64("clientID", clientID))
			return nil, fmt.Errorf("%w: client %d", apperrors.ErrNotFound, clientID)
		}
		s.logger.ErrorContext(ctx, "Repository error finding client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get client %d: %w", clientID, err)
	}
	return client, nil
}

func (s *clientService) ListClients(ctx context.Context) ([]*Client, error) {
	clients, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing clients", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	s.logger.InfoContext(ctx, "Successfully retrieved clients", slog.Int("count", len(clients)))
	return clients, nil
}

func (s *clientService) ClientStatus(ctx context.Context, clientID int64, asOf time.Time) (*StatusSummary, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	summary := DeriveStatus(client, asOf.In(s.loc))
	return &summary, nil
}

func (s *clientService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
