package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/event"
	"github.com/abhishekdav003/easyfinance-sub000/internal/infrastructure/monitoring"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
)

type LoanService interface {
	CollectEmi(ctx context.Context, c Collection) (*CollectionResult, error)

	GetLoan(ctx context.Context, loanID int64) (*Loan, error)

	GetLoanByNumber(ctx context.Context, loanNumber string) (*Loan, error)

	LoanStatus(ctx context.Context, loanID int64, asOf time.Time) (*StatusReport, error)
}

// AgentVerifier is satisfied by the agent registry.
type AgentVerifier interface {
	EnsureActive(ctx context.Context, agentID int64) error
}

// CacheInvalidator drops cached read models after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context)
}

type loanServiceImpl struct {
	repo      Repository
	agents    AgentVerifier
	publisher event.EventPublisher
	cache     CacheInvalidator
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

// NewLoanService builds the collector. loc is the zone whose calendar days decide which
// collection points have passed; nil means UTC.
func NewLoanService(r Repository, agents AgentVerifier, publisher event.EventPublisher, cache CacheInvalidator, loc *time.Location, logger *slog.Logger) LoanService {
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &loanServiceImpl{
		repo:      r,
		agents:    agents,
		publisher: publisher,
		cache:     cache,
		loc:       loc,
		logger:    logger.With("component", "LoanService"),
		now:       time.Now,
	}
}

func (s *loanServiceImpl) CollectEmi(ctx context.Context, c Collection) (result *CollectionResult, err error) {
	s.logger.InfoContext(ctx, "Collecting EMI", "loanID", c.LoanID, "amount", c.Amount.String(), "agentID", c.CollectedBy)
	c.RequestKey = strings.TrimSpace(c.RequestKey)

	if err = c.Validate(); err != nil {
		s.logger.WarnContext(ctx, "Rejected invalid collection", "loanID", c.LoanID, "error", err)
		monitoring.RecordCollection("failure_invalid", 0)
		return nil, err
	}

	if s.agents != nil {
		if err = s.agents.EnsureActive(ctx, c.CollectedBy); err != nil {
			s.logger.WarnContext(ctx, "Collecting agent rejected", "agentID", c.CollectedBy, "error", err)
			monitoring.RecordCollection("failure_agent", 0)
			return nil, err
		}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		monitoring.RecordCollection("failure_internal", 0)
		return nil, fmt.Errorf("%w: could not begin transaction: %w", apperrors.ErrInternalServer, err)
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.ErrorContext(ctx, "Panic occurred during collection", "loanID", c.LoanID, "error", p)
			_ = s.repo.RollbackTx(ctx, tx)
			monitoring.RecordCollection("failure_internal", 0)
			panic(p)
		}
		if err == nil {
			return
		}
		s.logger.ErrorContext(ctx, "Rolling back collection", "loanID", c.LoanID, "error", err)
		_ = s.repo.RollbackTx(ctx, tx)
		monitoring.RecordCollection(collectionFailureStatus(err), 0)
	}()

	l, err := s.repo.FindLoanForUpdate(ctx, tx, c.LoanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan with ID %d not found", apperrors.ErrNotFound, c.LoanID)
		}
		return nil, fmt.Errorf("%w: could not lock loan %d: %w", apperrors.ErrInternalServer, c.LoanID, err)
	}

	if c.RequestKey != "" {
		existing, findErr := s.repo.FindEmiByRequestKeyInTx(ctx, tx, l.ID, c.RequestKey)
		switch {
		case findErr == nil:
			if err = s.repo.CommitTx(ctx, tx); err != nil {
				return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
			}
			s.logger.InfoContext(ctx, "Collection replayed", "loanID", l.ID, "requestKey", c.RequestKey, "recordID", existing.ID)
			monitoring.RecordCollection("replayed", 0)
			return &CollectionResult{Summary: l.Summary(), Record: *existing, Replayed: true}, nil
		case !errors.Is(findErr, apperrors.ErrNotFound):
			err = fmt.Errorf("%w: could not check request key: %w", apperrors.ErrInternalServer, findErr)
			return nil, err
		}
	}

	wasCompleted := l.Status == StatusCompleted
	record, err := l.ApplyCollection(c, s.now())
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.InsertEmiRecordInTx(ctx, tx, &record)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: could not store emi record: %w", apperrors.ErrInternalServer, err)
	}
	l.EmiRecords[len(l.EmiRecords)-1] = *saved

	if err = s.repo.UpdateLoanProgressInTx(ctx, tx, l); err != nil {
		return nil, fmt.Errorf("%w: could not update loan progress: %w", apperrors.ErrInternalServer, err)
	}

	if err = s.repo.CommitTx(ctx, tx); err != nil {
		return nil, fmt.Errorf("%w: could not commit transaction: %w", apperrors.ErrInternalServer, err)
	}

	amount, _ := saved.AmountCollected.Float64()
	monitoring.RecordCollection("success", amount)
	s.logger.InfoContext(ctx, "EMI collected",
		"loanID", l.ID, "recordID", saved.ID, "status", saved.Status,
		"totalCollected", l.TotalCollected.String(), "loanStatus", l.Status)

	justCompleted := !wasCompleted && l.Status == StatusCompleted
	s.afterCollection(ctx, l, *saved, justCompleted)

	return &CollectionResult{Summary: l.Summary(), Record: *saved, Completed: justCompleted}, nil
}

func (s *loanServiceImpl) afterCollection(ctx context.Context, l *Loan, record EmiRecord, justCompleted bool) {
	now := s.now()
	if err := s.publisher.PublishEmiCollected(ctx, event.EmiCollectedEvent{
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		RecordID:        record.ID,
		AgentID:         record.CollectedBy,
		Amount:          record.AmountCollected,
		PaymentMode:     string(record.PaymentMode),
		Status:          string(record.Status),
		TotalCollected:  l.TotalCollected,
		TotalAmountLeft: l.TotalAmountLeft,
		Timestamp:       now,
	}); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish emi collected event", "loanID", l.ID, "error", err)
	}

	if justCompleted {
		if err := s.publisher.PublishLoanCompleted(ctx, event.LoanCompletedEvent{
			LoanID:         l.ID,
			LoanNumber:     l.LoanNumber,
			TotalCollected: l.TotalCollected,
			Timestamp:      now,
		}); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish loan completed event", "loanID", l.ID, "error", err)
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func collectionFailureStatus(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrLoanCompleted):
		return "failure_completed"
	case errors.Is(err, apperrors.ErrInvalidCollection):
		return "failure_invalid"
	case errors.Is(err, apperrors.ErrNotFound):
		return "failure_not_found"
	case errors.Is(err, apperrors.ErrConflict):
		return "failure_conflict"
	}
	return "failure_internal"
}

func (s *loanServiceImpl) GetLoan(ctx context.Context, loanID int64) (*Loan, error) {
	s.logger.InfoContext(ctx, "Getting loan details", "loanID", loanID)
	l, err := s.repo.GetLoanByID(ctx, loanID)
	if err != nil {
		return nil, s.lookupError(ctx, err, fmt.Sprintf("loan with ID %d", loanID))
	}
	return l, nil
}

func (s *loanServiceImpl) GetLoanByNumber(ctx context.Context, loanNumber string) (*Loan, error) {
	loanNumber = strings.TrimSpace(loanNumber)
	if loanNumber == "" {
		return nil, fmt.Errorf("%w: loan number is required", apperrors.ErrInvalidArgument)
	}
	s.logger.InfoContext(ctx, "Getting loan by number", "loanNumber", loanNumber)
	l, err := s.repo.GetLoanByNumber(ctx, loanNumber)
	if err != nil {
		return nil, s.lookupError(ctx, err, fmt.Sprintf("loan %s", loanNumber))
	}
	return l, nil
}

func (s *loanServiceImpl) LoanStatus(ctx context.Context, loanID int64, asOf time.Time) (*StatusReport, error) {
	l, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	report := NewStatusReport(l, asOf.In(s.loc))
	return &report, nil
}

func (s *loanServiceImpl) lookupError(ctx context.Context, err error, what string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "Loan not found", "loan", what)
		return fmt.Errorf("%w: %s not found", apperrors.ErrNotFound, what)
	}
	s.logger.ErrorContext(ctx, "Failed to get loan", "loan", what, "error", err)
	return fmt.Errorf("%w: failed to get %s: %w", apperrors.ErrInternalServer, what, err)
}
