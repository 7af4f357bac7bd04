package loan

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

// Collection is one EMI payment as submitted by a field agent.
type Collection struct {
	LoanID       int64
	// ClientID is optional; when set it must own the loan.
	ClientID     int64
	Amount       decimal.Decimal
	Status       PaymentStatus
	PaymentMode  PaymentMode
	ReceiverName string
	Location     Location
	CollectedBy  int64
	RequestKey   string
	CollectedAt  time.Time
}

type CollectionResult struct {
	Summary
	Record    EmiRecord
	Replayed  bool
	Completed bool
}

func (c Collection) Validate() error {
	if c.LoanID <= 0 {
		return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "loanId", "must be a positive number")
	}
	if c.Amount.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "amountCollected", "must be greater than zero")
	}
	if !c.PaymentMode.Valid() {
		return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "paymentMode", fmt.Sprintf("unknown payment mode %q", c.PaymentMode))
	}
	if c.PaymentMode != ModeCash && strings.TrimSpace(c.ReceiverName) == "" {
		return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "recieverName", "is required for non-cash payments")
	}
	if c.Status != "" && !c.Status.Valid() {
		return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "status", fmt.Sprintf("unknown payment status %q", c.Status))
	}
	if c.CollectedBy <= 0 {
		return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "collectedBy", "must reference an agent")
	}
	if c.Location.HasCoordinates() {
		if math.Abs(c.Location.Lat) > 90 || math.Abs(c.Location.Lng) > 180 {
			return apperrors.NewValidationError(apperrors.ErrInvalidCollection, "location", "coordinates out of range")
		}
	}
	return nil
}

// InferPaymentStatus honours an explicit Defaulted mark and otherwise compares the amount
// with the EMI agents are shown.
func InferPaymentStatus(declared PaymentStatus, amount, roundedEmi decimal.Decimal) PaymentStatus {
	if declared == PaymentDefaulted {
		return PaymentDefaulted
	}
	if amount.GreaterThanOrEqual(roundedEmi) {
		return PaymentPaid
	}
	return PaymentPartial
}

// ApplyCollection validates c, appends the resulting record and refreshes the running
// totals and status. The loan is left untouched when an error is returned.
func (l *Loan) ApplyCollection(c Collection, now time.Time) (EmiRecord, error) {
	if l.Status == StatusCompleted {
		return EmiRecord{}, fmt.Errorf("%w: loan %s", apperrors.ErrLoanCompleted, l.LoanNumber)
	}
	if err := c.Validate(); err != nil {
		return EmiRecord{}, err
	}
	if c.LoanID != l.ID {
		return EmiRecord{}, apperrors.NewValidationError(apperrors.ErrInvalidCollection, "loanId", "does not match the loan")
	}
	if c.ClientID != 0 && c.ClientID != l.ClientID {
		return EmiRecord{}, apperrors.NewValidationError(apperrors.ErrInvalidCollection, "clientId", fmt.Sprintf("loan %s belongs to another client", l.LoanNumber))
	}

	date := c.CollectedAt
	if date.IsZero() {
		date = now
	}
	receiver := strings.TrimSpace(c.ReceiverName)

	record := EmiRecord{
		LoanID:          l.ID,
		Date:            date,
		AmountCollected: c.Amount,
		Status:          InferPaymentStatus(c.Status, c.Amount, l.RoundedEmi()),
		CollectedBy:     c.CollectedBy,
		PaymentMode:     c.PaymentMode,
		ReceiverName:    receiver,
		Location:        c.Location,
		RequestKey:      strings.TrimSpace(c.RequestKey),
		CreatedAt:       now,
	}

	l.EmiRecords = append(l.EmiRecords, record)
	l.TotalCollected = l.TotalCollected.Add(c.Amount)
	l.TotalAmountLeft = decimal.Max(decimal.Zero, l.TotalPayable.Sub(l.TotalCollected))
	l.UpdatedAt = now

	if l.ResolveStatus() == StatusCompleted {
		l.Status = StatusCompleted
		completedAt := now
		l.CompletedAt = &completedAt
	}

	return record, nil
}
