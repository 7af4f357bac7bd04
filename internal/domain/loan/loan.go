package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EmiType string

const (
	EmiDaily       EmiType = "Daily"
	EmiWeekly      EmiType = "Weekly"
	EmiMonthly     EmiType = "Monthly"
	EmiFullPayment EmiType = "FullPayment"
)

func (t EmiType) Valid() bool {
	switch t {
	case EmiDaily, EmiWeekly, EmiMonthly, EmiFullPayment:
		return true
	}
	return false
}

// ParseEmiType accepts the cadence names case-insensitively, with or without separators
// ("full payment", "full_payment").
func ParseEmiType(s string) (EmiType, error) {
	normalized := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	switch normalized {
	case "daily":
		return EmiDaily, nil
	case "weekly":
		return EmiWeekly, nil
	case "monthly":
		return EmiMonthly, nil
	case "fullpayment":
		return EmiFullPayment, nil
	}
	return "", apperrors.NewValidationError(apperrors.ErrInvalidTerms, "emiType", fmt.Sprintf("unknown emi type %q", s))
}

type LoanStatus string

const (
	StatusOngoing   LoanStatus = "Ongoing"
	StatusCompleted LoanStatus = "Completed"
)

type PaymentStatus string

const (
	PaymentPaid      PaymentStatus = "Paid"
	PaymentPartial   PaymentStatus = "Partial"
	PaymentDefaulted PaymentStatus = "Defaulted"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPartial, PaymentDefaulted:
		return true
	}
	return false
}

type PaymentMode string

const (
	ModeCash   PaymentMode = "Cash"
	ModeCheque PaymentMode = "Cheque"
	ModeOnline PaymentMode = "Online"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeCheque, ModeOnline:
		return true
	}
	return false
}

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lng != 0
}

type Loan struct {
	ID         int64
	ClientID   int64
	LoanNumber string

	LoanAmount   decimal.Decimal
	InterestRate decimal.Decimal
	EmiType      EmiType
	TenureDays   int
	TenureMonths int
	TotalEmis    int
	StartDate    time.Time

	DisbursedAmount decimal.Decimal
	TotalPayable    decimal.Decimal
	EmiAmount       decimal.Decimal
	DueDate         time.Time

	TotalCollected  decimal.Decimal
	TotalAmountLeft decimal.Decimal
	Status          LoanStatus
	CompletedAt     *time.Time
	EmiRecords      []EmiRecord

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmiRecord is append-only. Corrections are recorded as new records.
type EmiRecord struct {
	ID              int64
	LoanID          int64
	Date            time.Time
	AmountCollected decimal.Decimal
	Status          PaymentStatus
	CollectedBy     int64
	PaymentMode     PaymentMode
	ReceiverName    string
	Location        Location
	RequestKey      string
	CreatedAt       time.Time
}

// NewLoan runs the schedule calculator over terms and returns an Ongoing loan with no
// collections. An empty loanNumber is replaced with a generated one.
func NewLoan(terms Terms, loanNumber, createdBy string, now time.Time) (*Loan, error) {
	sched, err := CalculateTerms(terms)
	if err != nil {
		return nil, err
	}

	loanNumber = strings.TrimSpace(loanNumber)
	if loanNumber == "" {
		loanNumber = GenerateLoanNumber()
	}

	return &Loan{
		LoanNumber:      loanNumber,
		LoanAmount:      terms.LoanAmount,
		InterestRate:    terms.InterestRate,
		EmiType:         terms.EmiType,
		TenureDays:      sched.TenureDays,
		TenureMonths:    sched.TenureMonths,
		TotalEmis:       terms.TotalEmis,
		StartDate:       sched.StartDate,
		DisbursedAmount: sched.DisbursedAmount,
		TotalPayable:    sched.TotalPayable,
		EmiAmount:       sched.EmiAmount,
		DueDate:         sched.DueDate,
		TotalCollected:  decimal.Zero,
		TotalAmountLeft: sched.TotalPayable,
		Status:          StatusOngoing,
		EmiRecords:      []EmiRecord{},
		CreatedBy:       createdBy,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func GenerateLoanNumber() string {
	return "LN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// RoundedEmi is the EMI in whole currency units, as shown to agents.
func (l *Loan) RoundedEmi() decimal.Decimal {
	return l.EmiAmount.Round(0)
}

func (l *Loan) PaidEmiCount() int {
	count := 0
	for _, r := range l.EmiRecords {
		if r.Status == PaymentPaid {
			count++
		}
	}
	return count
}

type Summary struct {
	LoanID          int64
	LoanNumber      string
	TotalCollected  decimal.Decimal
	TotalAmountLeft decimal.Decimal
	Status          LoanStatus
}

func (l *Loan) Summary() Summary {
	return Summary{
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		TotalCollected:  l.TotalCollected,
		TotalAmountLeft: l.TotalAmountLeft,
		Status:          l.Status,
	}
}
