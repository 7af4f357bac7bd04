package loan

import (
	"fmt"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

const (
	daysPerMonth = 30
	daysPerWeek  = 7
)

var hundred = decimal.NewFromInt(100)

// Terms are the commercial terms a loan is issued with.
type Terms struct {
	LoanAmount   decimal.Decimal
	InterestRate decimal.Decimal
	EmiType      EmiType
	TenureDays   int
	TenureMonths int
	TotalEmis    int
	StartDate    time.Time
}

// ScheduleTerms is what CalculateTerms derives from Terms.
type ScheduleTerms struct {
	StartDate       time.Time
	TenureDays      int
	TenureMonths    int
	ScheduledEmis   int
	EmiAmount       decimal.Decimal
	Interest        decimal.Decimal
	DisbursedAmount decimal.Decimal
	TotalPayable    decimal.Decimal
	DueDate         time.Time
}

// CalculateTerms converts loan terms into the repayment schedule. Interest is flat and
// deducted up front: the borrower receives loanAmount - interest and repays loanAmount.
// Monthly tenures use 30-day months.
func CalculateTerms(t Terms) (ScheduleTerms, error) {
	if err := t.validate(); err != nil {
		return ScheduleTerms{}, err
	}

	start := civilDate(t.StartDate)
	tenureDays := t.TenureDays
	tenureMonths := t.TenureMonths

	if t.EmiType == EmiMonthly {
		if tenureDays <= 0 {
			tenureDays = tenureMonths * daysPerMonth
		}
		if tenureMonths <= 0 {
			tenureMonths = ceilDiv(tenureDays, daysPerMonth)
		}
	}

	var emi decimal.Decimal
	switch t.EmiType {
	case EmiDaily:
		emi = t.LoanAmount.Div(decimal.NewFromInt(int64(tenureDays)))
	case EmiWeekly:
		emi = t.LoanAmount.Div(decimal.NewFromInt(int64(ceilDiv(tenureDays, daysPerWeek))))
	case EmiMonthly:
		emi = t.LoanAmount.Div(decimal.NewFromInt(int64(tenureMonths)))
	case EmiFullPayment:
		emi = t.LoanAmount
	}

	interest := t.LoanAmount.Mul(t.InterestRate).Div(hundred)
	out := ScheduleTerms{
		StartDate:       start,
		TenureDays:      tenureDays,
		TenureMonths:    tenureMonths,
		ScheduledEmis:   scheduledEmiCount(t.EmiType, tenureDays, tenureMonths, t.TotalEmis),
		EmiAmount:       emi,
		Interest:        interest,
		DisbursedAmount: t.LoanAmount.Sub(interest),
		TotalPayable:    t.LoanAmount,
		DueDate:         start.AddDate(0, 0, tenureDays),
	}

	if err := out.check(); err != nil {
		return ScheduleTerms{}, err
	}
	return out, nil
}

func (t Terms) validate() error {
	if t.LoanAmount.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError(apperrors.ErrInvalidTerms, "loanAmount", "must be greater than zero")
	}
	if t.InterestRate.LessThanOrEqual(decimal.Zero) {
		return apperrors.NewValidationError(apperrors.ErrInvalidTerms, "interestRate", "must be greater than zero")
	}
	if !t.EmiType.Valid() {
		return apperrors.NewValidationError(apperrors.ErrInvalidTerms, "emiType", fmt.Sprintf("unknown emi type %q", t.EmiType))
	}
	if t.TenureDays < 0 || t.TenureMonths < 0 || t.TotalEmis < 0 {
		return apperrors.NewValidationError(apperrors.ErrInvalidTerms, "tenure", "tenure values cannot be negative")
	}
	switch t.EmiType {
	case EmiMonthly:
		if t.TenureMonths == 0 && t.TenureDays == 0 {
			return apperrors.NewValidationError(apperrors.ErrInvalidTerms, "tenureMonths", "monthly loans need tenureMonths or tenureDays")
		}
	default:
		if t.TenureDays == 0 {
			return apperrors.NewValidationError(apperrors.ErrInvalidTerms, "tenureDays", fmt.Sprintf("%s loans need tenureDays", t.EmiType))
		}
	}
	if t.StartDate.IsZero() {
		return apperrors.NewValidationError(apperrors.ErrInvalidTerms, "startDate", "is required")
	}
	return nil
}

func (s ScheduleTerms) check() error {
	if s.EmiAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: emi amount %s is not positive", apperrors.ErrCalculation, s.EmiAmount)
	}
	if s.DisbursedAmount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: disbursed amount %s is not positive", apperrors.ErrCalculation, s.DisbursedAmount)
	}
	if !s.DueDate.After(s.StartDate) {
		return fmt.Errorf("%w: due date %s is not after start date %s",
			apperrors.ErrCalculation, s.DueDate.Format(time.DateOnly), s.StartDate.Format(time.DateOnly))
	}
	if s.ScheduledEmis <= 0 {
		return fmt.Errorf("%w: scheduled emi count %d is not positive", apperrors.ErrCalculation, s.ScheduledEmis)
	}
	return nil
}

func scheduledEmiCount(emiType EmiType, tenureDays, tenureMonths, totalEmis int) int {
	if totalEmis > 0 {
		return totalEmis
	}
	switch emiType {
	case EmiDaily:
		return tenureDays
	case EmiWeekly:
		return ceilDiv(tenureDays, daysPerWeek)
	case EmiMonthly:
		if tenureMonths > 0 {
			return tenureMonths
		}
		return ceilDiv(tenureDays, daysPerMonth)
	case EmiFullPayment:
		// One installment is due, but a full payment loan only completes by count
		// after as many visits as it has tenure days.
		return tenureDays
	}
	return 0
}

// ScheduledEmiCount is the number of installments the loan is expected to be repaid in.
func (l *Loan) ScheduledEmiCount() int {
	return scheduledEmiCount(l.EmiType, l.TenureDays, l.TenureMonths, l.TotalEmis)
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// civilDate keeps the calendar day t falls on in its own zone and pins it to UTC
// midnight, which is how DATE columns come back from the database.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
