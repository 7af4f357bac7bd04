package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResolveStatus is the single place that decides whether a loan is complete. A loan
// completes when the collected total reaches the payable total or when the number of
// recorded EMIs, whatever their status, reaches the scheduled count. Completed is terminal.
func (l *Loan) ResolveStatus() LoanStatus {
	if l.Status == StatusCompleted {
		return StatusCompleted
	}
	if l.TotalCollected.GreaterThanOrEqual(l.TotalPayable) {
		return StatusCompleted
	}
	if scheduled := l.ScheduledEmiCount(); scheduled > 0 && len(l.EmiRecords) >= scheduled {
		return StatusCompleted
	}
	return StatusOngoing
}

// CollectionPoints lists the dates on which an installment is expected. Points never
// fall after the due date.
func (l *Loan) CollectionPoints() []time.Time {
	count := l.ScheduledEmiCount()
	if count <= 0 {
		return nil
	}
	if l.EmiType == EmiFullPayment && l.TotalEmis <= 1 {
		return []time.Time{l.DueDate}
	}

	step := 1
	switch l.EmiType {
	case EmiWeekly:
		step = daysPerWeek
	case EmiMonthly:
		step = daysPerMonth
	case EmiFullPayment:
		step = max(1, l.TenureDays/count)
	}

	points := make([]time.Time, 0, count)
	for k := 1; k <= count; k++ {
		p := l.StartDate.AddDate(0, 0, k*step)
		if p.After(l.DueDate) || k == count {
			p = l.DueDate
		}
		points = append(points, p)
	}
	return points
}

// ElapsedPoints counts collection points whose calendar day is strictly before asOf's.
// asOf's day is read in its own zone, so callers pass it in the reporting zone.
func (l *Loan) ElapsedPoints(asOf time.Time) int {
	today := civilDate(asOf)
	elapsed := 0
	for _, p := range l.CollectionPoints() {
		if civilDate(p).Before(today) {
			elapsed++
		}
	}
	return elapsed
}

// ExpectedByNow is the amount that should have been collected by asOf.
func (l *Loan) ExpectedByNow(asOf time.Time) decimal.Decimal {
	elapsed := l.ElapsedPoints(asOf)
	if elapsed == 0 {
		return decimal.Zero
	}
	if elapsed >= l.ScheduledEmiCount() {
		return l.TotalPayable
	}
	return decimal.Min(l.RoundedEmi().Mul(decimal.NewFromInt(int64(elapsed))), l.TotalPayable)
}

// IsInDefault reports whether an Ongoing loan has a passed collection point that its
// recorded collections do not cover. It never mutates the loan.
func IsInDefault(l *Loan, asOf time.Time) bool {
	if l == nil || l.ResolveStatus() == StatusCompleted {
		return false
	}
	return l.TotalCollected.LessThan(l.ExpectedByNow(asOf))
}

// Overdue is the shortfall against ExpectedByNow, never negative.
func Overdue(l *Loan, asOf time.Time) decimal.Decimal {
	if !IsInDefault(l, asOf) {
		return decimal.Zero
	}
	return l.ExpectedByNow(asOf).Sub(l.TotalCollected)
}

// MissedEmis approximates how many installments the overdue amount represents.
func MissedEmis(l *Loan, asOf time.Time) int {
	overdue := Overdue(l, asOf)
	if overdue.IsZero() {
		return 0
	}
	emi := l.RoundedEmi()
	if emi.LessThanOrEqual(decimal.Zero) {
		return 1
	}
	return int(overdue.Div(emi).Ceil().IntPart())
}

type StatusReport struct {
	LoanID          int64
	LoanNumber      string
	Status          LoanStatus
	InDefault       bool
	MissedEmis      int
	Overdue         decimal.Decimal
	PaidEmis        int
	ScheduledEmis   int
	TotalCollected  decimal.Decimal
	TotalAmountLeft decimal.Decimal
	DueDate         time.Time
	AsOf            time.Time
}

func NewStatusReport(l *Loan, asOf time.Time) StatusReport {
	return StatusReport{
		LoanID:          l.ID,
		LoanNumber:      l.LoanNumber,
		Status:          l.ResolveStatus(),
		InDefault:       IsInDefault(l, asOf),
		MissedEmis:      MissedEmis(l, asOf),
		Overdue:         Overdue(l, asOf),
		PaidEmis:        l.PaidEmiCount(),
		ScheduledEmis:   l.ScheduledEmiCount(),
		TotalCollected:  l.TotalCollected,
		TotalAmountLeft: l.TotalAmountLeft,
		DueDate:         l.DueDate,
		AsOf:            asOf,
	}
}
