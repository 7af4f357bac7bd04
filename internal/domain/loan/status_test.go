package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectCash(t *testing.T, l *Loan, amount string, at time.Time) EmiRecord {
	t.Helper()
	rec, err := l.ApplyCollection(Collection{
		LoanID:      l.ID,
		Amount:      dec(amount),
		PaymentMode: ModeCash,
		CollectedBy: 7,
		CollectedAt: at,
	}, at)
	require.NoError(t, err)
	return rec
}

func TestCollectionPoints(t *testing.T) {
	t.Run("daily points start the day after the start date", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		points := l.CollectionPoints()

		require.Len(t, points, 100)
		assert.Equal(t, date(2024, 1, 2), points[0])
		assert.Equal(t, date(2024, 4, 10), points[99])
	})

	t.Run("weekly points are clamped to the due date", func(t *testing.T) {
		terms := scenarioATerms()
		terms.EmiType = EmiWeekly
		terms.TenureDays = 30
		l := newTestLoan(t, terms)

		assert.Equal(t, []time.Time{
			date(2024, 1, 8), date(2024, 1, 15), date(2024, 1, 22), date(2024, 1, 29), date(2024, 1, 31),
		}, l.CollectionPoints())
	})

	t.Run("monthly points are thirty days apart", func(t *testing.T) {
		terms := scenarioATerms()
		terms.EmiType = EmiMonthly
		terms.TenureDays = 0
		terms.TenureMonths = 2
		l := newTestLoan(t, terms)

		assert.Equal(t, []time.Time{date(2024, 1, 31), date(2024, 3, 1)}, l.CollectionPoints())
	})

	t.Run("full payment has a single point on the due date", func(t *testing.T) {
		terms := scenarioATerms()
		terms.EmiType = EmiFullPayment
		terms.TenureDays = 30
		l := newTestLoan(t, terms)

		assert.Equal(t, []time.Time{date(2024, 1, 31)}, l.CollectionPoints())
	})
}

func TestIsInDefault(t *testing.T) {
	t.Run("no point has elapsed on the start date", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		assert.False(t, IsInDefault(l, date(2024, 1, 1)))
		assert.False(t, IsInDefault(l, time.Date(2024, 1, 2, 23, 0, 0, 0, time.UTC)))
	})

	t.Run("a passed point without collections is a default", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		assert.True(t, IsInDefault(l, date(2024, 1, 3)))
	})

	t.Run("the day boundary follows the zone of asOf", func(t *testing.T) {
		ist := time.FixedZone("IST", 5*3600+1800)
		l := newTestLoan(t, scenarioATerms())

		// 23:00 IST on Jan 2 is 17:30 UTC, still the first point's own day.
		assert.False(t, IsInDefault(l, time.Date(2024, 1, 2, 23, 0, 0, 0, ist)))
		// 00:30 IST on Jan 3 is 19:00 UTC on Jan 2, but the IST day has moved on.
		assert.True(t, IsInDefault(l, time.Date(2024, 1, 3, 0, 30, 0, 0, ist)))
	})

	t.Run("collections covering every passed point clear the default", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		collectCash(t, l, "100", date(2024, 1, 2))
		collectCash(t, l, "100", date(2024, 1, 3))

		assert.False(t, IsInDefault(l, date(2024, 1, 4)))
		assert.True(t, IsInDefault(l, date(2024, 1, 5)))
	})

	t.Run("an ongoing loan past its due date with a shortfall is in default", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		collectCash(t, l, "5000", date(2024, 2, 1))

		assert.True(t, IsInDefault(l, date(2024, 6, 1)))
		assertDecimal(t, "10000", l.ExpectedByNow(date(2024, 6, 1)))
	})

	t.Run("a completed loan is never in default", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		l.Status = StatusCompleted

		assert.False(t, IsInDefault(l, date(2030, 1, 1)))
	})

	t.Run("the predicate does not mutate the loan", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		before := *l

		_ = IsInDefault(l, date(2024, 6, 1))
		assert.Equal(t, before, *l)
	})

	t.Run("nil loan", func(t *testing.T) {
		assert.False(t, IsInDefault(nil, date(2024, 1, 1)))
	})
}

func TestOverdueAndMissedEmis(t *testing.T) {
	l := newTestLoan(t, scenarioATerms())
	collectCash(t, l, "100", date(2024, 1, 2))

	asOf := date(2024, 1, 6)
	assert.Equal(t, 4, l.ElapsedPoints(asOf))
	assertDecimal(t, "400", l.ExpectedByNow(asOf))
	assertDecimal(t, "300", Overdue(l, asOf))
	assert.Equal(t, 3, MissedEmis(l, asOf))

	collectCash(t, l, "300", date(2024, 1, 6))
	assertDecimal(t, "0", Overdue(l, asOf))
	assert.Equal(t, 0, MissedEmis(l, asOf))
}

func TestResolveStatus(t *testing.T) {
	t.Run("completes when the payable amount is collected", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		l.TotalCollected = dec("10000")
		assert.Equal(t, StatusCompleted, l.ResolveStatus())
	})

	t.Run("completes when every scheduled emi is paid despite rounding", func(t *testing.T) {
		l := newTestLoan(t, Terms{
			LoanAmount:   dec("1000"),
			InterestRate: dec("10"),
			EmiType:      EmiDaily,
			TenureDays:   3,
			StartDate:    date(2024, 1, 1),
		})
		collectCash(t, l, "333", date(2024, 1, 2))
		collectCash(t, l, "333", date(2024, 1, 3))
		assert.Equal(t, StatusOngoing, l.Status)

		collectCash(t, l, "333", date(2024, 1, 4))
		assertDecimal(t, "999", l.TotalCollected)
		assert.Equal(t, StatusCompleted, l.Status)
	})

	t.Run("partial records count toward the scheduled emi count", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		for i := 1; i <= 99; i++ {
			collectCash(t, l, "50", date(2024, 1, 1).AddDate(0, 0, i))
		}
		assert.Equal(t, StatusOngoing, l.Status)

		collectCash(t, l, "50", date(2024, 4, 10))

		assert.Equal(t, 0, l.PaidEmiCount())
		assert.Len(t, l.EmiRecords, 100)
		assertDecimal(t, "5000", l.TotalCollected)
		assertDecimal(t, "5000", l.TotalAmountLeft)
		assert.Equal(t, StatusCompleted, l.Status)
	})

	t.Run("a partial full payment stays ongoing", func(t *testing.T) {
		terms := scenarioATerms()
		terms.EmiType = EmiFullPayment
		terms.LoanAmount = dec("5000")
		terms.TenureDays = 30
		l := newTestLoan(t, terms)
		collectCash(t, l, "3000", date(2024, 1, 10))

		assert.Equal(t, StatusOngoing, l.ResolveStatus())
	})

	t.Run("completed never reverts", func(t *testing.T) {
		l := newTestLoan(t, scenarioATerms())
		l.Status = StatusCompleted
		l.TotalCollected = dec("0")

		assert.Equal(t, StatusCompleted, l.ResolveStatus())
	})
}

func TestNewStatusReport(t *testing.T) {
	l := newTestLoan(t, scenarioATerms())
	l.LoanNumber = "LN-42"
	collectCash(t, l, "100", date(2024, 1, 2))

	r := NewStatusReport(l, date(2024, 1, 4))

	assert.Equal(t, "LN-42", r.LoanNumber)
	assert.Equal(t, StatusOngoing, r.Status)
	assert.True(t, r.InDefault)
	assert.Equal(t, 1, r.MissedEmis)
	assertDecimal(t, "100", r.Overdue)
	assert.Equal(t, 1, r.PaidEmis)
	assert.Equal(t, 100, r.ScheduledEmis)
	assertDecimal(t, "9900", r.TotalAmountLeft)
}
