package loan

import (
	"strings"
	"testing"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func scenarioATerms() Terms {
	return Terms{
		LoanAmount:   dec("10000"),
		InterestRate: dec("10"),
		EmiType:      EmiDaily,
		TenureDays:   100,
		StartDate:    date(2024, 1, 1),
	}
}

func newTestLoan(t *testing.T, terms Terms) *Loan {
	t.Helper()
	l, err := NewLoan(terms, "", "staff@example.com", date(2024, 1, 1))
	require.NoError(t, err)
	l.ID = 1
	l.ClientID = 10
	return l
}

func TestNewLoan(t *testing.T) {
	t.Run("should create an ongoing loan with derived terms", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
		l, err := NewLoan(scenarioATerms(), "LN-001", "staff@example.com", now)

		require.NoError(t, err)
		assert.Equal(t, "LN-001", l.LoanNumber)
		assert.Equal(t, StatusOngoing, l.Status)
		assertDecimal(t, "9000", l.DisbursedAmount)
		assertDecimal(t, "10000", l.TotalPayable)
		assertDecimal(t, "100", l.EmiAmount)
		assertDecimal(t, "0", l.TotalCollected)
		assertDecimal(t, "10000", l.TotalAmountLeft)
		assert.Equal(t, date(2024, 4, 10), l.DueDate)
		assert.Empty(t, l.EmiRecords)
		assert.Nil(t, l.CompletedAt)
		assert.Equal(t, now, l.CreatedAt)
		assert.Equal(t, "staff@example.com", l.CreatedBy)
	})

	t.Run("should generate a loan number when none is given", func(t *testing.T) {
		l, err := NewLoan(scenarioATerms(), "  ", "", date(2024, 1, 1))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(l.LoanNumber, "LN-"))
	})

	t.Run("should reject invalid terms", func(t *testing.T) {
		terms := scenarioATerms()
		terms.LoanAmount = decimal.Zero
		l, err := NewLoan(terms, "", "", date(2024, 1, 1))
		assert.ErrorIs(t, err, apperrors.ErrInvalidTerms)
		assert.Nil(t, l)
	})
}

func TestGenerateLoanNumber(t *testing.T) {
	a := GenerateLoanNumber()
	b := GenerateLoanNumber()

	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("LN-")+32)
	assert.Equal(t, strings.ToUpper(a), a)
}

func TestParseEmiType(t *testing.T) {
	tests := []struct {
		input    string
		expected EmiType
	}{
		{"Daily", EmiDaily},
		{"weekly", EmiWeekly},
		{" MONTHLY ", EmiMonthly},
		{"FullPayment", EmiFullPayment},
		{"full payment", EmiFullPayment},
		{"full_payment", EmiFullPayment},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEmiType(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	t.Run("unknown cadence", func(t *testing.T) {
		_, err := ParseEmiType("Yearly")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTerms)
	})
}

func TestRoundedEmi(t *testing.T) {
	l := &Loan{EmiAmount: dec("333.3333333333333333")}
	assertDecimal(t, "333", l.RoundedEmi())

	l.EmiAmount = dec("166.6666666666666667")
	assertDecimal(t, "167", l.RoundedEmi())
}
