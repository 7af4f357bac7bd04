package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	t.Run("should read calendar dates in the given zone", func(t *testing.T) {
		got, err := ParseDate("asOf", "2024-01-10", ist)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, ist)))
	})

	t.Run("should accept RFC 3339 timestamps", func(t *testing.T) {
		got, err := ParseDate("date", "2024-01-10T08:30:00Z", ist)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC)))
	})

	t.Run("should reject anything else with the field name", func(t *testing.T) {
		_, err := ParseDate("asOf", "10/01/2024", nil)
		var ve *apperrors.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "asOf", ve.Field)
	})
}

func TestIssueLoanRequestToLoanRequest(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("should parse decimal strings without float rounding", func(t *testing.T) {
		req := IssueLoanRequest{LoanAmount: "10000.10", InterestRate: "7.25", EmiType: "weekly", TenureDays: 70}
		got, err := req.ToLoanRequest(now, nil)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("10000.10").Equal(got.Terms.LoanAmount))
		assert.True(t, decimal.RequireFromString("7.25").Equal(got.Terms.InterestRate))
		assert.Equal(t, loan.EmiWeekly, got.Terms.EmiType)
		assert.Equal(t, now, got.Terms.StartDate)
	})

	t.Run("should flag the offending field", func(t *testing.T) {
		cases := map[string]IssueLoanRequest{
			"loanAmount":   {LoanAmount: "ten", InterestRate: "10", EmiType: "Daily", TenureDays: 10},
			"interestRate": {LoanAmount: "100", EmiType: "Daily", TenureDays: 10},
			"tenureDays":   {LoanAmount: "100", InterestRate: "10", EmiType: "Daily", TenureDays: -1},
			"startDate":    {LoanAmount: "100", InterestRate: "10", EmiType: "Daily", TenureDays: 10, StartDate: "soon"},
		}
		for field, req := range cases {
			_, err := req.ToLoanRequest(now, nil)
			var ve *apperrors.ValidationError
			require.True(t, errors.As(err, &ve), field)
			assert.Equal(t, field, ve.Field)
		}
	})
}

func TestCollectEmiRequestToCollection(t *testing.T) {
	req := CollectEmiRequest{
		AmountCollected: "250.50",
		PaymentMode:     " Cheque ",
		ReceiverName:    "Ramesh",
		CollectedBy:     4,
		Location:        &LocationDTO{Lat: 19.1, Lng: 72.8, Address: " Market road "},
		Date:            "2024-01-05",
	}
	c, err := req.ToCollection(11, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, int64(11), c.LoanID)
	assert.Equal(t, loan.ModeCheque, c.PaymentMode)
	assert.Equal(t, "Market road", c.Location.Address)
	assert.True(t, decimal.RequireFromString("250.5").Equal(c.Amount))
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), c.CollectedAt)

	t.Run("body ids must agree with the path", func(t *testing.T) {
		withIDs := req
		withIDs.LoanID = 11
		withIDs.ClientID = 3
		c, err := withIDs.ToCollection(11, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, int64(3), c.ClientID)

		withIDs.LoanID = 12
		_, err = withIDs.ToCollection(11, time.UTC)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCollection)
	})
}

func TestNewLoanResponse(t *testing.T) {
	l := &loan.Loan{
		LoanAmount:      decimal.NewFromInt(1000),
		InterestRate:    decimal.NewFromInt(10),
		EmiAmount:       decimal.RequireFromString("142.857"),
		DisbursedAmount: decimal.NewFromInt(900),
		TotalPayable:    decimal.NewFromInt(1000),
		TotalCollected:  decimal.Zero,
		TotalAmountLeft: decimal.NewFromInt(1000),
		EmiRecords:      []loan.EmiRecord{{ID: 1, AmountCollected: decimal.NewFromInt(143)}},
	}

	assert.Equal(t, "143.00", NewLoanResponse(l, false).EmiAmount)
	assert.Nil(t, NewLoanResponse(l, false).EmiRecords)
	assert.Len(t, NewLoanResponse(l, true).EmiRecords, 1)
}
