package postgres

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const pgxmockExpectationsNotMetMsg = "there were unfulfilled pgxmock expectations"

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	loanColumnNames = []string{
		"id", "client_id", "loan_number", "loan_amount", "interest_rate", "emi_type", "tenure_days", "tenure_months",
		"total_emis", "start_date", "disbursed_amount", "total_payable", "emi_amount", "due_date", "total_collected",
		"total_amount_left", "status", "completed_at", "created_by", "created_at", "updated_at",
	}
	emiColumnNames = []string{
		"id", "loan_id", "collected_at", "amount_collected", "status", "collected_by", "payment_mode", "receiver_name",
		"lat", "lng", "location_address", "request_key", "created_at",
	}
	clientColumnNames = []string{
		"id", "name", "email", "address_temporary", "address_permanent", "address_shop", "address_house", "photo_refs",
		"referral_name", "referral_phone", "lat", "lng", "location_address", "created_by", "created_at", "updated_at",
	}
)

var created = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to open a stub database connection")
	t.Cleanup(mockPool.Close)
	return mockPool
}

// testLoan is the 10000 @ 10% daily loan over 100 days.
func testLoan(t *testing.T) *loan.Loan {
	t.Helper()
	l, err := loan.NewLoan(loan.Terms{
		LoanAmount:   decimal.NewFromInt(10000),
		InterestRate: decimal.NewFromInt(10),
		EmiType:      loan.EmiDaily,
		TenureDays:   100,
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, "LN-0001", "admin", created)
	require.NoError(t, err)
	l.ClientID = 10
	return l
}

// loanRow renders l as a result row; numeric columns are returned as text the way the
// driver hands them to sql.Scanner implementations.
func loanRow(id int64, l *loan.Loan) []any {
	return []any{
		id, l.ClientID, l.LoanNumber, l.LoanAmount.String(), l.InterestRate.String(), string(l.EmiType), l.TenureDays,
		l.TenureMonths, l.TotalEmis, l.StartDate, l.DisbursedAmount.String(), l.TotalPayable.String(),
		l.EmiAmount.String(), l.DueDate, l.TotalCollected.String(), l.TotalAmountLeft.String(), string(l.Status),
		nil, l.CreatedBy, l.CreatedAt, l.UpdatedAt,
	}
}

func emiRow(id, loanID int64, amount string, agentID int64, requestKey string) []any {
	return []any{
		id, loanID, created, amount, string(loan.PaymentPaid), agentID, string(loan.ModeCash), "",
		28.6139, 77.2090, "Delhi", requestKey, created,
	}
}
