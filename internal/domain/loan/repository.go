package loan

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type Repository interface {
	CreateLoan(ctx context.Context, loan *Loan) (*Loan, error)

	LoanNumberExists(ctx context.Context, loanNumber string) (bool, error)

	GetLoanByID(ctx context.Context, loanID int64) (*Loan, error)

	GetLoanByNumber(ctx context.Context, loanNumber string) (*Loan, error)

	// FindLoanForUpdate loads the loan with its records and holds the row lock until tx ends.
	FindLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*Loan, error)

	FindEmiByRequestKeyInTx(ctx context.Context, tx pgx.Tx, loanID int64, requestKey string) (*EmiRecord, error)

	InsertEmiRecordInTx(ctx context.Context, tx pgx.Tx, record *EmiRecord) (*EmiRecord, error)

	UpdateLoanProgressInTx(ctx context.Context, tx pgx.Tx, loan *Loan) error

	BeginTx(ctx context.Context) (pgx.Tx, error)

	CommitTx(ctx context.Context, tx pgx.Tx) error

	RollbackTx(ctx context.Context, tx pgx.Tx) error
}
