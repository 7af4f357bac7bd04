package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
)

const loanColumns = `id, client_id, loan_number, loan_amount, interest_rate, emi_type, tenure_days, tenure_months,
        total_emis, start_date, disbursed_amount, total_payable, emi_amount, due_date, total_collected,
        total_amount_left, status, completed_at, created_by, created_at, updated_at`

const emiColumns = `id, loan_id, collected_at, amount_collected, status, collected_by, payment_mode, receiver_name,
        lat, lng, location_address, COALESCE(request_key, ''), created_at`

type LoanRepository struct {
	txManager
	db     DBPool
	logger *slog.Logger
}

var _ loan.Repository = (*LoanRepository)(nil)

var _ client.LoanStore = (*LoanRepository)(nil)

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	l := logger.With("component", "LoanRepository")
	return &LoanRepository{txManager: txManager{db: db, logger: l}, db: db, logger: l}
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	var emiType, status string
	err := row.Scan(
		&l.ID, &l.ClientID, &l.LoanNumber, &l.LoanAmount, &l.InterestRate, &emiType, &l.TenureDays, &l.TenureMonths,
		&l.TotalEmis, &l.StartDate, &l.DisbursedAmount, &l.TotalPayable, &l.EmiAmount, &l.DueDate, &l.TotalCollected,
		&l.TotalAmountLeft, &status, &l.CompletedAt, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.EmiType = loan.EmiType(emiType)
	l.Status = loan.LoanStatus(status)
	l.EmiRecords = []loan.EmiRecord{}
	return &l, nil
}

func scanEmiRecord(row pgx.Row) (*loan.EmiRecord, error) {
	var r loan.EmiRecord
	var status, mode string
	err := row.Scan(
		&r.ID, &r.LoanID, &r.Date, &r.AmountCollected, &status, &r.CollectedBy, &mode, &r.ReceiverName,
		&r.Location.Lat, &r.Location.Lng, &r.Location.Address, &r.RequestKey, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = loan.PaymentStatus(status)
	r.PaymentMode = loan.PaymentMode(mode)
	return &r, nil
}

func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan) (*loan.Loan, error) {
	query := `
        INSERT INTO loans (client_id, loan_number, loan_amount, interest_rate, emi_type, tenure_days, tenure_months,
            total_emis, start_date, disbursed_amount, total_payable, emi_amount, due_date, total_collected,
            total_amount_left, status, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $18)
        RETURNING id, created_at, updated_at`

	start := time.Now()
	created := *newLoan
	err := r.db.QueryRow(ctx, query,
		newLoan.ClientID, newLoan.LoanNumber, newLoan.LoanAmount, newLoan.InterestRate, string(newLoan.EmiType),
		newLoan.TenureDays, newLoan.TenureMonths, newLoan.TotalEmis, newLoan.StartDate, newLoan.DisbursedAmount,
		newLoan.TotalPayable, newLoan.EmiAmount, newLoan.DueDate, newLoan.TotalCollected, newLoan.TotalAmountLeft,
		string(newLoan.Status), newLoan.CreatedBy, newLoan.CreatedAt,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	observe("CreateLoan", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "loan_number", newLoan.LoanNumber, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	if created.EmiRecords == nil {
		created.EmiRecords = []loan.EmiRecord{}
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", created.ID, "client_id", created.ClientID)
	return &created, nil
}

func (r *LoanRepository) LoanNumberExists(ctx context.Context, loanNumber string) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loans WHERE loan_number = $1)`, loanNumber).Scan(&exists)
	observe("LoanNumberExists", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check loan number", "loan_number", loanNumber, "error", err)
		return false, apperrors.WrapDatabaseError(err)
	}
	return exists, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID int64) (*loan.Loan, error) {
	return r.getLoan(ctx, "GetLoanByID", `SELECT `+loanColumns+` FROM loans WHERE id = $1`, loanID)
}

func (r *LoanRepository) GetLoanByNumber(ctx context.Context, loanNumber string) (*loan.Loan, error) {
	return r.getLoan(ctx, "GetLoanByNumber", `SELECT `+loanColumns+` FROM loans WHERE loan_number = $1`, loanNumber)
}

func (r *LoanRepository) getLoan(ctx context.Context, name, query string, arg any) (*loan.Loan, error) {
	start := time.Now()
	l, err := scanLoan(r.db.QueryRow(ctx, query, arg))
	observe(name, start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "lookup", arg)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan", "lookup", arg, "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}

	records, err := r.listEmiRecords(ctx, r.db, l.ID)
	if err != nil {
		return nil, err
	}
	l.EmiRecords = records
	return l, nil
}

func (r *LoanRepository) FindLoanForUpdate(ctx context.Context, tx pgx.Tx, loanID int64) (*loan.Loan, error) {
	start := time.Now()
	l, err := scanLoan(tx.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, loanID))
	observe("FindLoanForUpdate", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found for update", "loan_id", loanID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find/lock loan", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}

	records, err := r.listEmiRecords(ctx, tx, loanID)
	if err != nil {
		return nil, err
	}
	l.EmiRecords = records
	return l, nil
}

func (r *LoanRepository) listEmiRecords(ctx context.Context, q querier, loanID int64) ([]loan.EmiRecord, error) {
	start := time.Now()
	rows, err := q.Query(ctx, `SELECT `+emiColumns+` FROM emi_records WHERE loan_id = $1 ORDER BY id ASC`, loanID)
	if err != nil {
		observe("ListEmiRecords", start, err)
		r.logger.ErrorContext(ctx, "Failed to query emi records", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}
	defer rows.Close()

	records := make([]loan.EmiRecord, 0)
	for rows.Next() {
		rec, err := scanEmiRecord(rows)
		if err != nil {
			observe("ListEmiRecords", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan emi record row", "loan_id", loanID, "error", err)
			return nil, apperrors.WrapDatabaseError(err)
		}
		records = append(records, *rec)
	}
	err = rows.Err()
	observe("ListEmiRecords", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating emi record rows", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}
	return records, nil
}

func (r *LoanRepository) FindEmiByRequestKeyInTx(ctx context.Context, tx pgx.Tx, loanID int64, requestKey string) (*loan.EmiRecord, error) {
	start := time.Now()
	rec, err := scanEmiRecord(tx.QueryRow(ctx,
		`SELECT `+emiColumns+` FROM emi_records WHERE loan_id = $1 AND request_key = $2`, loanID, requestKey))
	observe("FindEmiByRequestKey", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to look up emi record by request key", "loan_id", loanID, "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}
	return rec, nil
}

func (r *LoanRepository) InsertEmiRecordInTx(ctx context.Context, tx pgx.Tx, record *loan.EmiRecord) (*loan.EmiRecord, error) {
	query := `
        INSERT INTO emi_records (loan_id, collected_at, amount_collected, status, collected_by, payment_mode,
            receiver_name, lat, lng, location_address, request_key, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
        RETURNING id`

	start := time.Now()
	saved := *record
	err := tx.QueryRow(ctx, query,
		record.LoanID, record.Date, record.AmountCollected, string(record.Status), record.CollectedBy,
		string(record.PaymentMode), record.ReceiverName, record.Location.Lat, record.Location.Lng,
		record.Location.Address, record.RequestKey, record.CreatedAt,
	).Scan(&saved.ID)
	observe("InsertEmiRecord", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert emi record", "loan_id", record.LoanID, "error", err)
		return nil, translateDBError(err, r.logger)
	}
	return &saved, nil
}

func (r *LoanRepository) UpdateLoanProgressInTx(ctx context.Context, tx pgx.Tx, l *loan.Loan) error {
	query := `
        UPDATE loans
        SET total_collected = $1, total_amount_left = $2, status = $3, completed_at = $4, updated_at = $5
        WHERE id = $6`

	start := time.Now()
	cmdTag, err := tx.Exec(ctx, query, l.TotalCollected, l.TotalAmountLeft, string(l.Status), l.CompletedAt, l.UpdatedAt, l.ID)
	observe("UpdateLoanProgress", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update loan progress", "loan_id", l.ID, "error", err)
		return apperrors.WrapDatabaseError(err)
	}
	if cmdTag.RowsAffected() != 1 {
		r.logger.ErrorContext(ctx, "Loan progress update affected zero rows", "loan_id", l.ID)
		return fmt.Errorf("%w: loan progress update affected zero rows", apperrors.ErrDatabase)
	}
	r.logger.InfoContext(ctx, "Loan progress updated in DB", "loan_id", l.ID, "status", l.Status)
	return nil
}

// LoansByClient returns the client's loans with their records, oldest loan first.
func (r *LoanRepository) LoansByClient(ctx context.Context, clientIDs []int64) (map[int64][]loan.Loan, error) {
	result := make(map[int64][]loan.Loan, len(clientIDs))
	if len(clientIDs) == 0 {
		return result, nil
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT `+loanColumns+` FROM loans WHERE client_id = ANY($1) ORDER BY id ASC`, clientIDs)
	if err != nil {
		observe("LoansByClient", start, err)
		r.logger.ErrorContext(ctx, "Failed to query loans by client", "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}
	loans := make([]*loan.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			rows.Close()
			observe("LoansByClient", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan loan row", "error", err)
			return nil, apperrors.WrapDatabaseError(err)
		}
		loans = append(loans, l)
	}
	rows.Close()
	err = rows.Err()
	observe("LoansByClient", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan rows", "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}

	loanIDs := make([]int64, 0, len(loans))
	for _, l := range loans {
		loanIDs = append(loanIDs, l.ID)
	}
	records, err := r.recordsByLoan(ctx, loanIDs)
	if err != nil {
		return nil, err
	}

	for _, l := range loans {
		if recs, ok := records[l.ID]; ok {
			l.EmiRecords = recs
		}
		result[l.ClientID] = append(result[l.ClientID], *l)
	}
	return result, nil
}

func (r *LoanRepository) recordsByLoan(ctx context.Context, loanIDs []int64) (map[int64][]loan.EmiRecord, error) {
	result := make(map[int64][]loan.EmiRecord, len(loanIDs))
	if len(loanIDs) == 0 {
		return result, nil
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT `+emiColumns+` FROM emi_records WHERE loan_id = ANY($1) ORDER BY loan_id, id`, loanIDs)
	if err != nil {
		observe("RecordsByLoan", start, err)
		r.logger.ErrorContext(ctx, "Failed to query emi records by loan", "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanEmiRecord(rows)
		if err != nil {
			observe("RecordsByLoan", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan emi record row", "error", err)
			return nil, apperrors.WrapDatabaseError(err)
		}
		result[rec.LoanID] = append(result[rec.LoanID], *rec)
	}
	err = rows.Err()
	observe("RecordsByLoan", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating emi record rows", "error", err)
		return nil, apperrors.WrapDatabaseError(err)
	}
	return result, nil
}
