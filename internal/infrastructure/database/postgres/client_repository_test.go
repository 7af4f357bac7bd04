package postgres

import (
	"context"
	"testing"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *client.Client {
	return &client.Client{
		Name:      "Meena Devi",
		Phones:    []string{"9876543210", "9988776655"},
		Addresses: client.Addresses{Shop: "Stall 4, Sadar Bazaar"},
		Referral:  client.Referral{Name: "Ramesh", Phone: "01123456789"},
		Location:  loan.Location{Lat: 28.6, Lng: 77.2, Address: "Delhi"},
		CreatedBy: "admin",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func clientRow(id int64, c *client.Client) []any {
	return []any{
		id, c.Name, c.Email, c.Addresses.Temporary, c.Addresses.Permanent, c.Addresses.Shop, c.Addresses.House,
		[]string{}, c.Referral.Name, c.Referral.Phone, c.Location.Lat, c.Location.Lng, c.Location.Address,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	}
}

func TestClientRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("should insert the client and its phones in one transaction", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewClientRepository(mockPool, nil, logger)
		c := newTestClient()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO clients`).
			WithArgs(c.Name, "", "", "", "Stall 4, Sadar Bazaar", "", []string{}, "Ramesh", "01123456789",
				28.6, 77.2, "Delhi", "admin", created, created).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(10)))
		mockPool.ExpectExec(`INSERT INTO client_phones`).WithArgs(int64(10), "9876543210", 0).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec(`INSERT INTO client_phones`).WithArgs(int64(10), "9988776655", 1).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		require.NoError(t, repo.Save(ctx, c))
		assert.Equal(t, int64(10), c.ClientID)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("should roll back and report a phone owned by another client", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewClientRepository(mockPool, nil, logger)
		c := newTestClient()
		c.Phones = c.Phones[:1]

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO clients`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(11)))
		mockPool.ExpectExec(`INSERT INTO client_phones`).WithArgs(int64(11), "9876543210", 0).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "client_phones_phone_key"})
		mockPool.ExpectRollback()

		err := repo.Save(ctx, c)

		assert.ErrorIs(t, err, apperrors.ErrDuplicateClient)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}

func TestClientRepository_FindByID(t *testing.T) {
	ctx := context.Background()

	t.Run("should reassemble phones loans and records", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewClientRepository(mockPool, nil, logger)
		c := newTestClient()
		l := testLoan(t)

		mockPool.ExpectQuery(`FROM clients WHERE id = \$1`).WithArgs(int64(10)).
			WillReturnRows(pgxmock.NewRows(clientColumnNames).AddRow(clientRow(10, c)...))
		mockPool.ExpectQuery(`FROM client_phones WHERE client_id = ANY\(\$1\)`).WithArgs([]int64{10}).
			WillReturnRows(pgxmock.NewRows([]string{"client_id", "phone"}).
				AddRow(int64(10), "9876543210").
				AddRow(int64(10), "9988776655"))
		mockPool.ExpectQuery(`FROM loans WHERE client_id = ANY\(\$1\)`).WithArgs([]int64{10}).
			WillReturnRows(pgxmock.NewRows(loanColumnNames).AddRow(loanRow(1, l)...))
		mockPool.ExpectQuery(`FROM emi_records WHERE loan_id = ANY\(\$1\)`).WithArgs([]int64{1}).
			WillReturnRows(pgxmock.NewRows(emiColumnNames).AddRow(emiRow(1, 1, "100", 3, "")...))

		got, err := repo.FindByID(ctx, 10)

		require.NoError(t, err)
		assert.Equal(t, "Meena Devi", got.Name)
		assert.Equal(t, []string{"9876543210", "9988776655"}, got.Phones)
		require.Len(t, got.Loans, 1)
		assert.Equal(t, "LN-0001", got.Loans[0].LoanNumber)
		assert.Len(t, got.Loans[0].EmiRecords, 1)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("should map no rows to not found", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewClientRepository(mockPool, nil, logger)

		mockPool.ExpectQuery(`FROM clients WHERE id = \$1`).WithArgs(int64(10)).WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByID(ctx, 10)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestClientRepository_FindAllWithoutClients(t *testing.T) {
	ctx := context.Background()
	mockPool := newMockPool(t)
	repo := NewClientRepository(mockPool, nil, logger)

	mockPool.ExpectQuery(`FROM clients ORDER BY id ASC`).WillReturnRows(pgxmock.NewRows(clientColumnNames))

	clients, err := repo.FindAll(ctx)

	require.NoError(t, err)
	assert.Empty(t, clients)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestClientRepository_Lookups(t *testing.T) {
	ctx := context.Background()

	t.Run("should report whether a client exists", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewClientRepository(mockPool, nil, logger)

		mockPool.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM clients WHERE id = \$1\)`).WithArgs(int64(10)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.Exists(ctx, 10)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("should return the phones already registered", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewClientRepository(mockPool, nil, logger)

		mockPool.ExpectQuery(`SELECT phone FROM client_phones WHERE phone = ANY\(\$1\)`).
			WithArgs([]string{"9876543210", "9000000000"}).
			WillReturnRows(pgxmock.NewRows([]string{"phone"}).AddRow("9876543210"))

		inUse, err := repo.PhonesInUse(ctx, []string{"9876543210", "9000000000"})
		require.NoError(t, err)
		assert.Equal(t, []string{"9876543210"}, inUse)
	})

	t.Run("should skip the query for no phones", func(t *testing.T) {
		mockPool := newMockPool(t)
		repo := NewClientRepository(mockPool, nil, logger)

		inUse, err := repo.PhonesInUse(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, inUse)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}
