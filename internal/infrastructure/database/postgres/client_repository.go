package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/jackc/pgx/v5"
)

const clientColumns = `id, name, email, address_temporary, address_permanent, address_shop, address_house, photo_refs,
        referral_name, referral_phone, lat, lng, location_address, created_by, created_at, updated_at`

// ClientRepository stores clients and reassembles them with their loans and EMI records.
type ClientRepository struct {
	txManager
	db     DBPool
	loans  *LoanRepository
	logger *slog.Logger
}

var _ client.ClientRepository = (*ClientRepository)(nil)

var _ client.Reader = (*ClientRepository)(nil)

func NewClientRepository(db DBPool, loans *LoanRepository, logger *slog.Logger) *ClientRepository {
	if db == nil {
		panic("DBPool cannot be nil for ClientRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewClientRepository, using default stderr handler")
	}
	if loans == nil {
		loans = NewLoanRepository(db, logger)
	}
	l := logger.With("component", "ClientRepository")
	return &ClientRepository{txManager: txManager{db: db, logger: l}, db: db, loans: loans, logger: l}
}

func scanClient(row pgx.Row) (*client.Client, error) {
	var c client.Client
	err := row.Scan(
		&c.ClientID, &c.Name, &c.Email, &c.Addresses.Temporary, &c.Addresses.Permanent, &c.Addresses.Shop,
		&c.Addresses.House, &c.PhotoRefs, &c.Referral.Name, &c.Referral.Phone, &c.Location.Lat, &c.Location.Lng,
		&c.Location.Address, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if c.PhotoRefs == nil {
		c.PhotoRefs = []string{}
	}
	c.Phones = []string{}
	c.Loans = []loan.Loan{}
	return &c, nil
}

// Save inserts the client and its phones in one transaction. A phone already owned by
// another client fails the whole insert with ErrDuplicateClient.
func (r *ClientRepository) Save(ctx context.Context, c *client.Client) (err error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = r.RollbackTx(ctx, tx)
		}
	}()

	query := `
        INSERT INTO clients (name, email, address_temporary, address_permanent, address_shop, address_house,
            photo_refs, referral_name, referral_phone, lat, lng, location_address, created_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id`

	photoRefs := c.PhotoRefs
	if photoRefs == nil {
		photoRefs = []string{}
	}

	start := time.Now()
	err = tx.QueryRow(ctx, query,
		c.Name, c.Email, c.Addresses.Temporary, c.Addresses.Permanent, c.Addresses.Shop, c.Addresses.House,
		photoRefs, c.Referral.Name, c.Referral.Phone, c.Location.Lat, c.Location.Lng, c.Location.Address,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ClientID)
	observe("InsertClient", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert client", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	for i, phone := range c.Phones {
		start = time.Now()
		_, err = tx.Exec(ctx, `INSERT INTO client_phones (client_id, phone, position) VALUES ($1, $2, $3)`, c.ClientID, phone, i)
		observe("InsertClientPhone", start, err)
		if err != nil {
			r.logger.WarnContext(ctx, "Failed to insert client phone", slog.Int64("clientID", c.ClientID), slog.Any("error", err))
			return translateDBError(err, r.logger)
		}
	}

	if err = r.CommitTx(ctx, tx); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "Client created in DB", slog.Int64("clientID", c.ClientID))
	return nil
}

func (r *ClientRepository) FindByID(ctx context.Context, clientID int64) (*client.Client, error) {
	start := time.Now()
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, clientID))
	observe("FindClientByID", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Client not found", slog.Int64("clientID", clientID))
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get client by ID", slog.Int64("clientID", clientID), slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err)
	}

	if err := r.attach(ctx, []*client.Client{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// ListClients lets reports and the defaulter sweep read the portfolio without going
// through the client service.
func (r *ClientRepository) ListClients(ctx context.Context) ([]*client.Client, error) {
	return r.FindAll(ctx)
}

// FindAll returns every client ordered by id, each with phones, loans and records.
func (r *ClientRepository) FindAll(ctx context.Context) ([]*client.Client, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY id ASC`)
	if err != nil {
		observe("FindAllClients", start, err)
		r.logger.ErrorContext(ctx, "Failed to query clients", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err)
	}

	clients := make([]*client.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			rows.Close()
			observe("FindAllClients", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan client row", slog.Any("error", err))
			return nil, apperrors.WrapDatabaseError(err)
		}
		clients = append(clients, c)
	}
	rows.Close()
	err = rows.Err()
	observe("FindAllClients", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating client rows", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err)
	}

	if err := r.attach(ctx, clients); err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "Fetched clients", slog.Int("count", len(clients)))
	return clients, nil
}

// attach loads phones and loans for the given clients in two round trips.
func (r *ClientRepository) attach(ctx context.Context, clients []*client.Client) error {
	if len(clients) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(clients))
	byID := make(map[int64]*client.Client, len(clients))
	for _, c := range clients {
		ids = append(ids, c.ClientID)
		byID[c.ClientID] = c
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT client_id, phone FROM client_phones WHERE client_id = ANY($1) ORDER BY client_id, position`, ids)
	if err != nil {
		observe("ClientPhones", start, err)
		r.logger.ErrorContext(ctx, "Failed to query client phones", slog.Any("error", err))
		return apperrors.WrapDatabaseError(err)
	}
	for rows.Next() {
		var clientID int64
		var phone string
		if err := rows.Scan(&clientID, &phone); err != nil {
			rows.Close()
			observe("ClientPhones", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan client phone row", slog.Any("error", err))
			return apperrors.WrapDatabaseError(err)
		}
		if c, ok := byID[clientID]; ok {
			c.Phones = append(c.Phones, phone)
		}
	}
	rows.Close()
	err = rows.Err()
	observe("ClientPhones", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating client phone rows", slog.Any("error", err))
		return apperrors.WrapDatabaseError(err)
	}

	loans, err := r.loans.LoansByClient(ctx, ids)
	if err != nil {
		return err
	}
	for id, ls := range loans {
		if c, ok := byID[id]; ok {
			c.Loans = ls
		}
	}
	return nil
}

func (r *ClientRepository) Exists(ctx context.Context, clientID int64) (bool, error) {
	start := time.Now()
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1)`, clientID).Scan(&exists)
	observe("ClientExists", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check client existence", slog.Int64("clientID", clientID), slog.Any("error", err))
		return false, apperrors.WrapDatabaseError(err)
	}
	return exists, nil
}

func (r *ClientRepository) PhonesInUse(ctx context.Context, phones []string) ([]string, error) {
	inUse := make([]string, 0)
	if len(phones) == 0 {
		return inUse, nil
	}

	start := time.Now()
	rows, err := r.db.Query(ctx, `SELECT phone FROM client_phones WHERE phone = ANY($1) ORDER BY phone`, phones)
	if err != nil {
		observe("PhonesInUse", start, err)
		r.logger.ErrorContext(ctx, "Failed to query phones in use", slog.Any("error", err))
		return nil, apperrors.WrapDatabaseError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			observe("PhonesInUse", start, err)
			return nil, apperrors.WrapDatabaseError(err)
		}
		inUse = append(inUse, phone)
	}
	err = rows.Err()
	observe("PhonesInUse", start, err)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return inUse, nil
}
