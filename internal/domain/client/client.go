package client

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/contact"
)

type Addresses struct {
	Temporary string `json:"temporary,omitempty"`
	Permanent string `json:"permanent,omitempty"`
	Shop      string `json:"shop,omitempty"`
	House     string `json:"house,omitempty"`
}

type Referral struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Client owns its loans; Loans is ordered by creation.
type Client struct {
	ClientID  int64
	Name      string
	Phones    []string
	Addresses Addresses
	Email     string
	PhotoRefs []string
	Referral  Referral
	Location  loan.Location
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	Loans     []loan.Loan
}

type NewClient struct {
	Name      string
	Phones    []string
	Addresses Addresses
	Email     string
	PhotoRefs []string
	Referral  Referral
	Location  loan.Location
	CreatedBy string
}

// build validates n and returns the client it describes with phones normalised and
// de-duplicated.
func (n NewClient) build(now time.Time) (*Client, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return nil, apperrors.NewValidationError(nil, "name", "client name cannot be empty")
	}

	phones := make([]string, 0, len(n.Phones))
	seen := make(map[string]bool, len(n.Phones))
	for _, p := range n.Phones {
		if strings.TrimSpace(p) == "" {
			continue
		}
		normalized, ok := contact.NormalizePhone(p)
		if !ok {
			return nil, apperrors.NewValidationError(nil, "phone", fmt.Sprintf("invalid phone number %q", p))
		}
		if !seen[normalized] {
			seen[normalized] = true
			phones = append(phones, normalized)
		}
	}
	if len(phones) == 0 {
		return nil, apperrors.NewValidationError(nil, "phone", "at least one phone number is required")
	}

	email := strings.TrimSpace(n.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperrors.NewValidationError(nil, "email", fmt.Sprintf("invalid email %q", email))
		}
	}

	referral := Referral{Name: strings.TrimSpace(n.Referral.Name)}
	if strings.TrimSpace(n.Referral.Phone) != "" {
		normalized, ok := contact.NormalizePhone(n.Referral.Phone)
		if !ok {
			return nil, apperrors.NewValidationError(nil, "referral.phone", fmt.Sprintf("invalid phone number %q", n.Referral.Phone))
		}
		referral.Phone = normalized
	}

	return &Client{
		Name:      name,
		Phones:    phones,
		Addresses: n.Addresses,
		Email:     email,
		PhotoRefs: n.PhotoRefs,
		Referral:  referral,
		Location:  n.Location,
		CreatedBy: n.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
		Loans:     []loan.Loan{},
	}, nil
}

type ClientStatus string

const (
	StatusOngoing   ClientStatus = "Ongoing"
	StatusCompleted ClientStatus = "Completed"
)

type StatusSummary struct {
	ClientID        int64
	Status          ClientStatus
	Defaulting      bool
	OngoingLoans    int
	CompletedLoans  int
	DefaultingLoans []string
	AsOf            time.Time
}

// DeriveStatus is Completed only when the client has at least one loan and every loan is
// Completed. Defaulting is set when any loan is in default as of asOf.
func DeriveStatus(c *Client, asOf time.Time) StatusSummary {
	summary := StatusSummary{ClientID: c.ClientID, Status: StatusOngoing, DefaultingLoans: []string{}, AsOf: asOf}
	for i := range c.Loans {
		l := &c.Loans[i]
		if l.ResolveStatus() == loan.StatusCompleted {
			summary.CompletedLoans++
			continue
		}
		summary.OngoingLoans++
		if loan.IsInDefault(l, asOf) {
			summary.Defaulting = true
			summary.DefaultingLoans = append(summary.DefaultingLoans, l.LoanNumber)
		}
	}
	if len(c.Loans) > 0 && summary.OngoingLoans == 0 {
		summary.Status = StatusCompleted
	}
	return summary
}

type ClientRepository interface {
	// Save inserts the client together with its phone numbers.
	Save(ctx context.Context, client *Client) error

	// FindByID returns the client with its loans and their EMI records.
	FindByID(ctx context.Context, clientID int64) (*Client, error)

	FindAll(ctx context.Context) ([]*Client, error)

	Exists(ctx context.Context, clientID int64) (bool, error)

	// PhonesInUse returns the subset of phones already registered to any client.
	PhonesInUse(ctx context.Context, phones []string) ([]string, error)
}

// LoanStore is the part of the loan repository used to issue loans.
type LoanStore interface {
	LoanNumberExists(ctx context.Context, loanNumber string) (bool, error)
	CreateLoan(ctx context.Context, l *loan.Loan) (*loan.Loan, error)
}

// Reader is the read side used by reports and the defaulter sweep.
type Reader interface {
	ListClients(ctx context.Context) ([]*Client, error)
}
