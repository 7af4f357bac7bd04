package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	routingKeyClientRegistered     = "client.registered"
	routingKeyLoanIssued           = "loan.issued"
	routingKeyEmiCollected         = "emi.collected"
	routingKeyLoanCompleted        = "loan.completed"
	routingKeyClientDefaultChanged = "client.default.changed"
	publisherAppID                 = "easyfinance"
)

type EventPublisher interface {
	PublishClientRegistered(ctx context.Context, event ClientRegisteredEvent) error
	PublishLoanIssued(ctx context.Context, event LoanIssuedEvent) error
	PublishEmiCollected(ctx context.Context, event EmiCollectedEvent) error
	PublishLoanCompleted(ctx context.Context, event LoanCompletedEvent) error
	PublishClientDefaultChanged(ctx context.Context, event ClientDefaultChangedEvent) error
}

type ClientRegisteredEvent struct {
	ClientID  int64     `json:"clientId"`
	Name      string    `json:"name"`
	Phones    []string  `json:"phones"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type LoanIssuedEvent struct {
	ClientID        int64           `json:"clientId"`
	LoanID          int64           `json:"loanId"`
	LoanNumber      string          `json:"loanNumber"`
	EmiType         string          `json:"emiType"`
	LoanAmount      decimal.Decimal `json:"loanAmount"`
	DisbursedAmount decimal.Decimal `json:"disbursedAmount"`
	EmiAmount       decimal.Decimal `json:"emiAmount"`
	DueDate         time.Time       `json:"dueDate"`
	Timestamp       time.Time       `json:"timestamp"`
}

type EmiCollectedEvent struct {
	LoanID          int64           `json:"loanId"`
	LoanNumber      string          `json:"loanNumber"`
	RecordID        int64           `json:"recordId"`
	AgentID         int64           `json:"agentId"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMode     string          `json:"paymentMode"`
	Status          string          `json:"status"`
	TotalCollected  decimal.Decimal `json:"totalCollected"`
	TotalAmountLeft decimal.Decimal `json:"totalAmountLeft"`
	Timestamp       time.Time       `json:"timestamp"`
}

type LoanCompletedEvent struct {
	LoanID         int64           `json:"loanId"`
	LoanNumber     string          `json:"loanNumber"`
	TotalCollected decimal.Decimal `json:"totalCollected"`
	Timestamp      time.Time       `json:"timestamp"`
}

type ClientDefaultChangedEvent struct {
	ClientID  int64     `json:"clientId"`
	NewStatus bool      `json:"newStatus"`
	OldStatus bool      `json:"oldStatus"`
	Timestamp time.Time `json:"timestamp"`
}

// NoopPublisher drops every event. It is used when RabbitMQ is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishClientRegistered(context.Context, ClientRegisteredEvent) error { return nil }

func (NoopPublisher) PublishLoanIssued(context.Context, LoanIssuedEvent) error { return nil }

func (NoopPublisher) PublishEmiCollected(context.Context, EmiCollectedEvent) error { return nil }

func (NoopPublisher) PublishLoanCompleted(context.Context, LoanCompletedEvent) error { return nil }

func (NoopPublisher) PublishClientDefaultChanged(context.Context, ClientDefaultChangedEvent) error {
	return nil
}

var _ EventPublisher = NoopPublisher{}
