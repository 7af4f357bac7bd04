package dto

import (
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
)

type IssueLoanRequest struct {
	LoanNumber   string `json:"loanNumber,omitempty"`
	LoanAmount   string `json:"loanAmount" validate:"required"`
	InterestRate string `json:"interestRate" validate:"required"`
	EmiType      string `json:"emiType" validate:"required"`
	TenureDays   int    `json:"tenureDays" validate:"gte=0"`
	TenureMonths int    `json:"tenureMonths" validate:"gte=0"`
	TotalEmis    int    `json:"totalEmis" validate:"gte=0"`
	StartDate    string `json:"startDate,omitempty"`
	CreatedBy    string `json:"createdBy,omitempty"`
}

// ToLoanRequest parses the money and date fields. A missing start date means today in loc.
func (r *IssueLoanRequest) ToLoanRequest(now time.Time, loc *time.Location) (client.LoanRequest, error) {
	if err := Struct(r); err != nil {
		return client.LoanRequest{}, err
	}
	amount, err := parseAmount("loanAmount", r.LoanAmount)
	if err != nil {
		return client.LoanRequest{}, err
	}
	rate, err := parseAmount("interestRate", r.InterestRate)
	if err != nil {
		return client.LoanRequest{}, err
	}
	emiType, err := loan.ParseEmiType(r.EmiType)
	if err != nil {
		return client.LoanRequest{}, err
	}

	start := now
	if loc != nil {
		start = now.In(loc)
	}
	if strings.TrimSpace(r.StartDate) != "" {
		if start, err = ParseDate("startDate", r.StartDate, loc); err != nil {
			return client.LoanRequest{}, err
		}
	}

	return client.LoanRequest{
		LoanNumber: r.LoanNumber,
		CreatedBy:  r.CreatedBy,
		Terms: loan.Terms{
			LoanAmount:   amount,
			InterestRate: rate,
			EmiType:      emiType,
			TenureDays:   r.TenureDays,
			TenureMonths: r.TenureMonths,
			TotalEmis:    r.TotalEmis,
			StartDate:    start,
		},
	}, nil
}

type CollectEmiRequest struct {
	LoanID          int64        `json:"loanId,omitempty" validate:"gte=0"`
	ClientID        int64        `json:"clientId,omitempty" validate:"gte=0"`
	AmountCollected string       `json:"amountCollected" validate:"required"`
	PaymentMode     string       `json:"paymentMode" validate:"required"`
	Status          string       `json:"status,omitempty"`
	ReceiverName    string       `json:"recieverName,omitempty"`
	CollectedBy     int64        `json:"collectedBy" validate:"required,gt=0"`
	Location        *LocationDTO `json:"location,omitempty"`
	Date            string       `json:"date,omitempty"`
	RequestKey      string       `json:"requestKey,omitempty"`
}

// ToCollection builds the domain collection. Business validation such as the receiver
// rule for non-cash payments is left to the loan package.
func (r *CollectEmiRequest) ToCollection(loanID int64, loc *time.Location) (loan.Collection, error) {
	if err := Struct(r); err != nil {
		return loan.Collection{}, err
	}
	if r.LoanID != 0 && r.LoanID != loanID {
		return loan.Collection{}, apperrors.NewValidationError(apperrors.ErrInvalidCollection, "loanId", "does not match the loan in the path")
	}
	amount, err := parseAmount("amountCollected", r.AmountCollected)
	if err != nil {
		return loan.Collection{}, err
	}

	c := loan.Collection{
		LoanID:       loanID,
		ClientID:     r.ClientID,
		Amount:       amount,
		Status:       loan.PaymentStatus(strings.TrimSpace(r.Status)),
		PaymentMode:  loan.PaymentMode(strings.TrimSpace(r.PaymentMode)),
		ReceiverName: r.ReceiverName,
		Location:     r.Location.toDomain(),
		CollectedBy:  r.CollectedBy,
		RequestKey:   r.RequestKey,
	}
	if strings.TrimSpace(r.Date) != "" {
		if c.CollectedAt, err = ParseDate("date", r.Date, loc); err != nil {
			return loan.Collection{}, err
		}
	}
	return c, nil
}

type EmiRecordResponse struct {
	ID              int64         `json:"id"`
	Date            time.Time     `json:"date"`
	AmountCollected string        `json:"amountCollected"`
	Status          string        `json:"status"`
	CollectedBy     int64         `json:"collectedBy"`
	PaymentMode     string        `json:"paymentMode"`
	ReceiverName    string        `json:"recieverName,omitempty"`
	Location        loan.Location `json:"location"`
	RequestKey      string        `json:"requestKey,omitempty"`
}

func NewEmiRecordResponse(r *loan.EmiRecord) EmiRecordResponse {
	return EmiRecordResponse{
		ID:              r.ID,
		Date:            r.Date,
		AmountCollected: formatMoney(r.AmountCollected),
		Status:          string(r.Status),
		CollectedBy:     r.CollectedBy,
		PaymentMode:     string(r.PaymentMode),
		ReceiverName:    r.ReceiverName,
		Location:        r.Location,
		RequestKey:      r.RequestKey,
	}
}

type LoanResponse struct {
	ID              int64               `json:"id"`
	ClientID        int64               `json:"clientId"`
	LoanNumber      string              `json:"loanNumber"`
	LoanAmount      string              `json:"loanAmount"`
	InterestRate    string              `json:"interestRate"`
	EmiType         string              `json:"emiType"`
	TenureDays      int                 `json:"tenureDays"`
	TenureMonths    int                 `json:"tenureMonths,omitempty"`
	TotalEmis       int                 `json:"totalEmis,omitempty"`
	StartDate       string              `json:"startDate"`
	DueDate         string              `json:"dueDate"`
	DisbursedAmount string              `json:"disbursedAmount"`
	TotalPayable    string              `json:"totalPayable"`
	EmiAmount       string              `json:"emiAmount"`
	TotalCollected  string              `json:"totalCollected"`
	TotalAmountLeft string              `json:"totalAmountLeft"`
	Status          string              `json:"status"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	CreatedBy       string              `json:"createdBy,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
	EmiRecords      []EmiRecordResponse `json:"emiRecords,omitempty"`
}

// NewLoanResponse shows the EMI rounded to whole currency units, as agents see it.
func NewLoanResponse(l *loan.Loan, includeRecords bool) LoanResponse {
	resp := LoanResponse{
		ID:              l.ID,
		ClientID:        l.ClientID,
		LoanNumber:      l.LoanNumber,
		LoanAmount:      formatMoney(l.LoanAmount),
		InterestRate:    l.InterestRate.String(),
		EmiType:         string(l.EmiType),
		TenureDays:      l.TenureDays,
		TenureMonths:    l.TenureMonths,
		TotalEmis:       l.TotalEmis,
		StartDate:       l.StartDate.Format(time.DateOnly),
		DueDate:         l.DueDate.Format(time.DateOnly),
		DisbursedAmount: formatMoney(l.DisbursedAmount),
		TotalPayable:    formatMoney(l.TotalPayable),
		EmiAmount:       formatMoney(l.RoundedEmi()),
		TotalCollected:  formatMoney(l.TotalCollected),
		TotalAmountLeft: formatMoney(l.TotalAmountLeft),
		Status:          string(l.Status),
		CompletedAt:     l.CompletedAt,
		CreatedBy:       l.CreatedBy,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
	if includeRecords {
		resp.EmiRecords = make([]EmiRecordResponse, len(l.EmiRecords))
		for i := range l.EmiRecords {
			resp.EmiRecords[i] = NewEmiRecordResponse(&l.EmiRecords[i])
		}
	}
	return resp
}

type CollectionResponse struct {
	LoanID          int64             `json:"loanId"`
	LoanNumber      string            `json:"loanNumber"`
	TotalCollected  string            `json:"totalCollected"`
	TotalAmountLeft string            `json:"totalAmountLeft"`
	Status          string            `json:"status"`
	Record          EmiRecordResponse `json:"record"`
	Replayed        bool              `json:"replayed"`
	Completed       bool              `json:"completed"`
}

func NewCollectionResponse(res *loan.CollectionResult) CollectionResponse {
	return CollectionResponse{
		LoanID:          res.LoanID,
		LoanNumber:      res.LoanNumber,
		TotalCollected:  formatMoney(res.TotalCollected),
		TotalAmountLeft: formatMoney(res.TotalAmountLeft),
		Status:          string(res.Status),
		Record:          NewEmiRecordResponse(&res.Record),
		Replayed:        res.Replayed,
		Completed:       res.Completed,
	}
}

type LoanStatusResponse struct {
	LoanID          int64     `json:"loanId"`
	LoanNumber      string    `json:"loanNumber"`
	Status          string    `json:"status"`
	InDefault       bool      `json:"inDefault"`
	MissedEmis      int       `json:"missedEmis"`
	Overdue         string    `json:"overdue"`
	PaidEmis        int       `json:"paidEmis"`
	ScheduledEmis   int       `json:"scheduledEmis"`
	TotalCollected  string    `json:"totalCollected"`
	TotalAmountLeft string    `json:"totalAmountLeft"`
	DueDate         string    `json:"dueDate"`
	AsOf            time.Time `json:"asOf"`
}

func NewLoanStatusResponse(s *loan.StatusReport) LoanStatusResponse {
	return LoanStatusResponse{
		LoanID:          s.LoanID,
		LoanNumber:      s.LoanNumber,
		Status:          string(s.Status),
		InDefault:       s.InDefault,
		MissedEmis:      s.MissedEmis,
		Overdue:         formatMoney(s.Overdue),
		PaidEmis:        s.PaidEmis,
		ScheduledEmis:   s.ScheduledEmis,
		TotalCollected:  formatMoney(s.TotalCollected),
		TotalAmountLeft: formatMoney(s.TotalAmountLeft),
		DueDate:         s.DueDate.Format(time.DateOnly),
		AsOf:            s.AsOf,
	}
}
