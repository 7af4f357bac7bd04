package dto

import (
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/client"
	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
)

type ReferralDTO struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type CreateClientRequest struct {
	Name      string           `json:"name" validate:"required"`
	Phones    []string         `json:"phones" validate:"required,min=1,dive,required"`
	Addresses client.Addresses `json:"addresses"`
	Email     string           `json:"email,omitempty" validate:"omitempty,email"`
	PhotoRefs []string         `json:"photoRefs,omitempty"`
	Referral  ReferralDTO      `json:"referral"`
	Location  *LocationDTO     `json:"location,omitempty"`
	CreatedBy string           `json:"createdBy,omitempty"`
}

func (r *CreateClientRequest) Validate() error {
	return Struct(r)
}

func (r *CreateClientRequest) ToNewClient() client.NewClient {
	return client.NewClient{
		Name:      r.Name,
		Phones:    r.Phones,
		Addresses: r.Addresses,
		Email:     r.Email,
		PhotoRefs: r.PhotoRefs,
		Referral:  client.Referral{Name: r.Referral.Name, Phone: r.Referral.Phone},
		Location:  r.Location.toDomain(),
		CreatedBy: r.CreatedBy,
	}
}

type ClientResponse struct {
	ClientID  int64            `json:"clientId"`
	Name      string           `json:"name"`
	Phones    []string         `json:"phones"`
	Addresses client.Addresses `json:"addresses"`
	Email     string           `json:"email,omitempty"`
	PhotoRefs []string         `json:"photoRefs"`
	Referral  client.Referral  `json:"referral"`
	Location  loan.Location    `json:"location"`
	CreatedBy string           `json:"createdBy,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Loans     []LoanResponse   `json:"loans"`
}

func NewClientResponse(c *client.Client, includeRecords bool) ClientResponse {
	photos := c.PhotoRefs
	if photos == nil {
		photos = []string{}
	}
	resp := ClientResponse{
		ClientID:  c.ClientID,
		Name:      c.Name,
		Phones:    c.Phones,
		Addresses: c.Addresses,
		Email:     c.Email,
		PhotoRefs: photos,
		Referral:  c.Referral,
		Location:  c.Location,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Loans:     make([]LoanResponse, 0, len(c.Loans)),
	}
	for i := range c.Loans {
		resp.Loans = append(resp.Loans, NewLoanResponse(&c.Loans[i], includeRecords))
	}
	return resp
}

type ClientStatusResponse struct {
	ClientID        int64               `json:"clientId"`
	Status          client.ClientStatus `json:"status"`
	Defaulting      bool                `json:"defaulting"`
	OngoingLoans    int                 `json:"ongoingLoans"`
	CompletedLoans  int                 `json:"completedLoans"`
	DefaultingLoans []string            `json:"defaultingLoans"`
	AsOf            time.Time           `json:"asOf"`
}

func NewClientStatusResponse(s *client.StatusSummary) ClientStatusResponse {
	return ClientStatusResponse{
		ClientID:        s.ClientID,
		Status:          s.Status,
		Defaulting:      s.Defaulting,
		OngoingLoans:    s.OngoingLoans,
		CompletedLoans:  s.CompletedLoans,
		DefaultingLoans: s.DefaultingLoans,
		AsOf:            s.AsOf,
	}
}
