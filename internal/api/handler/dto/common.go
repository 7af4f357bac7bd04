package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/domain/loan"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/shopspring/decimal"
)

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type LocationDTO struct {
	Lat     float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `json:"lng" validate:"gte=-180,lte=180"`
	Address string  `json:"address,omitempty"`
}

func (l *LocationDTO) toDomain() loan.Location {
	if l == nil {
		return loan.Location{}
	}
	return loan.Location{Lat: l.Lat, Lng: l.Lng, Address: strings.TrimSpace(l.Address)}
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError(nil, field, fmt.Sprintf("invalid numeric value %q", raw))
	}
	return d, nil
}

// ParseDate accepts either a calendar date (2006-01-02) or an RFC 3339 timestamp. Calendar
// dates are interpreted in loc.
func ParseDate(field, raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.NewValidationError(nil, field, fmt.Sprintf("invalid date %q (use YYYY-MM-DD or RFC 3339)", raw))
}
