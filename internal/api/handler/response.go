package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/abhishekdav003/easyfinance-sub000/internal/api/handler/dto"
	"github.com/abhishekdav003/easyfinance-sub000/internal/pkg/apperrors"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidArgument)
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", apperrors.ErrInvalidArgument, err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// statusFor maps domain errors onto HTTP. ErrLoanCompleted is checked before the broader
// collection error it wraps.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperrors.ErrLoanCompleted):
		return http.StatusConflict, "LOAN_COMPLETED"
	case apperrors.IsDuplicate(err):
		return http.StatusConflict, "DUPLICATE"
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidArgument),
		errors.Is(err, apperrors.ErrInvalidTerms),
		errors.Is(err, apperrors.ErrInvalidCollection),
		errors.Is(err, apperrors.ErrCalculation):
		return http.StatusBadRequest, "INVALID_REQUEST"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

func respondError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	detail := dto.ErrorDetail{Code: code, Message: err.Error()}

	var validationErr *apperrors.ValidationError
	if errors.As(err, &validationErr) {
		detail.Message, detail.Field = validationErr.Message, validationErr.Field
	}
	if status == http.StatusInternalServerError {
		slog.Default().Error("Unhandled internal error", "error", err)
		detail.Message = "An unexpected error occurred."
	}

	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}

func idFromURL(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s in URL path: %s", apperrors.ErrInvalidArgument, param, raw)
	}
	return id, nil
}

// dateFromQuery returns the zero time when the parameter is absent, which the services
// read as "now".
func dateFromQuery(r *http.Request, param string, loc *time.Location) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(param))
	if raw == "" {
		return time.Time{}, nil
	}
	return dto.ParseDate(param, raw, loc)
}
