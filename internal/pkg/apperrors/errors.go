package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("resource not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrValidation = errors.New("validation failed")

	ErrInvalidTerms = errors.New("invalid loan terms")

	ErrInvalidCollection = errors.New("invalid emi collection")

	ErrLoanCompleted = fmt.Errorf("%w: loan is already completed", ErrInvalidCollection)

	ErrDuplicateLoanNumber = errors.New("loan number already exists")

	ErrDuplicateClient = errors.New("client already exists")

	ErrDuplicateAgent = errors.New("agent already exists")

	ErrCalculation = errors.New("calculation error")

	ErrDatabase = errors.New("database error")

	ErrInternalServer = errors.New("internal server error")

	ErrConflict = errors.New("resource conflict")
)

type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError returns an error matching ErrValidation, the given kind
// (for example ErrInvalidTerms) and *ValidationError.
func NewValidationError(kind error, field, message string) error {
	if kind == nil {
		kind = ErrValidation
	}
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message, Cause: kind})
}

// WrapDatabaseError marks a driver failure as ErrDatabase while keeping the cause.
func WrapDatabaseError(cause error) error {
	return fmt.Errorf("%w: %w", ErrDatabase, cause)
}

// IsDuplicate reports whether err is one of the identity collisions: a client phone, a
// loan number or an agent phone that is already taken.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateClient) ||
		errors.Is(err, ErrDuplicateLoanNumber) ||
		errors.Is(err, ErrDuplicateAgent)
}
