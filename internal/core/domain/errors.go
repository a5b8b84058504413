package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrShipmentNotFound    = errors.New("shipment not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrPickupNotFound      = errors.New("pickup not found")
	ErrDuplicateShipment   = errors.New("shipment already exists")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrNotBooked           = errors.New("shipment has no awb")
	ErrTrackingUnavailable = errors.New("tracking information unavailable")
	ErrSyncInProgress      = errors.New("reconciliation already running")
	ErrDocumentUnavailable = errors.New("document unavailable")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports bad input. It is never retried.
type ValidationError struct {
	Code   string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Code
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, strings.Join(msgs, "; "))
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(code, field, msg string) *ValidationError {
	return &ValidationError{Code: code, Fields: []FieldError{{Field: field, Message: msg}}}
}

// PreconditionError reports that the shipment's current state forbids the action.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// NewPreconditionError builds a PreconditionError.
func NewPreconditionError(format string, args ...any) *PreconditionError {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPrecondition reports whether err carries a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
