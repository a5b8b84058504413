package delhivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies gateway failures so callers can map them to responses.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindAuth            ErrorKind = "auth"
	KindNotFound        ErrorKind = "not_found"
	KindRateLimited     ErrorKind = "rate_limited"
	KindUnavailable     ErrorKind = "unavailable"
	KindInvalidResponse ErrorKind = "invalid_response"
	KindRejected        ErrorKind = "rejected"
)

// GatewayError is a failed courier call.
type GatewayError struct {
	Op         string
	Kind       ErrorKind
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return fmt.Sprintf("delhivery %s (%s): %v", e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("delhivery %s (%s): %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// Is matches another GatewayError of the same kind.
func (e *GatewayError) Is(target error) bool {
	t, ok := target.(*GatewayError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation      = &GatewayError{Kind: KindValidation}
	ErrAuth            = &GatewayError{Kind: KindAuth}
	ErrNotFound        = &GatewayError{Kind: KindNotFound}
	ErrRateLimited     = &GatewayError{Kind: KindRateLimited}
	ErrUnavailable     = &GatewayError{Kind: KindUnavailable}
	ErrInvalidResponse = &GatewayError{Kind: KindInvalidResponse}
	ErrRejected        = &GatewayError{Kind: KindRejected}
)

// IsRetryable reports whether err is a transient gateway failure.
func IsRetryable(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}

func newGatewayError(op string, kind ErrorKind, msg string) *GatewayError {
	return &GatewayError{
		Op:        op,
		Kind:      kind,
		Message:   msg,
		Retryable: kind == KindUnavailable || kind == KindRateLimited,
	}
}

// classify turns any error from an APIClient into a GatewayError.
func classify(op string, err error) *GatewayError {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		kind := kindForStatus(apiErr.StatusCode)
		g := newGatewayError(op, kind, apiErr.Message)
		g.StatusCode = apiErr.StatusCode
		g.Cause = err
		return g
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		netErr    net.Error
	)
	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		g := newGatewayError(op, KindInvalidResponse, "malformed courier response")
		g.Cause = err
		return g
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		g := newGatewayError(op, KindUnavailable, "courier unreachable")
		g.Cause = err
		return g
	}

	g := newGatewayError(op, KindUnavailable, err.Error())
	g.Cause = err
	return g
}

func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= http.StatusInternalServerError:
		return KindUnavailable
	case code >= http.StatusBadRequest:
		return KindValidation
	}
	return KindInvalidResponse
}
