package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/infrastructure/delhivery"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain and courier errors to their HTTP status codes.
//   - Logs unexpected errors and, in production, hides their detail.
//   - Renders a consistent JSON envelope: {"error": "...", "code": "...", "fields": [...]}.
func NewHTTPErrorHandler(log zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c, production)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context, production bool) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: "validation failed", Code: ve.Code, Fields: ve.Fields}
	}

	var pe *domain.PreconditionError
	if errors.As(err, &pe) {
		return http.StatusConflict, errorResponse{Error: pe.Reason, Code: "precondition_failed"}
	}

	var ge *delhivery.GatewayError
	if errors.As(err, &ge) {
		log.Warn().
			Err(err).
			Str("op", ge.Op).
			Str("kind", string(ge.Kind)).
			Int("courier_status", ge.StatusCode).
			Str("path", c.Path()).
			Msg("courier call failed")
		return http.StatusBadGateway, errorResponse{Error: ge.Error(), Code: "courier_" + string(ge.Kind)}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrShipmentNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPickupNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"}
	case errors.Is(err, domain.ErrDuplicateShipment),
		errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "conflict"}
	case errors.Is(err, domain.ErrNotBooked):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "not_booked"}
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "sync_in_progress"}
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_transition"}
	case errors.Is(err, domain.ErrTrackingUnavailable),
		errors.Is(err, domain.ErrDocumentUnavailable):
		return http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "courier_unavailable"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden"}
	}

	// Unexpected error: log the real cause.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	if production {
		return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
	}
	return http.StatusInternalServerError, errorResponse{Error: err.Error()}
}
