package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/review"
	"github.com/tiendita/storefront/internal/core/workflow"
	"github.com/tiendita/storefront/pkg/validation"
)

// errorResponse is the canonical error envelope for all view errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain and workflow errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Error()
	}

	switch {
	case errors.Is(err, workflow.ErrSubmitInFlight):
		return http.StatusConflict, "An order is already being placed"
	case errors.Is(err, workflow.ErrNotReady):
		return http.StatusConflict, "Product is not ready"
	case errors.Is(err, workflow.ErrOrderingUnavailable):
		return http.StatusForbidden, "Ordering is not available"
	case errors.Is(err, workflow.ErrClosed), errors.Is(err, review.ErrClosed):
		return http.StatusGone, "View closed"
	case errors.Is(err, review.ErrUnknownOrder):
		return http.StatusNotFound, "Order not in list"
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, domain.Message(err)
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, domain.Message(err)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.Message(err)
	case errors.Is(err, domain.ErrFetch):
		log.Warn().Err(err).Str("path", c.Path()).Msg("remote api unavailable")
		return http.StatusBadGateway, domain.Message(err)
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
