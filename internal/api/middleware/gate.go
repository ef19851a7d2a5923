// Package middleware holds the view server's Echo middleware.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/core/gate"
	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/internal/metrics"
)

// redirectResponse tells the client where a gate sent it.
type redirectResponse struct {
	Redirect string `json:"redirect"`
}

// waitResponse is returned while the session is still being restored.
type waitResponse struct {
	Status string `json:"status"`
}

// Gate guards a route with the given view gates, evaluated outside-in
// against one session snapshot. An unknown session answers 503 with
// Retry-After so the view neither renders nor redirects; a redirect
// answers 303 with the destination.
func Gate(source ports.SessionSource, gates ...gate.Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := gate.Evaluate(source.Snapshot(), gates...)
			metrics.GateDecisionsTotal.WithLabelValues(d.Outcome.String()).Inc()

			switch d.Outcome {
			case gate.Render:
				return next(c)
			case gate.Wait:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, waitResponse{Status: "restoring_session"})
			default:
				c.Response().Header().Set(echo.HeaderLocation, d.Location)
				return c.JSON(http.StatusSeeOther, redirectResponse{Redirect: d.Location})
			}
		}
	}
}
