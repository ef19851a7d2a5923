package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
)

// signedIn reads the identity and bearer credential of the current session
// and fails fast before any collaborator call. Gated routes never reach a
// handler without a session; this guards the window where a logout lands
// between the gate and the handler.
func signedIn(source ports.SessionSource) (domain.Identity, string, error) {
	s := source.Snapshot()
	identity, ok := s.Identity()
	if !ok {
		return domain.Identity{}, "", echo.NewHTTPError(http.StatusUnauthorized, "You must be signed in")
	}
	return identity, s.Token(), nil
}

// bindValid binds the request body into req and runs the Echo validator.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
