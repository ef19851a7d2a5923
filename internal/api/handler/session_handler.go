package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/api/screen"
	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/gate"
	"github.com/tiendita/storefront/internal/core/ports"
)

const productsPath = "/products"

// SessionHandler exposes login, registration, logout and the header model.
type SessionHandler struct {
	sessions ports.SessionManager
	screens  *screen.Screens
}

func NewSessionHandler(sessions ports.SessionManager, screens *screen.Screens) *SessionHandler {
	return &SessionHandler{sessions: sessions, screens: screens}
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type registerRequest struct {
	Name     string      `json:"name" form:"name" validate:"required"`
	Email    string      `json:"email" form:"email" validate:"required,email"`
	Password string      `json:"password" form:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role,omitempty" form:"role" validate:"omitempty,oneof=admin client"`
}

// NavLink is one entry of the header navigation.
type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	// Method is set for links that perform an action instead of navigating.
	Method string `json:"method,omitempty"`
}

type sessionResponse struct {
	State    string           `json:"state"`
	User     *domain.Identity `json:"user,omitempty"`
	Location string           `json:"location"`
	Nav      []NavLink        `json:"nav"`
}

// Login authenticates and installs the session.
//
// @Summary      Sign in
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, err := h.sessions.Login(c.Request().Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	h.screens.Navigate(gate.HomePath)
	return c.JSON(http.StatusOK, h.describe(s))
}

// Register creates an account and installs its session.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	s, err := h.sessions.Register(c.Request().Context(), domain.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	h.screens.Navigate(gate.HomePath)
	return c.JSON(http.StatusCreated, h.describe(s))
}

// Logout clears the session. It always succeeds.
func (h *SessionHandler) Logout(c echo.Context) error {
	s := h.sessions.Logout(c.Request().Context())
	h.screens.Navigate(gate.LoginPath)
	return c.JSON(http.StatusOK, h.describe(s))
}

// Session returns the current session state and header navigation.
func (h *SessionHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.describe(h.sessions.Snapshot()))
}

func (h *SessionHandler) describe(s domain.Session) sessionResponse {
	resp := sessionResponse{
		State:    s.State().String(),
		Location: h.screens.Location(),
		Nav:      navFor(s),
	}
	if identity, ok := s.Identity(); ok {
		resp.User = &identity
	}
	return resp
}

// navFor builds the header links for s. Products is always shown; an
// unknown session shows nothing else until restore completes.
func navFor(s domain.Session) []NavLink {
	nav := []NavLink{{Label: "Products", Path: productsPath}}
	switch s.State() {
	case domain.SessionPresent:
		identity, _ := s.Identity()
		if identity.IsAdmin() {
			nav = append(nav, NavLink{Label: "Admin", Path: "/admin"})
		}
		nav = append(nav,
			NavLink{Label: "My Orders", Path: "/orders"},
			NavLink{Label: "Logout", Path: "/logout", Method: http.MethodPost},
		)
	case domain.SessionEmpty:
		nav = append(nav,
			NavLink{Label: "Sign In", Path: gate.LoginPath},
			NavLink{Label: "Get Started", Path: "/register"},
		)
	}
	return nav
}
