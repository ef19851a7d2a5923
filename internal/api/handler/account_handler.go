package handler

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/api/screen"
	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
)

// AccountHandler serves the profile and the admin dashboard.
type AccountHandler struct {
	session ports.SessionSource
	screens *screen.Screens
}

func NewAccountHandler(session ports.SessionSource, screens *screen.Screens) *AccountHandler {
	return &AccountHandler{session: session, screens: screens}
}

type profileResponse struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	LogoutPath string      `json:"logoutPath"`
}

// Profile shows the signed-in identity.
func (h *AccountHandler) Profile(c echo.Context) error {
	identity, _, err := signedIn(h.session)
	if err != nil {
		return err
	}
	h.screens.Navigate(c.Request().URL.Path)
	return c.JSON(http.StatusOK, profileResponse{
		Name:       identity.Name,
		Email:      identity.Email,
		Role:       identity.Role,
		LogoutPath: "/logout",
	})
}

var dashboardTabs = []string{"products", "orders", "users"}

type dashboardTab struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type dashboardResponse struct {
	Title   string         `json:"title"`
	Tabs    []dashboardTab `json:"tabs"`
	Heading string         `json:"heading"`
	// Links are the actions offered on the active tab.
	Links []NavLink `json:"links,omitempty"`
}

// Admin renders the dashboard. ?tab= picks products, orders or users;
// anything else shows products.
func (h *AccountHandler) Admin(c echo.Context) error {
	active := c.QueryParam("tab")
	if !slices.Contains(dashboardTabs, active) {
		active = dashboardTabs[0]
	}
	h.screens.Navigate(c.Request().URL.Path)

	resp := dashboardResponse{Title: "Admin Dashboard"}
	for _, name := range dashboardTabs {
		resp.Tabs = append(resp.Tabs, dashboardTab{Name: name, Active: name == active})
	}
	switch active {
	case "products":
		resp.Heading = "Product Management"
		resp.Links = []NavLink{{Label: "Create New Product", Path: productsPath, Method: http.MethodPost}}
	case "orders":
		resp.Heading = "All Orders"
		resp.Links = []NavLink{{Label: "View Orders", Path: "/orders"}}
	case "users":
		resp.Heading = "User Management"
	}
	return c.JSON(http.StatusOK, resp)
}
