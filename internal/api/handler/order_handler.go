package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/api/screen"
	"github.com/tiendita/storefront/internal/core/review"
)

// OrderHandler serves the order list and order detail views.
type OrderHandler struct {
	screens *screen.Screens
}

func NewOrderHandler(screens *screen.Screens) *OrderHandler {
	return &OrderHandler{screens: screens}
}

type toggleResponse struct {
	Expanded bool            `json:"expanded"`
	View     review.ListView `json:"view"`
}

// List refreshes and renders the order list. Fetch failures are shown
// inline in the view.
func (h *OrderHandler) List(c echo.Context) error {
	list := h.screens.OrderList()
	h.screens.Navigate(c.Request().URL.Path)
	list.Refresh(c.Request().Context())
	return c.JSON(http.StatusOK, list.View())
}

// Toggle expands the order, collapsing any other, or collapses it if it
// was already expanded.
func (h *OrderHandler) Toggle(c echo.Context) error {
	list := h.screens.OrderList()
	expanded, err := list.Toggle(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toggleResponse{Expanded: expanded, View: list.View()})
}

// Detail renders one order. Not found and fetch failures stay inline.
//
// @Summary      Order detail
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  review.DetailView
// @Router       /orders/{id} [get]
func (h *OrderHandler) Detail(c echo.Context) error {
	detail := h.screens.OrderDetail()
	defer detail.Close()

	h.screens.Navigate(c.Request().URL.Path)
	detail.Load(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, detail.View())
}
