package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendita/storefront/internal/api/screen"
	"github.com/tiendita/storefront/internal/core/workflow"
)

// ProductHandler drives the mounted product detail view.
type ProductHandler struct {
	screens *screen.Screens
}

func NewProductHandler(screens *screen.Screens) *ProductHandler {
	return &ProductHandler{screens: screens}
}

type quantityRequest struct {
	Quantity int `json:"quantity" form:"quantity"`
}

type orderRequest struct {
	// Quantity is optional; when present it overrides the selector and is
	// clamped into range.
	Quantity *int `json:"quantity,omitempty" form:"quantity"`
}

type productViewResponse struct {
	workflow.View
	Location string `json:"location"`
	EditPath string `json:"editPath,omitempty"`
}

// Show mounts (or reuses) the product detail view for :id.
func (h *ProductHandler) Show(c echo.Context) error {
	view := h.screens.Product(c.Request().Context(), c.Param("id"))
	return h.render(c, http.StatusOK, view)
}

// SetQuantity changes the selected quantity. Out of range values are
// rejected and the previous quantity is kept.
func (h *ProductHandler) SetQuantity(c echo.Context) error {
	view := h.mounted(c)
	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := view.SetQuantity(req.Quantity); err != nil {
		return err
	}
	return h.render(c, http.StatusOK, view)
}

// Order submits a one-line order for the selected quantity.
//
// @Summary      Place an order for the product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      string        true   "Product ID"
// @Param        body  body      orderRequest  false  "Optional quantity"
// @Success      201   {object}  productViewResponse
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /products/{id}/order [post]
func (h *ProductHandler) Order(c echo.Context) error {
	view := h.mounted(c)
	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if view.View().Submitting {
		return workflow.ErrSubmitInFlight
	}
	if req.Quantity != nil {
		if _, err := view.ClampQuantity(*req.Quantity); err != nil {
			return err
		}
	}
	if err := view.Submit(c.Request().Context()); err != nil {
		return err
	}
	return h.render(c, http.StatusCreated, view)
}

// mounted returns the live view for :id, mounting it when the client
// arrives without having shown the product first.
func (h *ProductHandler) mounted(c echo.Context) *workflow.ProductDetail {
	id := c.Param("id")
	if view, ok := h.screens.MountedProduct(id); ok {
		return view
	}
	return h.screens.Product(c.Request().Context(), id)
}

func (h *ProductHandler) render(c echo.Context, code int, view *workflow.ProductDetail) error {
	v := view.View()
	resp := productViewResponse{View: v, Location: h.screens.Location()}
	if v.CanEdit {
		resp.EditPath = productsPath + "/" + v.ProductID + "/edit"
	}
	return c.JSON(code, resp)
}
