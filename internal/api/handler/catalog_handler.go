package handler

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/api/screen"
	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
)

// CatalogHandler serves the catalog list and the admin product editor.
type CatalogHandler struct {
	catalog ports.CatalogAPI
	session ports.SessionSource
	screens *screen.Screens
}

func NewCatalogHandler(catalog ports.CatalogAPI, session ports.SessionSource, screens *screen.Screens) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, session: session, screens: screens}
}

type productCard struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	StockLabel  string          `json:"stockLabel"`
	InStock     bool            `json:"inStock"`
	Path        string          `json:"path"`
}

type catalogResponse struct {
	Products []productCard `json:"products"`
	// CanCreate is set for administrators.
	CanCreate bool `json:"canCreate"`
}

// looseNumber accepts a JSON number, a JSON string or a form value. Input
// that does not parse as a number reads as zero.
type looseNumber string

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	*n = looseNumber(bytes.Trim(b, `"`))
	return nil
}

func (n *looseNumber) UnmarshalParam(param string) error {
	*n = looseNumber(param)
	return nil
}

func (n looseNumber) decimal() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(n)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// productForm is the editor payload as typed by the user.
type productForm struct {
	Name        string      `json:"name" form:"name"`
	Description string      `json:"description" form:"description"`
	Price       looseNumber `json:"price" form:"price"`
	Stock       looseNumber `json:"stock" form:"stock"`
}

// productInput is the coerced form that gets validated and sent.
type productInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

func (f productForm) coerce() productInput {
	return productInput{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
		Price:       f.Price.decimal(),
		Stock:       int(f.Stock.decimal().IntPart()),
	}
}

type editorResponse struct {
	Title   string          `json:"title"`
	Product *productInput   `json:"product,omitempty"`
	Saved   *domain.Product `json:"saved,omitempty"`
	Next    string          `json:"next,omitempty"`
}

// ListProducts renders the catalog.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	products, err := h.catalog.ListProducts(c.Request().Context())
	if err != nil {
		return err
	}
	h.screens.Navigate(c.Request().URL.Path)

	resp := catalogResponse{Products: make([]productCard, 0, len(products))}
	if identity, ok := h.session.Snapshot().Identity(); ok {
		resp.CanCreate = identity.IsAdmin()
	}
	for _, p := range products {
		resp.Products = append(resp.Products, productCard{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			StockLabel:  p.StockLabel(),
			InStock:     p.InStock(),
			Path:        productsPath + "/" + p.ID,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// EditForm prefills the editor with the stored product.
func (h *CatalogHandler) EditForm(c echo.Context) error {
	p, err := h.catalog.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	h.screens.Navigate(c.Request().URL.Path)
	return c.JSON(http.StatusOK, editorResponse{
		Title: "Edit Product",
		Product: &productInput{
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
		},
	})
}

// CreateProduct saves a new product and moves to the catalog.
//
// @Summary      Create a product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Param        body  body      productForm  true  "Product fields"
// @Success      201   {object}  editorResponse
// @Failure      400   {object}  map[string]string
// @Router       /products [post]
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	in, token, err := h.readForm(c)
	if err != nil {
		return err
	}
	saved, err := h.catalog.CreateProduct(c.Request().Context(), token, toDomainInput(in))
	if err != nil {
		return err
	}
	h.screens.Navigate(productsPath)
	return c.JSON(http.StatusCreated, editorResponse{Title: "Create New Product", Saved: saved, Next: productsPath})
}

// UpdateProduct saves an edited product and moves to the catalog.
func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	in, token, err := h.readForm(c)
	if err != nil {
		return err
	}
	saved, err := h.catalog.UpdateProduct(c.Request().Context(), token, c.Param("id"), toDomainInput(in))
	if err != nil {
		return err
	}
	h.screens.Navigate(productsPath)
	return c.JSON(http.StatusOK, editorResponse{Title: "Edit Product", Saved: saved, Next: productsPath})
}

// DeleteProduct removes a product.
func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	_, token, err := signedIn(h.session)
	if err != nil {
		return err
	}
	if err := h.catalog.DeleteProduct(c.Request().Context(), token, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) readForm(c echo.Context) (productInput, string, error) {
	_, token, err := signedIn(h.session)
	if err != nil {
		return productInput{}, "", err
	}
	var form productForm
	if err := c.Bind(&form); err != nil {
		return productInput{}, "", echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	in := form.coerce()
	if err := c.Validate(&in); err != nil {
		return productInput{}, "", err
	}
	return in, token, nil
}

func toDomainInput(in productInput) domain.ProductInput {
	return domain.ProductInput{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
	}
}
