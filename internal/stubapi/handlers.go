package stubapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/core/domain"
)

// Handler serves the remote shop API.
type Handler struct {
	store *Store
	auth  *AuthService
}

func NewHandler(store *Store, auth *AuthService) *Handler {
	return &Handler{store: store, auth: auth}
}

// --- Request types ---

type registerRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role,omitempty" validate:"omitempty,oneof=admin client"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type productRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

type orderLineRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

type orderRequest struct {
	Items []orderLineRequest `json:"items" validate:"required,min=1,dive"`
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required,oneof=completed cancelled"`
}

// bindValid binds the JSON body into req and validates it.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}
	return c.Validate(req)
}

// --- Auth ---

// Register creates an account and signs it in.
//
// @Summary      Register
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  domain.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Register(c.Request().Context(), domain.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// Login exchanges credentials for a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.AuthResult
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.Request().Context(), domain.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// --- Products ---

func (h *Handler) ListProducts(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.ListProducts(c.Request().Context()))
}

func (h *Handler) GetProduct(c echo.Context) error {
	p, err := h.store.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// CreateProduct adds a catalog entry. Admin only.
//
// @Summary      Create product
// @Tags         products
// @Security     BearerAuth
// @Param        body  body      productRequest  true  "Product fields"
// @Success      201   {object}  domain.Product
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/products [post]
func (h *Handler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p := h.store.CreateProduct(c.Request().Context(), req.input())
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c echo.Context) error {
	var req productRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	p, err := h.store.UpdateProduct(c.Request().Context(), c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProduct(c echo.Context) error {
	if err := h.store.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (r productRequest) input() domain.ProductInput {
	return domain.ProductInput{Name: r.Name, Description: r.Description, Price: r.Price, Stock: r.Stock}
}

// --- Orders ---

// CreateOrder places an order for the caller. Stock is checked and taken
// server-side and the total is computed from current prices.
//
// @Summary      Create order
// @Tags         orders
// @Security     BearerAuth
// @Param        body  body      orderRequest  true  "Order lines"
// @Success      201   {object}  domain.Order
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/orders [post]
func (h *Handler) CreateOrder(c echo.Context) error {
	caller, ok := callerFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req orderRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	draft := domain.DraftOrder{Items: make([]domain.DraftLine, 0, len(req.Items))}
	for _, l := range req.Items {
		draft.Items = append(draft.Items, domain.DraftLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	order, err := h.store.CreateOrder(c.Request().Context(), caller, draft)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListOrders(c echo.Context) error {
	caller, ok := callerFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return c.JSON(http.StatusOK, h.store.ListOrders(c.Request().Context(), caller))
}

func (h *Handler) GetOrder(c echo.Context) error {
	caller, ok := callerFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	order, err := h.store.GetOrder(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus completes or cancels a pending order. Admin only.
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	var req statusRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	order, err := h.store.UpdateOrderStatus(c.Request().Context(), c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
