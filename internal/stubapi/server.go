package stubapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/pkg/validation"
)

// errorResponse is the error envelope the storefront client parses.
type errorResponse struct {
	Error string `json:"error"`
}

// NewServer builds the Echo instance with every route of the remote API
// mounted under /api.
func NewServer(store *Store, auth *AuthService, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = newHTTPErrorHandler(log)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))

	h := NewHandler(store, auth)
	authn := Auth(jwtSecret)
	adminOnly := RequireRole(domain.RoleAdmin)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.POST("/products", h.CreateProduct, authn, adminOnly)
	api.PUT("/products/:id", h.UpdateProduct, authn, adminOnly)
	api.DELETE("/products/:id", h.DeleteProduct, authn, adminOnly)

	orders := api.Group("/orders", authn)
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id/status", h.UpdateOrderStatus, adminOnly)

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func newHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
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

	var stock *StockError
	if errors.As(err, &stock) {
		return http.StatusBadRequest, fmt.Sprintf("Insufficient stock for %s", stock.Product)
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "Access forbidden"
	case errors.Is(err, ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity, err.Error()
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}
