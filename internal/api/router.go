// Package api is the view server: it exposes every client view as a JSON
// route over the session store, the credential gates and the workflows.
package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tiendita/storefront/internal/api/handler"
	"github.com/tiendita/storefront/internal/api/middleware"
	"github.com/tiendita/storefront/internal/api/screen"
	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/gate"
	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/pkg/validation"
)

// Deps are the collaborators the view server is built from.
type Deps struct {
	Sessions ports.SessionManager
	Catalog  ports.CatalogAPI
	Screens  *screen.Screens
	// Checks are the readiness probes, keyed by dependency name.
	Checks map[string]handler.Check
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))

	// --- Dependencies ---
	sessions := deps.Sessions
	screens := deps.Screens
	sessionHandler := handler.NewSessionHandler(sessions, screens)
	catalogHandler := handler.NewCatalogHandler(deps.Catalog, sessions, screens)
	productHandler := handler.NewProductHandler(screens)
	orderHandler := handler.NewOrderHandler(screens)
	accountHandler := handler.NewAccountHandler(sessions, screens)

	loggedIn := middleware.Gate(sessions, gate.LoggedIn)
	adminOnly := middleware.Gate(sessions, gate.LoggedIn, gate.Role(domain.RoleAdmin))

	// --- Session ---
	e.POST("/login", sessionHandler.Login)
	e.POST("/register", sessionHandler.Register)
	e.POST("/logout", sessionHandler.Logout)
	e.GET("/session", sessionHandler.Session)

	// --- Catalog ---
	e.GET("/", catalogHandler.ListProducts)
	e.GET("/products", catalogHandler.ListProducts)
	e.GET("/products/:id", productHandler.Show)
	e.PUT("/products/:id/quantity", productHandler.SetQuantity)
	e.POST("/products/:id/order", productHandler.Order, loggedIn)

	// --- Product editor (admin) ---
	e.POST("/products", catalogHandler.CreateProduct, adminOnly)
	e.GET("/products/:id/edit", catalogHandler.EditForm, adminOnly)
	e.PUT("/products/:id", catalogHandler.UpdateProduct, adminOnly)
	e.DELETE("/products/:id", catalogHandler.DeleteProduct, adminOnly)

	// --- Orders ---
	orders := e.Group("/orders", loggedIn)
	orders.GET("", orderHandler.List)
	orders.GET("/:id", orderHandler.Detail)
	orders.POST("/:id/toggle", orderHandler.Toggle)

	// --- Account ---
	e.GET("/profile", accountHandler.Profile, loggedIn)
	e.GET("/admin", accountHandler.Admin, adminOnly)

	// --- Health probes and metrics (no gate) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

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
