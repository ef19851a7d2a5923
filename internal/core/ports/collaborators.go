package ports

import (
	"context"

	"github.com/tiendita/storefront/internal/core/domain"
)

// AuthAPI is the remote authentication collaborator.
type AuthAPI interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error)
}

// CatalogAPI is the remote product catalog. Mutations require an admin
// bearer credential; the server enforces it.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, token string, in domain.ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, token, id string, in domain.ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
}

// OrderAPI is the remote order collaborator. Every call is authenticated.
type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, draft domain.DraftOrder) (*domain.Order, error)
	// ListOrders returns the caller's orders, or every order for admins.
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
	GetOrder(ctx context.Context, token, id string) (*domain.Order, error)
}
