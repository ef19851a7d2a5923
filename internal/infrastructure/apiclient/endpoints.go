package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tiendita/storefront/internal/core/domain"
)

// ── Auth ──────────────────────────────────────────────────────────────────────

// Authenticate exchanges credentials for an identity and bearer token.
func (c *Client) Authenticate(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.do(ctx, call{
		operation: "login",
		method:    http.MethodPost,
		path:      "/auth/login",
		body:      creds,
		fallback:  "Login failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its identity and bearer token.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.do(ctx, call{
		operation: "register",
		method:    http.MethodPost,
		path:      "/auth/register",
		body:      reg,
		fallback:  "Registration failed",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := c.do(ctx, call{
		operation: "list_products",
		method:    http.MethodGet,
		path:      "/products",
		fallback:  "Failed to fetch products",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, call{
		operation: "get_product",
		method:    http.MethodGet,
		path:      "/products/" + url.PathEscape(id),
		fallback:  "Product not found",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, token string, in domain.ProductInput) (*domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, call{
		operation: "create_product",
		method:    http.MethodPost,
		path:      "/products",
		token:     token,
		body:      in,
		fallback:  "Failed to create product",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, in domain.ProductInput) (*domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, call{
		operation: "update_product",
		method:    http.MethodPut,
		path:      "/products/" + url.PathEscape(id),
		token:     token,
		body:      in,
		fallback:  "Failed to update product",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.do(ctx, call{
		operation: "delete_product",
		method:    http.MethodDelete,
		path:      "/products/" + url.PathEscape(id),
		token:     token,
		fallback:  "Failed to delete product",
	}, nil)
}

// ── Orders ────────────────────────────────────────────────────────────────────

func (c *Client) CreateOrder(ctx context.Context, token string, draft domain.DraftOrder) (*domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, call{
		operation: "create_order",
		method:    http.MethodPost,
		path:      "/orders",
		token:     token,
		body:      draft,
		fallback:  "Failed to create order",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out []domain.Order
	err := c.do(ctx, call{
		operation: "list_orders",
		method:    http.MethodGet,
		path:      "/orders",
		token:     token,
		fallback:  "Failed to fetch orders",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrder(ctx context.Context, token, id string) (*domain.Order, error) {
	var out domain.Order
	err := c.do(ctx, call{
		operation: "get_order",
		method:    http.MethodGet,
		path:      "/orders/" + url.PathEscape(id),
		token:     token,
		fallback:  "Failed to fetch order",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
