package stubapi

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/infrastructure/apiclient"
)

func loginFor(email, password string) domain.Credentials {
	return domain.Credentials{Email: email, Password: password}
}

// newStack starts the stub API seeded with DefaultSeed and returns an API
// client pointed at it.
func newStack(t *testing.T) *apiclient.Client {
	t.Helper()
	store := NewStore()
	auth := newTestAuth(store)
	require.NoError(t, DefaultSeed().Apply(context.Background(), store, auth))

	srv := httptest.NewServer(NewServer(store, auth, "secret", zerolog.Nop()))
	t.Cleanup(srv.Close)
	return apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second}, zerolog.Nop())
}

func TestServer_ClientOrderFlow(t *testing.T) {
	ctx := context.Background()
	api := newStack(t)

	client, err := api.Authenticate(ctx, loginFor("client@example.com", "client123"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, client.Identity.Role)

	products, err := api.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	mug := products[0]

	order, err := api.CreateOrder(ctx, client.Token, domain.SingleLineDraft(mug.ID, 2))
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(mug.Price.Mul(decimal.NewFromInt(2))))
	assert.Equal(t, client.Identity.ID, order.Purchaser.ID)

	after, err := api.GetProduct(ctx, mug.ID)
	require.NoError(t, err)
	assert.Equal(t, mug.Stock-2, after.Stock)

	_, err = api.CreateOrder(ctx, client.Token, domain.SingleLineDraft(mug.ID, 999))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Insufficient stock for "+mug.Name, domain.Message(err))

	mine, err := api.ListOrders(ctx, client.Token)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	got, err := api.GetOrder(ctx, client.Token, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestServer_AuthErrors(t *testing.T) {
	ctx := context.Background()
	api := newStack(t)

	_, err := api.Authenticate(ctx, loginFor("client@example.com", "nope"))
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, "Invalid credentials", domain.Message(err))

	_, err = api.ListOrders(ctx, "")
	assert.ErrorIs(t, err, domain.ErrAuth)

	_, err = api.Register(ctx, domain.Registration{Name: "Dup", Email: "client@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "User already exists", domain.Message(err))

	_, err = api.Register(ctx, domain.Registration{Name: "Short", Email: "short@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, domain.Message(err), "password")
}

func TestServer_AdminProductCRUD(t *testing.T) {
	ctx := context.Background()
	api := newStack(t)

	admin, err := api.Authenticate(ctx, loginFor("admin@example.com", "admin123"))
	require.NoError(t, err)
	client, err := api.Authenticate(ctx, loginFor("client@example.com", "client123"))
	require.NoError(t, err)

	in := domain.ProductInput{Name: "Poster", Description: "A2 print", Price: decimal.RequireFromString("9.00"), Stock: 4}

	_, err = api.CreateProduct(ctx, client.Token, in)
	assert.ErrorIs(t, err, domain.ErrAuth)

	created, err := api.CreateProduct(ctx, admin.Token, in)
	require.NoError(t, err)
	assert.Equal(t, "Poster", created.Name)

	in.Stock = 7
	updated, err := api.UpdateProduct(ctx, admin.Token, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	in.Price = decimal.RequireFromString("-1")
	_, err = api.UpdateProduct(ctx, admin.Token, created.ID, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, api.DeleteProduct(ctx, admin.Token, created.ID))
	_, err = api.GetProduct(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Product not found", domain.Message(err))
}

func TestServer_AdminSeesAllOrders(t *testing.T) {
	ctx := context.Background()
	api := newStack(t)

	admin, err := api.Authenticate(ctx, loginFor("admin@example.com", "admin123"))
	require.NoError(t, err)
	client, err := api.Authenticate(ctx, loginFor("client@example.com", "client123"))
	require.NoError(t, err)
	other, err := api.Register(ctx, domain.Registration{Name: "Other", Email: "other@example.com", Password: "other123"})
	require.NoError(t, err)

	products, err := api.ListProducts(ctx)
	require.NoError(t, err)
	o, err := api.CreateOrder(ctx, client.Token, domain.SingleLineDraft(products[0].ID, 1))
	require.NoError(t, err)

	all, err := api.ListOrders(ctx, admin.Token)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := api.ListOrders(ctx, other.Token)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = api.GetOrder(ctx, other.Token, o.ID)
	assert.ErrorIs(t, err, domain.ErrAuth)
}
