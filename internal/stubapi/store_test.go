package stubapi

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/core/domain"
)

func seededStore(t *testing.T) (*Store, domain.Product, domain.Product) {
	t.Helper()
	s := NewStore()
	mug := s.CreateProduct(context.Background(), domain.ProductInput{Name: "Mug", Description: "m", Price: decimal.RequireFromString("12.50"), Stock: 5})
	tote := s.CreateProduct(context.Background(), domain.ProductInput{Name: "Tote", Description: "t", Price: decimal.RequireFromString("3.00"), Stock: 1})
	return s, mug, tote
}

var (
	alice = domain.Identity{ID: "u-alice", Name: "Alice", Email: "alice@example.com", Role: domain.RoleClient}
	bob   = domain.Identity{ID: "u-bob", Name: "Bob", Email: "bob@example.com", Role: domain.RoleClient}
	root  = domain.Identity{ID: "u-root", Name: "Root", Email: "root@example.com", Role: domain.RoleAdmin}
)

func TestStore_CreateOrder_TotalsAndStock(t *testing.T) {
	s, mug, tote := seededStore(t)

	order, err := s.CreateOrder(context.Background(), alice, domain.DraftOrder{Items: []domain.DraftLine{
		{ProductID: mug.ID, Quantity: 2},
		{ProductID: tote.ID, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if !order.Total.Equal(decimal.RequireFromString("28.00")) {
		t.Fatalf("unexpected total %s", order.Total)
	}
	if order.Status != domain.OrderPending || order.Purchaser.ID != alice.ID {
		t.Fatalf("unexpected order %+v", order)
	}
	if p, _ := s.GetProduct(context.Background(), mug.ID); p.Stock != 3 {
		t.Fatalf("expected mug stock 3, got %d", p.Stock)
	}
}

func TestStore_CreateOrder_InsufficientStockTakesNothing(t *testing.T) {
	s, mug, tote := seededStore(t)

	_, err := s.CreateOrder(context.Background(), alice, domain.DraftOrder{Items: []domain.DraftLine{
		{ProductID: mug.ID, Quantity: 1},
		{ProductID: tote.ID, Quantity: 2},
	}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	var se *StockError
	if !errors.As(err, &se) || se.Product != "Tote" || se.Available != 1 {
		t.Fatalf("unexpected stock error %+v", se)
	}
	if p, _ := s.GetProduct(context.Background(), mug.ID); p.Stock != 5 {
		t.Fatalf("a rejected order must not take stock, mug has %d", p.Stock)
	}
}

func TestStore_CreateOrder_RepeatedLinesAddUp(t *testing.T) {
	s, _, tote := seededStore(t)

	_, err := s.CreateOrder(context.Background(), alice, domain.DraftOrder{Items: []domain.DraftLine{
		{ProductID: tote.ID, Quantity: 1},
		{ProductID: tote.ID, Quantity: 1},
	}})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestStore_OrdersScopedToCaller(t *testing.T) {
	s, mug, _ := seededStore(t)
	ctx := context.Background()

	a, _ := s.CreateOrder(ctx, alice, domain.SingleLineDraft(mug.ID, 1))
	_, _ = s.CreateOrder(ctx, bob, domain.SingleLineDraft(mug.ID, 1))

	if got := s.ListOrders(ctx, alice); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("alice must see only her order, got %d", len(got))
	}
	if got := s.ListOrders(ctx, root); len(got) != 2 {
		t.Fatalf("admin must see every order, got %d", len(got))
	}
	if _, err := s.GetOrder(ctx, bob, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := s.GetOrder(ctx, root, a.ID); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}
	if _, err := s.GetOrder(ctx, root, "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestStore_UpdateOrderStatus(t *testing.T) {
	s, mug, _ := seededStore(t)
	ctx := context.Background()
	o, _ := s.CreateOrder(ctx, alice, domain.SingleLineDraft(mug.ID, 1))

	done, err := s.UpdateOrderStatus(ctx, o.ID, domain.OrderCompleted)
	if err != nil || done.Status != domain.OrderCompleted {
		t.Fatalf("complete failed: %v", err)
	}
	if _, err := s.UpdateOrderStatus(ctx, o.ID, domain.OrderCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed order must be terminal, got %v", err)
	}
}

func TestStore_ProductCRUD(t *testing.T) {
	s, mug, tote := seededStore(t)
	ctx := context.Background()

	if got := s.ListProducts(ctx); len(got) != 2 || got[0].ID != mug.ID || got[1].ID != tote.ID {
		t.Fatalf("products must list in insertion order: %+v", got)
	}

	updated, err := s.UpdateProduct(ctx, mug.ID, domain.ProductInput{Name: "Big Mug", Description: "m", Price: decimal.RequireFromString("14"), Stock: 9})
	if err != nil || updated.Name != "Big Mug" || updated.Stock != 9 {
		t.Fatalf("update failed: %+v %v", updated, err)
	}

	if err := s.DeleteProduct(ctx, mug.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := s.DeleteProduct(ctx, mug.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if got := s.ListProducts(ctx); len(got) != 1 || got[0].ID != tote.ID {
		t.Fatalf("unexpected catalog after delete: %+v", got)
	}
}
