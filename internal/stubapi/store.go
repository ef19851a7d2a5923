// Package stubapi is a small in-memory implementation of the remote shop API
// for local development and end-to-end runs of the storefront client.
package stubapi

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/core/domain"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// StockError reports an order line that asks for more than is available.
type StockError struct {
	Product   string
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%d available)", e.Product, e.Available)
}

func (e *StockError) Is(target error) bool { return target == ErrInsufficientStock }

// account is a stored user: its public identity plus the password hash.
type account struct {
	identity     domain.Identity
	passwordHash string
}

// Store holds users, products and orders in memory. Order creation checks
// and decrements stock for every line under one lock.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account // by id
	emails   map[string]string   // lower-cased email -> id
	products map[string]*domain.Product
	catalog  []string // product ids in insertion order
	orders   map[string]*domain.Order

	now   func() time.Time
	newID func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account),
		emails:   make(map[string]string),
		products: make(map[string]*domain.Product),
		orders:   make(map[string]*domain.Order),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    objectID,
	}
}

// objectID returns a 24 hex-digit id shaped like the ones the real API uses.
func objectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// ── Users ─────────────────────────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, identity domain.Identity, passwordHash string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(identity.Email)
	if _, exists := s.emails[key]; exists {
		return domain.Identity{}, ErrUserExists
	}
	identity.ID = s.newID()
	s.accounts[identity.ID] = &account{identity: identity, passwordHash: passwordHash}
	s.emails[key] = identity.ID
	return identity, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (domain.Identity, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return domain.Identity{}, "", ErrUserNotFound
	}
	acc := s.accounts[id]
	return acc.identity, acc.passwordHash, nil
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *Store) ListProducts(_ context.Context) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.catalog))
	for _, id := range s.catalog {
		out = append(out, *s.products[id])
	}
	return out
}

func (s *Store) GetProduct(_ context.Context, id string) (domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	return *p, nil
}

func (s *Store) CreateProduct(_ context.Context, in domain.ProductInput) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := &domain.Product{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.products[p.ID] = p
	s.catalog = append(s.catalog, p.ID)
	return *p
}

func (s *Store) UpdateProduct(_ context.Context, id string, in domain.ProductInput) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.UpdatedAt = s.now()
	return *p, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	s.catalog = slices.DeleteFunc(s.catalog, func(v string) bool { return v == id })
	return nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

// CreateOrder places draft for purchaser. Every line is checked against
// stock before any stock is taken; the total is computed here from the
// current unit prices.
func (s *Store) CreateOrder(_ context.Context, purchaser domain.Identity, draft domain.DraftOrder) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]int, len(draft.Items))
	for _, line := range draft.Items {
		p, ok := s.products[line.ProductID]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		wanted[line.ProductID] += line.Quantity
		if wanted[line.ProductID] > p.Stock {
			return domain.Order{}, &StockError{Product: p.Name, Available: p.Stock}
		}
	}

	now := s.now()
	order := domain.Order{
		ID:        s.newID(),
		Purchaser: purchaser,
		Items:     make([]domain.OrderItem, 0, len(draft.Items)),
		Total:     decimal.Zero,
		Status:    domain.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, line := range draft.Items {
		p := s.products[line.ProductID]
		p.Stock -= line.Quantity
		p.UpdatedAt = now

		item := domain.OrderItem{Product: *p, Quantity: line.Quantity, UnitPrice: p.Price}
		order.Items = append(order.Items, item)
		order.Total = order.Total.Add(item.Subtotal())
	}

	stored := order
	s.orders[order.ID] = &stored
	return order, nil
}

// ListOrders returns the caller's orders, or every order for an admin,
// newest first.
func (s *Store) ListOrders(_ context.Context, caller domain.Identity) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0)
	for _, o := range s.orders {
		if caller.IsAdmin() || o.Purchaser.ID == caller.ID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *Store) GetOrder(_ context.Context, caller domain.Identity, id string) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	if !caller.IsAdmin() && o.Purchaser.ID != caller.ID {
		return domain.Order{}, ErrForbidden
	}
	return *o, nil
}

// UpdateOrderStatus moves an order along the allowed transitions.
func (s *Store) UpdateOrderStatus(_ context.Context, id string, next domain.OrderStatus) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	if !o.Status.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = s.now()
	return *o, nil
}
