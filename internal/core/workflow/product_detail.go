// Package workflow drives the product detail view: loading a product,
// selecting a quantity bounded by stock, submitting an order and redirecting
// to the order list once it is placed.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/internal/metrics"
)

// State is the lifecycle state of a ProductDetail instance.
type State string

const (
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateOrdering  State = "ordering"
	StateSucceeded State = "succeeded"
	StateNotFound  State = "not_found"
	StateLoadError State = "load_error"
)

const (
	OrdersPath           = "/orders"
	DefaultRedirectDelay = 2 * time.Second

	orderPlacedNotice  = "Order placed successfully! Redirecting to your orders..."
	orderFailedMessage = "Failed to create order"
	loadFailedMessage  = "Failed to fetch product"
)

var (
	ErrClosed              = errors.New("view closed")
	ErrSubmitInFlight      = errors.New("order submission already in flight")
	ErrNotReady            = errors.New("product not ready")
	ErrOrderingUnavailable = errors.New("ordering not available for this session")
)

// Timer is the part of *time.Timer the workflow needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Deps are the collaborators of a ProductDetail.
type Deps struct {
	Catalog   ports.CatalogAPI
	Orders    ports.OrderAPI
	Session   ports.SessionSource
	Navigator ports.Navigator
}

// Option customises a ProductDetail.
type Option func(*ProductDetail)

// WithRedirectDelay sets the grace period between a placed order and the
// redirect to the order list.
func WithRedirectDelay(d time.Duration) Option {
	return func(w *ProductDetail) {
		if d >= 0 {
			w.redirectDelay = d
		}
	}
}

// WithAfterFunc replaces the timer used for the post-order redirect.
func WithAfterFunc(fn AfterFunc) Option {
	return func(w *ProductDetail) {
		if fn != nil {
			w.afterFunc = fn
		}
	}
}

// ProductDetail is one mounted product detail view. It is safe for
// concurrent use; every response is committed only while the instance is
// alive and the request that produced it is still the latest one.
type ProductDetail struct {
	deps          Deps
	log           zerolog.Logger
	redirectDelay time.Duration
	afterFunc     AfterFunc

	mu         sync.Mutex
	alive      bool
	generation uint64
	inFlight   bool
	state      State
	productID  string
	product    *domain.Product
	quantity   int
	errMsg     string
	notice     string
	placed     *domain.Order
	redirect   Timer
}

// NewProductDetail mounts a product detail view. Call Load to fetch the
// product and Close when the view goes away.
func NewProductDetail(deps Deps, log zerolog.Logger, opts ...Option) *ProductDetail {
	w := &ProductDetail{
		deps:          deps,
		log:           log.With().Str("component", "product_detail").Logger(),
		redirectDelay: DefaultRedirectDelay,
		afterFunc:     realAfterFunc,
		alive:         true,
		state:         StateLoading,
		quantity:      1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load fetches productID and moves to ready, not_found or load_error.
// A response superseded by a newer Load, or arriving after Close, is
// discarded.
func (w *ProductDetail) Load(ctx context.Context, productID string) {
	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return
	}
	w.generation++
	gen := w.generation
	w.productID = productID
	w.state = StateLoading
	w.product = nil
	w.quantity = 1
	w.errMsg = ""
	w.notice = ""
	w.placed = nil
	w.stopRedirect()
	w.mu.Unlock()

	product, err := w.deps.Catalog.GetProduct(ctx, productID)

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.current(gen) {
		metrics.StaleResponsesTotal.WithLabelValues("product_detail").Inc()
		w.log.Debug().Str("product_id", productID).Msg("stale product response discarded")
		return
	}

	if err != nil {
		w.state = StateLoadError
		if errors.Is(err, domain.ErrNotFound) {
			w.state = StateNotFound
		}
		w.errMsg = messageOr(err, loadFailedMessage)
		w.log.Warn().Err(err).Str("product_id", productID).Msg("product load failed")
		return
	}

	w.product = product
	w.state = StateReady
	w.quantity = clamp(w.quantity, product.Stock)
}

// SetQuantity changes the selected quantity. Values outside [1, stock] are
// rejected and the last valid quantity is kept. The selector is locked
// outside the ready state, so an order in flight keeps its quantity.
func (w *ProductDetail) SetQuantity(q int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.selectorAvailable(); err != nil {
		return err
	}
	if q < 1 || q > w.product.Stock {
		return domain.Invalid(fmt.Sprintf("Quantity must be between 1 and %d", w.product.Stock))
	}
	w.quantity = q
	return nil
}

// ClampQuantity accepts a raw quantity that bypassed the selector, such as a
// hand-edited form value, and clamps it into [1, stock]. It returns the
// resulting quantity.
func (w *ProductDetail) ClampQuantity(q int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.selectorAvailable(); err != nil {
		return w.quantity, err
	}
	w.quantity = clamp(q, w.product.Stock)
	return w.quantity, nil
}

// Submit places a one-line order for the selected quantity. All checks run
// locally before any network call: signed-in client identity, ready state,
// quantity within stock. While a submission is in flight further calls fail
// with ErrSubmitInFlight. On failure the view returns to ready with the
// error message and the same quantity.
func (w *ProductDetail) Submit(ctx context.Context) error {
	w.mu.Lock()
	if !w.alive {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.inFlight {
		w.mu.Unlock()
		metrics.OrderSubmissionsTotal.WithLabelValues("suppressed").Inc()
		return ErrSubmitInFlight
	}
	if err := w.checkSubmittable(); err != nil {
		w.mu.Unlock()
		metrics.OrderSubmissionsTotal.WithLabelValues("rejected_locally").Inc()
		return err
	}

	token := w.deps.Session.Snapshot().Token()
	draft := domain.SingleLineDraft(w.product.ID, w.quantity)
	gen := w.generation
	w.inFlight = true
	w.state = StateOrdering
	w.errMsg = ""
	w.mu.Unlock()

	order, err := w.deps.Orders.CreateOrder(ctx, token, draft)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	if !w.current(gen) {
		metrics.StaleResponsesTotal.WithLabelValues("product_detail").Inc()
		return err
	}

	if err != nil {
		metrics.OrderSubmissionsTotal.WithLabelValues("failed").Inc()
		w.state = StateReady
		w.errMsg = messageOr(err, orderFailedMessage)
		w.log.Warn().Err(err).Str("product_id", draft.Items[0].ProductID).Msg("order submission failed")
		return err
	}

	metrics.OrderSubmissionsTotal.WithLabelValues("created").Inc()
	w.state = StateSucceeded
	w.placed = order
	w.notice = orderPlacedNotice
	w.redirect = w.afterFunc(w.redirectDelay, func() { w.redirectToOrders(gen) })
	w.log.Info().
		Str("product_id", draft.Items[0].ProductID).
		Int("quantity", draft.Items[0].Quantity).
		Msg("order placed")
	return nil
}

// Close tears the view down. Pending responses and the pending redirect
// are dropped.
func (w *ProductDetail) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alive = false
	w.stopRedirect()
}

// ProductID returns the product the view is showing or loading.
func (w *ProductDetail) ProductID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.productID
}

// Alive reports whether the view has not been closed.
func (w *ProductDetail) Alive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alive
}

func (w *ProductDetail) redirectToOrders(gen uint64) {
	w.mu.Lock()
	live := w.current(gen) && w.state == StateSucceeded
	w.redirect = nil
	w.mu.Unlock()

	if !live {
		return
	}
	w.deps.Navigator.Navigate(OrdersPath)
}

// current must be called with mu held.
func (w *ProductDetail) current(gen uint64) bool {
	return w.alive && gen == w.generation
}

// stopRedirect must be called with mu held.
func (w *ProductDetail) stopRedirect() {
	if w.redirect != nil {
		w.redirect.Stop()
		w.redirect = nil
	}
}

// selectorAvailable must be called with mu held.
func (w *ProductDetail) selectorAvailable() error {
	if !w.alive {
		return ErrClosed
	}
	if w.product == nil || w.state != StateReady {
		return ErrNotReady
	}
	if !canOrder(w.deps.Session.Snapshot(), w.product) {
		return ErrOrderingUnavailable
	}
	return nil
}

// checkSubmittable must be called with mu held.
func (w *ProductDetail) checkSubmittable() error {
	if w.state != StateReady || w.product == nil {
		return ErrNotReady
	}
	session := w.deps.Session.Snapshot()
	if !session.Present() {
		return domain.NewAPIError(domain.ErrAuth, 0, "You must be signed in to place an order")
	}
	if !canOrder(session, w.product) {
		return ErrOrderingUnavailable
	}
	if w.quantity < 1 || w.quantity > w.product.Stock {
		return domain.Invalid(fmt.Sprintf("Quantity must be between 1 and %d", w.product.Stock))
	}
	return nil
}

// canOrder reports whether the quantity selector is exposed: a client
// identity looking at a product with stock.
func canOrder(s domain.Session, p *domain.Product) bool {
	identity, ok := s.Identity()
	return ok && identity.Role == domain.RoleClient && p != nil && p.Stock > 0
}

func clamp(q, stock int) int {
	if stock < 1 || q < 1 {
		return 1
	}
	if q > stock {
		return stock
	}
	return q
}

func messageOr(err error, fallback string) string {
	if msg := domain.Message(err); msg != "" {
		return msg
	}
	return fallback
}
