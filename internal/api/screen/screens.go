// Package screen tracks which views are mounted in the view server and where
// the client currently is. It is the Navigator handed to the core workflows.
package screen

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/internal/core/review"
	"github.com/tiendita/storefront/internal/core/workflow"
)

// Deps are the collaborators shared by every mounted view.
type Deps struct {
	Catalog ports.CatalogAPI
	Orders  ports.OrderAPI
	Session ports.SessionSource
}

// Screens owns the mounted product detail view and the order list. Mounting
// a different product closes the previous instance, and navigating away
// from a product closes it too, so late responses and pending redirects of
// an old view are dropped.
type Screens struct {
	deps          Deps
	log           zerolog.Logger
	redirectDelay time.Duration
	afterFunc     workflow.AfterFunc
	// ctx bounds background refetches of the order list.
	ctx context.Context

	mu       sync.Mutex
	location string
	product  *workflow.ProductDetail
	orders   *review.OrderList
}

// Option customises Screens.
type Option func(*Screens)

// WithRedirectDelay sets the post-order redirect delay of product views.
func WithRedirectDelay(d time.Duration) Option {
	return func(s *Screens) { s.redirectDelay = d }
}

// WithAfterFunc replaces the timer used by product views.
func WithAfterFunc(fn workflow.AfterFunc) Option {
	return func(s *Screens) { s.afterFunc = fn }
}

// New returns Screens positioned at the home path.
func New(ctx context.Context, deps Deps, log zerolog.Logger, opts ...Option) *Screens {
	s := &Screens{
		deps:          deps,
		log:           log.With().Str("component", "screens").Logger(),
		redirectDelay: workflow.DefaultRedirectDelay,
		ctx:           ctx,
		location:      "/",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Navigate moves the client to path. Leaving a product detail path closes
// the mounted product view.
func (s *Screens) Navigate(path string) {
	s.mu.Lock()
	prev := s.location
	s.location = path
	var closing *workflow.ProductDetail
	if s.product != nil && path != productPath(s.product.ProductID()) {
		closing = s.product
		s.product = nil
	}
	s.mu.Unlock()

	if closing != nil {
		closing.Close()
	}
	s.log.Debug().Str("from", prev).Str("to", path).Msg("navigate")
}

// Location returns the path the client is on.
func (s *Screens) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Product returns the mounted product view for id, mounting and loading a
// new one when none is mounted for id.
func (s *Screens) Product(ctx context.Context, id string) *workflow.ProductDetail {
	s.mu.Lock()
	if s.product != nil && s.product.Alive() && s.product.ProductID() == id {
		view := s.product
		s.location = productPath(id)
		s.mu.Unlock()
		return view
	}

	previous := s.product
	opts := []workflow.Option{workflow.WithRedirectDelay(s.redirectDelay)}
	if s.afterFunc != nil {
		opts = append(opts, workflow.WithAfterFunc(s.afterFunc))
	}
	view := workflow.NewProductDetail(workflow.Deps{
		Catalog:   s.deps.Catalog,
		Orders:    s.deps.Orders,
		Session:   s.deps.Session,
		Navigator: s,
	}, s.log, opts...)
	s.product = view
	s.location = productPath(id)
	s.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	view.Load(ctx, id)
	return view
}

// MountedProduct returns the product view mounted for id, if any.
func (s *Screens) MountedProduct(id string) (*workflow.ProductDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.product == nil || !s.product.Alive() || s.product.ProductID() != id {
		return nil, false
	}
	return s.product, true
}

// OrderList returns the order list, mounting it on first use.
func (s *Screens) OrderList() *review.OrderList {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders == nil {
		s.orders = review.NewOrderList(s.ctx, review.ListDeps{
			Orders:  s.deps.Orders,
			Session: s.deps.Session,
		}, s.log)
	}
	return s.orders
}

// OrderDetail mounts a fresh order detail view. The caller closes it.
func (s *Screens) OrderDetail() *review.OrderDetail {
	return review.NewOrderDetail(review.DetailDeps{
		Orders:  s.deps.Orders,
		Session: s.deps.Session,
	}, s.log)
}

// Close tears down every mounted view.
func (s *Screens) Close() {
	s.mu.Lock()
	product, orders := s.product, s.orders
	s.product, s.orders = nil, nil
	s.mu.Unlock()

	if product != nil {
		product.Close()
	}
	if orders != nil {
		orders.Close()
	}
}

func productPath(id string) string { return "/products/" + id }
