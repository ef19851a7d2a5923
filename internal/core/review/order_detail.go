package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/internal/metrics"
)

// OrdersPath is the "back to orders" target of the detail view.
const OrdersPath = "/orders"

var actionLabels = map[domain.OrderStatus]string{
	domain.OrderCompleted: "Mark as Completed",
	domain.OrderCancelled: "Cancel Order",
}

// DetailDeps are the collaborators of an OrderDetail.
type DetailDeps struct {
	Orders  ports.OrderAPI
	Session ports.SessionSource
}

// OrderDetail is one mounted order detail view.
type OrderDetail struct {
	deps DetailDeps
	log  zerolog.Logger

	mu         sync.Mutex
	alive      bool
	generation uint64
	orderID    string
	state      State
	order      *domain.Order
	errMsg     string
}

// NewOrderDetail mounts an order detail view. Call Load with the order id.
func NewOrderDetail(deps DetailDeps, log zerolog.Logger) *OrderDetail {
	return &OrderDetail{
		deps:  deps,
		log:   log.With().Str("component", "order_detail").Logger(),
		alive: true,
		state: StateLoading,
	}
}

// Load fetches the order with the current bearer credential. Failures are
// kept on the view as an inline message; the view does not navigate away.
func (d *OrderDetail) Load(ctx context.Context, orderID string) {
	session := d.deps.Session.Snapshot()

	d.mu.Lock()
	if !d.alive {
		d.mu.Unlock()
		return
	}
	d.generation++
	gen := d.generation
	d.orderID = orderID
	d.order = nil
	d.errMsg = ""
	if !session.Present() {
		d.state = StateSignedOut
		d.mu.Unlock()
		return
	}
	d.state = StateLoading
	d.mu.Unlock()

	order, err := d.deps.Orders.GetOrder(ctx, session.Token(), orderID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.alive || gen != d.generation {
		metrics.StaleResponsesTotal.WithLabelValues("order_detail").Inc()
		return
	}
	if err != nil {
		d.state = StateLoadError
		if errors.Is(err, domain.ErrNotFound) {
			d.state = StateNotFound
		}
		d.errMsg = messageOr(err, detailFailedMessage)
		d.log.Warn().Err(err).Str("order_id", orderID).Msg("order fetch failed")
		return
	}
	d.order = order
	d.state = StateReady
}

// Close drops any response still in flight.
func (d *OrderDetail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alive = false
}

// Action is a status transition an administrator may request. The client
// only shows it; the remote API performs the transition.
type Action struct {
	Status domain.OrderStatus `json:"status"`
	Label  string             `json:"label"`
}

// Customer is the purchaser block of the detail view.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DetailView is a point-in-time copy of the order detail.
type DetailView struct {
	State     State              `json:"state"`
	OrderID   string             `json:"orderId"`
	Reference string             `json:"reference,omitempty"`
	Status    domain.OrderStatus `json:"status,omitempty"`
	CreatedAt *time.Time         `json:"createdAt,omitempty"`
	Total     decimal.Decimal    `json:"total"`
	Customer  *Customer          `json:"customer,omitempty"`
	Lines     []Line             `json:"lines,omitempty"`
	Actions   []Action           `json:"actions,omitempty"`
	BackPath  string             `json:"backPath"`
	Error     string             `json:"error,omitempty"`
}

// View returns the detail view model. Transition actions appear only for an
// administrator looking at an order that can still move.
func (d *OrderDetail) View() DetailView {
	identity, signedIn := d.deps.Session.Snapshot().Identity()

	d.mu.Lock()
	defer d.mu.Unlock()

	v := DetailView{
		State:    d.state,
		OrderID:  d.orderID,
		BackPath: OrdersPath,
		Error:    d.errMsg,
	}
	if d.order == nil {
		return v
	}
	o := d.order
	created := o.CreatedAt
	v.Reference = o.Reference()
	v.Status = o.Status
	v.CreatedAt = &created
	v.Total = o.Total
	v.Customer = &Customer{Name: o.Purchaser.Name, Email: o.Purchaser.Email}
	v.Lines = linesOf(*o)
	if signedIn && identity.IsAdmin() {
		for _, next := range o.Status.NextStatuses() {
			v.Actions = append(v.Actions, Action{Status: next, Label: actionLabels[next]})
		}
	}
	return v
}
