package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// validTransitions lists the moves an administrator may trigger remotely.
// The client only uses it to decide which affordances to show.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderCompleted, OrderCancelled},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s, in display order.
func (s OrderStatus) NextStatuses() []OrderStatus {
	next := validTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// OrderItem is one persisted line of an order. UnitPrice is the price the
// server charged at purchase time.
type OrderItem struct {
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

// Subtotal is UnitPrice × Quantity, derived for display only.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a placed order as returned by the remote API. Total is
// authoritative and computed server-side.
type Order struct {
	ID        string          `json:"_id"`
	Purchaser Identity        `json:"user"`
	Items     []OrderItem     `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Reference is the short, human-facing order number.
func (o Order) Reference() string {
	ref := o.ID
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return strings.ToUpper(ref)
}

// DraftLine is a single line of a DraftOrder.
type DraftLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// DraftOrder is the client-built order request. It is not validated by the
// server until submitted and is discarded once the call resolves.
type DraftOrder struct {
	Items []DraftLine `json:"items"`
}

// SingleLineDraft builds the one-line draft used by the product detail view.
func SingleLineDraft(productID string, quantity int) DraftOrder {
	return DraftOrder{Items: []DraftLine{{ProductID: productID, Quantity: quantity}}}
}
