// Package review shows previously placed orders: the caller's order list
// with expand/collapse, and a single order's detail with the status
// affordances an administrator may act on.
package review

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/core/domain"
)

// State is the lifecycle state of a review view.
type State string

const (
	StateSignedOut State = "signed_out"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateNotFound  State = "not_found"
	StateLoadError State = "load_error"
)

const (
	listFailedMessage   = "Failed to fetch orders"
	detailFailedMessage = "Failed to fetch order"
)

var (
	ErrClosed       = errors.New("view closed")
	ErrUnknownOrder = errors.New("order not in list")
)

// Line is one order item as displayed. Subtotal is derived for display
// from the persisted unit price and quantity.
type Line struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Summary is the collapsed row of an order in the list.
type Summary struct {
	ID         string             `json:"id"`
	Reference  string             `json:"reference"`
	Status     domain.OrderStatus `json:"status"`
	Total      decimal.Decimal    `json:"total"`
	CreatedAt  time.Time          `json:"createdAt"`
	Expanded   bool               `json:"expanded"`
	Lines      []Line             `json:"lines,omitempty"`
	DetailPath string             `json:"detailPath"`
}

func linesOf(o domain.Order) []Line {
	lines := make([]Line, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, Line{
			ProductID:   item.Product.ID,
			Name:        item.Product.Name,
			Description: item.Product.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal(),
		})
	}
	return lines
}

func detailPath(id string) string { return "/orders/" + id }

func messageOr(err error, fallback string) string {
	if msg := domain.Message(err); msg != "" {
		return msg
	}
	return fallback
}
