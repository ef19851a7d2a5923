package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a transient read copy of a catalog entry owned by the remote API.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// InStock reports whether at least one unit can be ordered.
func (p Product) InStock() bool { return p.Stock > 0 }

// StockLabel is the badge text shown next to a product.
func (p Product) StockLabel() string {
	if p.Stock > 0 {
		return strconv.Itoa(p.Stock) + " in stock"
	}
	return "Out of stock"
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}
