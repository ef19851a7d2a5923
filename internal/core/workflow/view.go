package workflow

import "github.com/tiendita/storefront/internal/core/domain"

// View is a point-in-time copy of everything the product detail view shows.
type View struct {
	State      State           `json:"state"`
	ProductID  string          `json:"productId"`
	Product    *domain.Product `json:"product,omitempty"`
	Quantity   int             `json:"quantity"`
	MaxQty     int             `json:"maxQuantity"`
	CanOrder   bool            `json:"canOrder"`
	CanEdit    bool            `json:"canEdit"`
	Submitting bool            `json:"submitting"`
	Error      string          `json:"error,omitempty"`
	Notice     string          `json:"notice,omitempty"`
	Order      *domain.Order   `json:"order,omitempty"`
}

// View returns the current view model. The quantity selector and submit
// affordance are exposed only for a client identity and a product in stock;
// admins get the edit affordance instead.
func (w *ProductDetail) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	session := w.deps.Session.Snapshot()
	identity, signedIn := session.Identity()

	v := View{
		State:      w.state,
		ProductID:  w.productID,
		Quantity:   w.quantity,
		Submitting: w.inFlight,
		Error:      w.errMsg,
		Notice:     w.notice,
		CanEdit:    signedIn && identity.IsAdmin() && w.product != nil,
	}
	if w.product != nil {
		p := *w.product
		v.Product = &p
		v.MaxQty = p.Stock
		v.CanOrder = canOrder(session, w.product)
	}
	if w.placed != nil {
		o := *w.placed
		v.Order = &o
	}
	return v
}
