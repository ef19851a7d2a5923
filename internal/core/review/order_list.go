package review

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/internal/metrics"
)

const (
	titleAll  = "All Orders"
	titleMine = "My Orders"
)

// ListDeps are the collaborators of an OrderList.
type ListDeps struct {
	Orders  ports.OrderAPI
	Session ports.SessionSource
}

// OrderList is the mounted order listing. Its fetch is keyed on the current
// identity: when the identity changes the previous user's orders are cleared
// at once and a new fetch starts. At most one order is expanded at a time.
type OrderList struct {
	deps   ListDeps
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()

	mu         sync.Mutex
	alive      bool
	generation uint64
	identity   string
	admin      bool
	state      State
	orders     []domain.Order
	errMsg     string
	expanded   string
}

// NewOrderList mounts the order list and subscribes it to session changes.
// Background refetches triggered by a session change run under ctx until
// Close.
func NewOrderList(ctx context.Context, deps ListDeps, log zerolog.Logger) *OrderList {
	ctx, cancel := context.WithCancel(ctx)
	l := &OrderList{
		deps:   deps,
		log:    log.With().Str("component", "order_list").Logger(),
		ctx:    ctx,
		cancel: cancel,
		alive:  true,
		state:  StateSignedOut,
	}
	l.unsub = deps.Session.Subscribe(l.onSession)
	l.adopt(deps.Session.Snapshot())
	return l
}

// Refresh fetches the orders of the current identity. Without a signed-in
// identity the list is cleared and nothing is fetched.
func (l *OrderList) Refresh(ctx context.Context) {
	l.mu.Lock()
	// The snapshot is taken under mu so a session change adopted by
	// onSession can never be rolled back by an older snapshot.
	session := l.deps.Session.Snapshot()
	if !l.alive {
		l.mu.Unlock()
		return
	}
	l.adoptLocked(session)
	if !session.Present() {
		l.mu.Unlock()
		return
	}
	l.generation++
	gen, key := l.generation, l.identity
	l.state = StateLoading
	l.errMsg = ""
	l.mu.Unlock()

	orders, err := l.deps.Orders.ListOrders(ctx, session.Token())

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.alive || gen != l.generation || key != l.identity {
		metrics.StaleResponsesTotal.WithLabelValues("order_list").Inc()
		return
	}
	if err != nil {
		l.state = StateLoadError
		l.errMsg = messageOr(err, listFailedMessage)
		l.log.Warn().Err(err).Msg("order list fetch failed")
		return
	}
	l.orders = orders
	l.state = StateReady
	if l.expanded != "" && l.find(l.expanded) < 0 {
		l.expanded = ""
	}
}

// Toggle expands id, or collapses it when it is already expanded. Any other
// expanded order is collapsed. It reports whether id ends up expanded.
func (l *OrderList) Toggle(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.alive {
		return false, ErrClosed
	}
	if l.find(id) < 0 {
		return false, ErrUnknownOrder
	}
	if l.expanded == id {
		l.expanded = ""
		return false, nil
	}
	l.expanded = id
	return true, nil
}

// Close unsubscribes the list from the session and drops any response
// still in flight.
func (l *OrderList) Close() {
	l.mu.Lock()
	if !l.alive {
		l.mu.Unlock()
		return
	}
	l.alive = false
	l.mu.Unlock()

	l.cancel()
	if l.unsub != nil {
		l.unsub()
	}
}

// ListView is a point-in-time copy of the order list.
type ListView struct {
	Title    string    `json:"title"`
	State    State     `json:"state"`
	Orders   []Summary `json:"orders"`
	Empty    bool      `json:"empty"`
	Error    string    `json:"error,omitempty"`
	Expanded string    `json:"expanded,omitempty"`
}

// View returns the list view model. Only the expanded order carries its
// lines.
func (l *OrderList) View() ListView {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := ListView{
		Title:    titleMine,
		State:    l.state,
		Orders:   make([]Summary, 0, len(l.orders)),
		Error:    l.errMsg,
		Expanded: l.expanded,
	}
	if l.admin {
		v.Title = titleAll
	}
	for _, o := range l.orders {
		s := Summary{
			ID:         o.ID,
			Reference:  o.Reference(),
			Status:     o.Status,
			Total:      o.Total,
			CreatedAt:  o.CreatedAt,
			Expanded:   o.ID == l.expanded,
			DetailPath: detailPath(o.ID),
		}
		if s.Expanded {
			s.Lines = linesOf(o)
		}
		v.Orders = append(v.Orders, s)
	}
	v.Empty = l.state == StateReady && len(v.Orders) == 0
	return v
}

func (l *OrderList) onSession(s domain.Session) {
	if changed := l.adopt(s); changed && s.Present() {
		go l.Refresh(l.ctx)
	}
}

func (l *OrderList) adopt(s domain.Session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.alive {
		return false
	}
	return l.adoptLocked(s)
}

// adoptLocked must be called with mu held. It clears everything belonging
// to the previous identity and reports whether the identity changed.
func (l *OrderList) adoptLocked(s domain.Session) bool {
	identity, ok := s.Identity()
	key := ""
	if ok {
		key = identity.ID
	}
	l.admin = ok && identity.IsAdmin()
	if key == l.identity {
		return false
	}

	l.identity = key
	l.orders = nil
	l.expanded = ""
	l.errMsg = ""
	l.generation++
	l.state = StateSignedOut
	if ok {
		l.state = StateLoading
	}
	return true
}

func (l *OrderList) find(id string) int {
	for i := range l.orders {
		if l.orders[i].ID == id {
			return i
		}
	}
	return -1
}
