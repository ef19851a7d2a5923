package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tiendita/storefront/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type fakeSession struct {
	mu   sync.Mutex
	cur  domain.Session
	subs map[int]func(domain.Session)
	next int
}

func newFakeSession(s domain.Session) *fakeSession {
	return &fakeSession{cur: s, subs: map[int]func(domain.Session){}}
}

func (f *fakeSession) Snapshot() domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur
}

func (f *fakeSession) Subscribe(fn func(domain.Session)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *fakeSession) set(s domain.Session) {
	f.mu.Lock()
	f.cur = s
	subs := make([]func(domain.Session), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (f *fakeSession) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type stubOrders struct {
	mu      sync.Mutex
	byToken map[string][]domain.Order
	one     map[string]*domain.Order
	err     error
	holds   map[string]chan struct{} // ListOrders(token) blocks until closed
	calls   []string
}

func newStubOrders() *stubOrders {
	return &stubOrders{
		byToken: map[string][]domain.Order{},
		one:     map[string]*domain.Order{},
		holds:   map[string]chan struct{}{},
	}
}

func (o *stubOrders) hold(token string) chan struct{} {
	ch := make(chan struct{})
	o.mu.Lock()
	o.holds[token] = ch
	o.mu.Unlock()
	return ch
}

func (o *stubOrders) ListOrders(_ context.Context, token string) ([]domain.Order, error) {
	o.mu.Lock()
	o.calls = append(o.calls, token)
	gate := o.holds[token]
	o.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if o.err != nil {
		return nil, o.err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.Order(nil), o.byToken[token]...), nil
}

func (o *stubOrders) GetOrder(_ context.Context, token, id string) (*domain.Order, error) {
	o.mu.Lock()
	o.calls = append(o.calls, token)
	o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	order, ok := o.one[id]
	if !ok {
		return nil, domain.NewAPIError(domain.ErrNotFound, 404, "Order not found")
	}
	clone := *order
	return &clone, nil
}

func (o *stubOrders) CreateOrder(context.Context, string, domain.DraftOrder) (*domain.Order, error) {
	return nil, errors.New("not used")
}

func (o *stubOrders) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

// pausingSession blocks the next Snapshot call, after reading the current
// value, until resume is closed.
type pausingSession struct {
	*fakeSession
	mu     sync.Mutex
	armed  bool
	paused chan struct{}
	resume chan struct{}
}

func (p *pausingSession) arm() {
	p.mu.Lock()
	p.armed = true
	p.paused = make(chan struct{})
	p.resume = make(chan struct{})
	p.mu.Unlock()
}

func (p *pausingSession) Snapshot() domain.Session {
	s := p.fakeSession.Snapshot()
	p.mu.Lock()
	armed, paused, resume := p.armed, p.paused, p.resume
	p.armed = false
	p.mu.Unlock()
	if armed {
		close(paused)
		<-resume
	}
	return s
}

// switchingSession changes the session right before a subscription is
// registered, so the subscriber is not told about that change.
type switchingSession struct {
	*fakeSession
	next domain.Session
}

func (s *switchingSession) Subscribe(fn func(domain.Session)) func() {
	s.fakeSession.set(s.next)
	return s.fakeSession.Subscribe(fn)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustSession(t *testing.T, id string, role domain.Role) domain.Session {
	t.Helper()
	s, err := domain.NewSession(domain.Identity{ID: id, Name: "User " + id, Email: id + "@example.com", Role: role}, "tok-"+id)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}

func order(id string, status domain.OrderStatus, lines ...domain.OrderItem) domain.Order {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return domain.Order{
		ID:        id,
		Purchaser: domain.Identity{ID: "u1", Name: "Jane", Email: "jane@example.com", Role: domain.RoleClient},
		Items:     lines,
		Total:     total,
		Status:    status,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func item(productID string, qty int, price string) domain.OrderItem {
	return domain.OrderItem{
		Product:   domain.Product{ID: productID, Name: "Product " + productID},
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

// ---------------------------------------------------------------------------
// OrderList
// ---------------------------------------------------------------------------

func TestOrderList_RefreshAndTitle(t *testing.T) {
	tests := []struct {
		name  string
		role  domain.Role
		title string
	}{
		{"client", domain.RoleClient, "My Orders"},
		{"admin", domain.RoleAdmin, "All Orders"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sess := newFakeSession(mustSession(t, "u1", tc.role))
			orders := newStubOrders()
			orders.byToken["tok-u1"] = []domain.Order{order("abcdef123456", domain.OrderPending, item("p1", 2, "5.00"))}

			l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: sess}, zerolog.Nop())
			defer l.Close()
			l.Refresh(context.Background())

			v := l.View()
			if v.Title != tc.title {
				t.Fatalf("expected title %q, got %q", tc.title, v.Title)
			}
			if v.State != StateReady || len(v.Orders) != 1 {
				t.Fatalf("unexpected view: %+v", v)
			}
			if v.Orders[0].Reference != "ABCDEF12" {
				t.Fatalf("unexpected reference %q", v.Orders[0].Reference)
			}
			if v.Orders[0].Lines != nil {
				t.Fatalf("collapsed order must not carry lines")
			}
		})
	}
}

func TestOrderList_EmptyList(t *testing.T) {
	sess := newFakeSession(mustSession(t, "u1", domain.RoleClient))
	l := NewOrderList(context.Background(), ListDeps{Orders: newStubOrders(), Session: sess}, zerolog.Nop())
	defer l.Close()
	l.Refresh(context.Background())

	if v := l.View(); !v.Empty || v.State != StateReady {
		t.Fatalf("expected empty ready list, got %+v", v)
	}
}

func TestOrderList_SignedOutFetchesNothing(t *testing.T) {
	orders := newStubOrders()
	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: newFakeSession(domain.EmptySession())}, zerolog.Nop())
	defer l.Close()
	l.Refresh(context.Background())

	if orders.callCount() != 0 {
		t.Fatalf("no fetch expected without identity")
	}
	if v := l.View(); v.State != StateSignedOut {
		t.Fatalf("expected signed_out, got %s", v.State)
	}
}

func TestOrderList_FetchErrorInline(t *testing.T) {
	orders := newStubOrders()
	orders.err = domain.NewAPIError(domain.ErrFetch, 0, "")
	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: newFakeSession(mustSession(t, "u1", domain.RoleClient))}, zerolog.Nop())
	defer l.Close()
	l.Refresh(context.Background())

	v := l.View()
	if v.State != StateLoadError || v.Error != "Failed to fetch orders" {
		t.Fatalf("expected inline fallback error, got %+v", v)
	}
}

func TestOrderList_ToggleSingleExpanded(t *testing.T) {
	sess := newFakeSession(mustSession(t, "u1", domain.RoleClient))
	orders := newStubOrders()
	orders.byToken["tok-u1"] = []domain.Order{
		order("o1", domain.OrderPending, item("p1", 2, "1.50"), item("p2", 1, "4.00")),
		order("o2", domain.OrderCompleted, item("p3", 1, "2.00")),
	}
	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: sess}, zerolog.Nop())
	defer l.Close()
	l.Refresh(context.Background())

	if open, err := l.Toggle("o1"); err != nil || !open {
		t.Fatalf("expected o1 open, got %v %v", open, err)
	}
	v := l.View()
	if !v.Orders[0].Expanded || len(v.Orders[0].Lines) != 2 {
		t.Fatalf("expected o1 expanded with lines: %+v", v.Orders[0])
	}
	if !v.Orders[0].Lines[0].Subtotal.Equal(decimal.RequireFromString("3.00")) {
		t.Fatalf("unexpected subtotal %s", v.Orders[0].Lines[0].Subtotal)
	}

	if _, err := l.Toggle("o2"); err != nil {
		t.Fatalf("toggle o2: %v", err)
	}
	v = l.View()
	if v.Orders[0].Expanded || !v.Orders[1].Expanded {
		t.Fatalf("at most one order may be expanded: %+v", v.Orders)
	}

	if open, _ := l.Toggle("o2"); open {
		t.Fatalf("toggling the open order must close it")
	}
	if v := l.View(); v.Expanded != "" {
		t.Fatalf("expected nothing expanded, got %q", v.Expanded)
	}

	if _, err := l.Toggle("nope"); !errors.Is(err, ErrUnknownOrder) {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}
}

func TestOrderList_IdentityChangeClearsAndRefetches(t *testing.T) {
	sess := newFakeSession(mustSession(t, "u1", domain.RoleClient))
	orders := newStubOrders()
	orders.byToken["tok-u1"] = []domain.Order{order("o-u1", domain.OrderPending)}
	orders.byToken["tok-u2"] = []domain.Order{order("o-u2", domain.OrderPending)}

	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: sess}, zerolog.Nop())
	defer l.Close()
	l.Refresh(context.Background())
	_, _ = l.Toggle("o-u1")

	release := orders.hold("tok-u2")
	sess.set(mustSession(t, "u2", domain.RoleClient))

	// Cleared immediately, before the new fetch resolves.
	v := l.View()
	if len(v.Orders) != 0 || v.Expanded != "" || v.State != StateLoading {
		t.Fatalf("previous identity's orders must be cleared at once: %+v", v)
	}

	close(release)
	waitFor(t, func() bool {
		v := l.View()
		return v.State == StateReady && len(v.Orders) == 1 && v.Orders[0].ID == "o-u2"
	})
}

func TestOrderList_LogoutClears(t *testing.T) {
	sess := newFakeSession(mustSession(t, "u1", domain.RoleClient))
	orders := newStubOrders()
	orders.byToken["tok-u1"] = []domain.Order{order("o1", domain.OrderPending)}
	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: sess}, zerolog.Nop())
	defer l.Close()
	l.Refresh(context.Background())

	sess.set(domain.EmptySession())

	v := l.View()
	if len(v.Orders) != 0 || v.State != StateSignedOut {
		t.Fatalf("expected cleared list, got %+v", v)
	}
}

func TestOrderList_StaleIdentityResponseDiscarded(t *testing.T) {
	sess := newFakeSession(mustSession(t, "u1", domain.RoleClient))
	orders := newStubOrders()
	orders.byToken["tok-u1"] = []domain.Order{order("o-u1", domain.OrderPending)}
	release := orders.hold("tok-u1")

	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: sess}, zerolog.Nop())
	defer l.Close()

	done := make(chan struct{})
	go func() {
		l.Refresh(context.Background())
		close(done)
	}()
	waitFor(t, func() bool { return orders.callCount() == 1 })

	// The session ends while u1's fetch is outstanding.
	sess.set(domain.EmptySession())
	close(release)
	<-done

	if v := l.View(); len(v.Orders) != 0 {
		t.Fatalf("late response of a previous identity must be discarded: %+v", v.Orders)
	}
}

func TestOrderList_OlderSnapshotCannotRollBackIdentity(t *testing.T) {
	base := newFakeSession(mustSession(t, "u1", domain.RoleClient))
	sess := &pausingSession{fakeSession: base}
	orders := newStubOrders()
	orders.byToken["tok-u1"] = []domain.Order{order("o-u1", domain.OrderPending)}
	orders.byToken["tok-u2"] = []domain.Order{order("o-u2", domain.OrderPending)}
	releaseU1 := orders.hold("tok-u1")

	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: sess}, zerolog.Nop())
	defer l.Close()

	sess.arm()
	done := make(chan struct{})
	go func() {
		l.Refresh(context.Background())
		close(done)
	}()
	<-sess.paused

	// u2 signs in while the u1 refresh holds a u1 snapshot.
	go base.set(mustSession(t, "u2", domain.RoleClient))
	waitFor(t, func() bool { return base.Snapshot().Token() == "tok-u2" })
	close(sess.resume)

	waitFor(t, func() bool {
		v := l.View()
		return v.State == StateReady && len(v.Orders) == 1 && v.Orders[0].ID == "o-u2"
	})
	close(releaseU1)
	<-done

	v := l.View()
	if len(v.Orders) != 1 || v.Orders[0].ID != "o-u2" {
		t.Fatalf("orders of the signed-in identity expected, got %+v", v.Orders)
	}
}

func TestOrderList_SessionChangeDuringMountIsAdopted(t *testing.T) {
	sess := &switchingSession{
		fakeSession: newFakeSession(mustSession(t, "u1", domain.RoleClient)),
		next:        mustSession(t, "u2", domain.RoleAdmin),
	}
	orders := newStubOrders()
	orders.byToken["tok-u2"] = []domain.Order{order("o-u2", domain.OrderPending)}

	l := NewOrderList(context.Background(), ListDeps{Orders: orders, Session: sess}, zerolog.Nop())
	defer l.Close()

	if v := l.View(); v.Title != "All Orders" || v.State != StateLoading {
		t.Fatalf("expected the admin session to be adopted, got %+v", v)
	}
	l.Refresh(context.Background())
	if v := l.View(); len(v.Orders) != 1 || v.Orders[0].ID != "o-u2" {
		t.Fatalf("expected u2 orders, got %+v", v.Orders)
	}
}

func TestOrderList_CloseUnsubscribes(t *testing.T) {
	sess := newFakeSession(mustSession(t, "u1", domain.RoleClient))
	l := NewOrderList(context.Background(), ListDeps{Orders: newStubOrders(), Session: sess}, zerolog.Nop())
	if sess.subscribers() != 1 {
		t.Fatalf("expected one subscription")
	}
	l.Close()
	l.Close()
	if sess.subscribers() != 0 {
		t.Fatalf("close must unsubscribe")
	}
	if _, err := l.Toggle("x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// OrderDetail
// ---------------------------------------------------------------------------

func TestOrderDetail_AdminAffordances(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.Role
		status  domain.OrderStatus
		actions []domain.OrderStatus
	}{
		{"admin pending", domain.RoleAdmin, domain.OrderPending, []domain.OrderStatus{domain.OrderCompleted, domain.OrderCancelled}},
		{"admin completed", domain.RoleAdmin, domain.OrderCompleted, nil},
		{"admin cancelled", domain.RoleAdmin, domain.OrderCancelled, nil},
		{"client pending", domain.RoleClient, domain.OrderPending, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orders := newStubOrders()
			o := order("ord-1234567", tc.status, item("p1", 3, "2.50"))
			orders.one[o.ID] = &o

			d := NewOrderDetail(DetailDeps{Orders: orders, Session: newFakeSession(mustSession(t, "u1", tc.role))}, zerolog.Nop())
			d.Load(context.Background(), o.ID)

			v := d.View()
			if v.State != StateReady {
				t.Fatalf("expected ready, got %s (%s)", v.State, v.Error)
			}
			if len(v.Actions) != len(tc.actions) {
				t.Fatalf("expected %d actions, got %+v", len(tc.actions), v.Actions)
			}
			for i, want := range tc.actions {
				if v.Actions[i].Status != want || v.Actions[i].Label == "" {
					t.Fatalf("action %d: unexpected %+v", i, v.Actions[i])
				}
			}
			if v.Reference != "ORD-1234" || v.Customer == nil || v.Customer.Name != "Jane" {
				t.Fatalf("unexpected header: %+v", v)
			}
			if !v.Lines[0].Subtotal.Equal(decimal.RequireFromString("7.50")) {
				t.Fatalf("unexpected subtotal %s", v.Lines[0].Subtotal)
			}
		})
	}
}

func TestOrderDetail_NotFoundInline(t *testing.T) {
	d := NewOrderDetail(DetailDeps{Orders: newStubOrders(), Session: newFakeSession(mustSession(t, "u1", domain.RoleClient))}, zerolog.Nop())
	d.Load(context.Background(), "missing")

	v := d.View()
	if v.State != StateNotFound || v.Error != "Order not found" || v.BackPath != OrdersPath {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestOrderDetail_FetchErrorFallback(t *testing.T) {
	orders := newStubOrders()
	orders.err = domain.NewAPIError(domain.ErrFetch, 0, "")
	d := NewOrderDetail(DetailDeps{Orders: orders, Session: newFakeSession(mustSession(t, "u1", domain.RoleClient))}, zerolog.Nop())
	d.Load(context.Background(), "o1")

	if v := d.View(); v.State != StateLoadError || v.Error != "Failed to fetch order" {
		t.Fatalf("unexpected view: %+v", v)
	}
}

func TestOrderDetail_SignedOutNoCall(t *testing.T) {
	orders := newStubOrders()
	d := NewOrderDetail(DetailDeps{Orders: orders, Session: newFakeSession(domain.EmptySession())}, zerolog.Nop())
	d.Load(context.Background(), "o1")

	if orders.callCount() != 0 {
		t.Fatalf("no fetch expected without identity")
	}
	if v := d.View(); v.State != StateSignedOut {
		t.Fatalf("expected signed_out, got %s", v.State)
	}
}
