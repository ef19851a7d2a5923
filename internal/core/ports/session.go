package ports

import (
	"context"

	"github.com/tiendita/storefront/internal/core/domain"
)

// StoredSession is the persisted form of the session pair. Either half may
// be missing when storage was tampered with or partially written; callers
// decide what a partial pair means.
type StoredSession struct {
	Identity *domain.Identity `json:"user,omitempty" bson:"user,omitempty"`
	Token    string           `json:"token,omitempty" bson:"token,omitempty"`
}

// SessionStorage persists the session pair across process restarts.
// Only the session store writes to it.
type SessionStorage interface {
	// Load returns the persisted pair. An empty StoredSession means nothing
	// is persisted.
	Load(ctx context.Context) (StoredSession, error)
	// Save writes both halves of the pair in one operation.
	Save(ctx context.Context, s StoredSession) error
	// Clear removes both halves. Clearing empty storage is not an error.
	Clear(ctx context.Context) error
}

// SessionSource is the read side of the session store handed to views.
type SessionSource interface {
	Snapshot() domain.Session
	// Subscribe registers fn for every session change and returns a func
	// that removes the subscription.
	Subscribe(fn func(domain.Session)) (unsubscribe func())
}

// Navigator moves the client to another view.
type Navigator interface {
	Navigate(path string)
}

// SessionManager is the full session store as the view server uses it.
// Subscribers registered through SessionSource must not call Login,
// Register or Logout from inside the callback.
type SessionManager interface {
	SessionSource
	Login(ctx context.Context, creds domain.Credentials) (domain.Session, error)
	Register(ctx context.Context, reg domain.Registration) (domain.Session, error)
	Logout(ctx context.Context) domain.Session
}
