// Package session holds the single source of truth for who is using this
// client: the current identity and its bearer credential.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
	"github.com/tiendita/storefront/internal/metrics"
)

// Store owns the session. Consumers read snapshots and subscribe to changes;
// only Store writes the persistent storage.
type Store struct {
	auth    ports.AuthAPI
	storage ports.SessionStorage
	log     zerolog.Logger

	// opMu serialises restore/login/register/logout so the persisted pair
	// and the in-memory pair change in the same order.
	opMu sync.Mutex

	mu      sync.RWMutex
	current domain.Session
	subs    map[uint64]func(domain.Session)
	nextSub uint64

	restoreOnce sync.Once
}

// NewStore returns a Store in the Unknown state. Call Restore once at
// startup before serving protected views.
func NewStore(auth ports.AuthAPI, storage ports.SessionStorage, log zerolog.Logger) *Store {
	return &Store{
		auth:    auth,
		storage: storage,
		log:     log.With().Str("component", "session").Logger(),
		subs:    make(map[uint64]func(domain.Session)),
	}
}

// Snapshot returns the latest session value.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe registers fn to be called with every new session value.
func (s *Store) Subscribe(fn func(domain.Session)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Restore rehydrates the session from storage. It runs once per Store; later
// calls return the current snapshot. The restored credential is trusted
// until the remote API rejects it. A storage failure or a partial pair
// leaves the session empty.
func (s *Store) Restore(ctx context.Context) domain.Session {
	s.restoreOnce.Do(func() {
		s.opMu.Lock()
		defer s.opMu.Unlock()

		next := domain.EmptySession()
		stored, err := s.storage.Load(ctx)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Msg("session restore failed, starting signed out")
		case stored.Identity != nil && stored.Token != "":
			restored, err := domain.NewSession(*stored.Identity, stored.Token)
			if err != nil {
				s.log.Warn().Err(err).Msg("discarding persisted session")
				break
			}
			next = restored
		case stored.Identity != nil || stored.Token != "":
			s.log.Warn().Msg("persisted session incomplete, starting signed out")
		}

		s.install(next, "restore")
	})
	return s.Snapshot()
}

// Login authenticates with the remote API, persists the pair, installs it
// and notifies subscribers. No retry is attempted.
func (s *Store) Login(ctx context.Context, creds domain.Credentials) (domain.Session, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	res, err := s.auth.Authenticate(ctx, creds)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("login_failed").Inc()
		return s.Snapshot(), authFailure(err, "Login failed")
	}
	return s.establish(ctx, res, "login")
}

// Register creates an account with the remote API and signs it in, with the
// same contract as Login.
func (s *Store) Register(ctx context.Context, reg domain.Registration) (domain.Session, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	res, err := s.auth.Register(ctx, reg)
	if err != nil {
		metrics.SessionEventsTotal.WithLabelValues("register_failed").Inc()
		return s.Snapshot(), authFailure(err, "Registration failed")
	}
	return s.establish(ctx, res, "register")
}

// Logout clears storage and memory and notifies subscribers. It never fails
// and is safe to call when already signed out.
func (s *Store) Logout(ctx context.Context) domain.Session {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.storage.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to clear persisted session")
	}

	if s.Snapshot().State() == domain.SessionEmpty {
		return s.Snapshot()
	}
	s.install(domain.EmptySession(), "logout")
	return s.Snapshot()
}

func (s *Store) establish(ctx context.Context, res *domain.AuthResult, event string) (domain.Session, error) {
	next, err := domain.NewSession(res.Identity, res.Token)
	if err != nil {
		return s.Snapshot(), domain.NewAPIError(domain.ErrAuth, 0, "Authentication response was incomplete")
	}

	identity := res.Identity
	if err := s.storage.Save(ctx, ports.StoredSession{Identity: &identity, Token: res.Token}); err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("failed to persist session")
		return s.Snapshot(), fmt.Errorf("%s: persist session: %w", event, err)
	}

	s.install(next, event)
	s.log.Info().
		Str("event", event).
		Str("user_id", identity.ID).
		Str("role", string(identity.Role)).
		Msg("session established")
	return next, nil
}

// install swaps the current session and notifies subscribers outside the
// lock, in registration order of the snapshot taken here.
func (s *Store) install(next domain.Session, event string) {
	s.mu.Lock()
	s.current = next
	subs := make([]func(domain.Session), 0, len(s.subs))
	for id := uint64(0); id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	metrics.SessionEventsTotal.WithLabelValues(event).Inc()
	for _, fn := range subs {
		fn(next)
	}
}

// authFailure normalises a collaborator error into an AuthError while
// keeping the server's message when there is one.
func authFailure(err error, fallback string) error {
	msg := domain.Message(err)
	if msg == "" {
		msg = fallback
	}
	return &domain.APIError{Kind: domain.ErrAuth, Message: msg}
}
