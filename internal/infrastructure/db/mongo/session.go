package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
)

const (
	sessionCollection = "client_sessions"
	defaultSlot       = "default"
)

// SessionStorage keeps the pair as a single document keyed by slot, so both
// halves are always written and removed together.
type SessionStorage struct {
	coll *mongo.Collection
	slot string
	now  func() time.Time
}

// NewSessionStorage uses the client_sessions collection of db. An empty slot
// defaults to "default".
func NewSessionStorage(db *mongo.Database, slot string) *SessionStorage {
	if slot == "" {
		slot = defaultSlot
	}
	return &SessionStorage{coll: db.Collection(sessionCollection), slot: slot, now: time.Now}
}

type mongoIdentity struct {
	ID    string `bson:"id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Role  string `bson:"role"`
}

type sessionDoc struct {
	Slot      string         `bson:"_id"`
	User      *mongoIdentity `bson:"user,omitempty"`
	Token     string         `bson:"token,omitempty"`
	UpdatedAt int64          `bson:"updated_at"`
}

func (s *SessionStorage) Load(ctx context.Context) (ports.StoredSession, error) {
	var doc sessionDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": s.slot}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ports.StoredSession{}, nil
		}
		return ports.StoredSession{}, fmt.Errorf("find session: %w", err)
	}
	return fromDoc(doc), nil
}

func (s *SessionStorage) Save(ctx context.Context, stored ports.StoredSession) error {
	doc := toDoc(s.slot, stored, s.now())
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": s.slot}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *SessionStorage) Clear(ctx context.Context) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": s.slot}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func toDoc(slot string, stored ports.StoredSession, now time.Time) sessionDoc {
	doc := sessionDoc{Slot: slot, Token: stored.Token, UpdatedAt: now.Unix()}
	if id := stored.Identity; id != nil {
		doc.User = &mongoIdentity{ID: id.ID, Name: id.Name, Email: id.Email, Role: string(id.Role)}
	}
	return doc
}

func fromDoc(doc sessionDoc) ports.StoredSession {
	out := ports.StoredSession{Token: doc.Token}
	if u := doc.User; u != nil {
		out.Identity = &domain.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: domain.Role(u.Role)}
	}
	return out
}
