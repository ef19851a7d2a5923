package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
)

func TestSessionDoc_RoundTrip(t *testing.T) {
	stored := ports.StoredSession{
		Identity: &domain.Identity{ID: "u1", Name: "Jane", Email: "jane@example.com", Role: domain.RoleClient},
		Token:    "tok",
	}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	raw, err := bson.Marshal(toDoc("default", stored, now))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc sessionDoc
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if doc.Slot != "default" || doc.UpdatedAt != now.Unix() {
		t.Fatalf("unexpected doc header: %+v", doc)
	}
	got := fromDoc(doc)
	if got.Token != "tok" || got.Identity == nil || *got.Identity != *stored.Identity {
		t.Fatalf("pair changed in round trip: %+v", got)
	}
}

func TestSessionDoc_PartialPair(t *testing.T) {
	raw, err := bson.Marshal(toDoc("default", ports.StoredSession{Token: "tok"}, time.Now()))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["user"]; ok {
		t.Fatalf("missing identity must not be written")
	}

	var doc sessionDoc
	_ = bson.Unmarshal(raw, &doc)
	if got := fromDoc(doc); got.Identity != nil || got.Token != "tok" {
		t.Fatalf("unexpected partial pair: %+v", got)
	}
}
