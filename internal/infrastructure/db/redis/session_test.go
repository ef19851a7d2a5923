package redis

import (
	"testing"

	"github.com/tiendita/storefront/internal/core/domain"
)

func TestDecodePair(t *testing.T) {
	identity := &domain.Identity{ID: "u1", Name: "Jane", Email: "jane@example.com", Role: domain.RoleAdmin}
	raw, err := encodeIdentity(identity)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name      string
		vals      []any
		wantUser  bool
		wantToken string
		wantErr   bool
	}{
		{"both halves", []any{raw, "tok"}, true, "tok", false},
		{"nothing stored", []any{nil, nil}, false, "", false},
		{"token only", []any{nil, "tok"}, false, "tok", false},
		{"user only", []any{raw, nil}, true, "", false},
		{"corrupt user", []any{"{not json", "tok"}, false, "", true},
		{"short reply", []any{raw}, false, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodePair(tc.vals)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (got.Identity != nil) != tc.wantUser {
				t.Fatalf("identity presence mismatch: %+v", got.Identity)
			}
			if tc.wantUser && *got.Identity != *identity {
				t.Fatalf("identity changed in round trip: %+v", got.Identity)
			}
			if got.Token != tc.wantToken {
				t.Fatalf("expected token %q, got %q", tc.wantToken, got.Token)
			}
		})
	}
}

func TestEncodeIdentity_Nil(t *testing.T) {
	raw, err := encodeIdentity(nil)
	if err != nil || raw != "" {
		t.Fatalf("nil identity must encode to nothing, got %q %v", raw, err)
	}
}

func TestSessionStorage_Keys(t *testing.T) {
	s := NewSessionStorage(nil, "")
	if s.userKey() != "storefront:session:user" || s.tokenKey() != "storefront:session:token" {
		t.Fatalf("unexpected keys %q %q", s.userKey(), s.tokenKey())
	}
}
