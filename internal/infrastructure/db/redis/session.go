package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tiendita/storefront/internal/core/domain"
	"github.com/tiendita/storefront/internal/core/ports"
)

// SessionStorage persists the session pair under two keys:
//
//	<prefix>:user   serialized identity
//	<prefix>:token  bearer credential
//
// Both keys are written and removed in one MULTI/EXEC transaction.
type SessionStorage struct {
	client redis.Cmdable
	prefix string
}

// NewSessionStorage wraps client. An empty prefix defaults to "storefront:session".
func NewSessionStorage(client redis.Cmdable, prefix string) *SessionStorage {
	if prefix == "" {
		prefix = "storefront:session"
	}
	return &SessionStorage{client: client, prefix: prefix}
}

func (s *SessionStorage) userKey() string  { return s.prefix + ":user" }
func (s *SessionStorage) tokenKey() string { return s.prefix + ":token" }

// Load returns whatever halves are stored. A missing key is not an error.
func (s *SessionStorage) Load(ctx context.Context) (ports.StoredSession, error) {
	vals, err := s.client.MGet(ctx, s.userKey(), s.tokenKey()).Result()
	if err != nil {
		return ports.StoredSession{}, fmt.Errorf("load session: %w", err)
	}
	return decodePair(vals)
}

// Save writes both halves atomically.
func (s *SessionStorage) Save(ctx context.Context, stored ports.StoredSession) error {
	user, err := encodeIdentity(stored.Identity)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if user == "" {
			pipe.Del(ctx, s.userKey())
		} else {
			pipe.Set(ctx, s.userKey(), user, 0)
		}
		if stored.Token == "" {
			pipe.Del(ctx, s.tokenKey())
		} else {
			pipe.Set(ctx, s.tokenKey(), stored.Token, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes both keys.
func (s *SessionStorage) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.userKey(), s.tokenKey()).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func encodeIdentity(identity *domain.Identity) (string, error) {
	if identity == nil {
		return "", nil
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return string(raw), nil
}

// decodePair turns an MGET reply into a StoredSession. Nil entries are
// missing keys.
func decodePair(vals []any) (ports.StoredSession, error) {
	var out ports.StoredSession
	if len(vals) != 2 {
		return out, errors.New("load session: unexpected reply length")
	}
	if raw, ok := vals[0].(string); ok && raw != "" {
		var identity domain.Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			return out, fmt.Errorf("decode identity: %w", err)
		}
		out.Identity = &identity
	}
	if token, ok := vals[1].(string); ok {
		out.Token = token
	}
	return out, nil
}
