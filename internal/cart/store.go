package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts per session. Implemented by SessionStore (redis);
// handlers depend on the interface so tests can swap in a fake.
type Store interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, sessionID string, c Cart) error
	Clear(ctx context.Context, sessionID string) error
}

// SessionStore keeps carts in redis under a per-session key with a sliding
// TTL, so abandoned carts age out on their own.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func key(sessionID string) string {
	return "cart:" + sessionID
}

// Get loads the session's cart; a missing key is an empty cart, not an error.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := s.rdb.Get(ctx, key(sessionID)).Bytes()
	if err == redis.Nil {
		return Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return c, nil
}

// Save writes the cart back and refreshes the TTL. Saving an empty cart
// deletes the key.
func (s *SessionStore) Save(ctx context.Context, sessionID string, c Cart) error {
	if c.Empty() {
		return s.Clear(ctx, sessionID)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.rdb.Set(ctx, key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
