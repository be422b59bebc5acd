package redis

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// TTL key patterns:
// - upload:session:{session_id} - shadow key whose expiry drives the reaper

const sessionKeyPrefix = "upload:session:"

// SessionTTLStore maintains a shadow key per in-flight session. The key
// carries no authoritative state; only its TTL matters.
type SessionTTLStore struct {
	client *goredis.Client
}

// NewSessionTTLStore creates a new session TTL store
func NewSessionTTLStore(client *goredis.Client) *SessionTTLStore {
	return &SessionTTLStore{client: client}
}

// Track sets the shadow key with the session's remaining lifetime.
func (s *SessionTTLStore) Track(ctx context.Context, sessionID uuid.UUID, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, sessionKeyPrefix+sessionID.String(), "1", ttl).Err()
}

// Untrack drops the shadow key once the session reached a terminal state,
// so a completed session produces no expiry signal.
func (s *SessionTTLStore) Untrack(ctx context.Context, sessionID uuid.UUID) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID.String()).Err()
}

// SessionIDFromExpiredKey extracts the session id from an expired shadow key.
func SessionIDFromExpiredKey(key string) (uuid.UUID, bool) {
	if !strings.HasPrefix(key, sessionKeyPrefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimPrefix(key, sessionKeyPrefix))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
