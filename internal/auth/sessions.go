package auth

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionIndexKey  = "sessions:index"
)

// SessionStore keeps bearer sessions in redis. Expiry is enforced by key TTL;
// the index set exists so the sweeper and admin tooling can enumerate tokens.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// TTL reports the configured session lifetime.
func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Issue mints a new bearer token for the operator.
func (s *SessionStore) Issue(ctx context.Context, operatorID int64) (Session, error) {
	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(s.ttl)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+token, strconv.FormatInt(operatorID, 10), s.ttl)
	pipe.SAdd(ctx, sessionIndexKey, token)
	if _, err := pipe.Exec(ctx); err != nil {
		return Session{}, err
	}
	return Session{Token: token, OperatorID: operatorID, ExpiresAt: expiresAt}, nil
}

// Resolve returns the operator id behind a token, or false when the token is
// unknown or expired.
func (s *SessionStore) Resolve(ctx context.Context, token string) (int64, bool, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+token).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Revoke deletes the session.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+token)
	pipe.SRem(ctx, sessionIndexKey, token)
	_, err := pipe.Exec(ctx)
	return err
}

// Sweep drops index entries whose backing keys have expired. Returns the
// number of stale tokens removed.
func (s *SessionStore) Sweep(ctx context.Context) (int, error) {
	tokens, err := s.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, token := range tokens {
		exists, err := s.client.Exists(ctx, sessionKeyPrefix+token).Result()
		if err != nil {
			return removed, err
		}
		if exists == 0 {
			if err := s.client.SRem(ctx, sessionIndexKey, token).Err(); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
