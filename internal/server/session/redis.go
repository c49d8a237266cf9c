package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/shared"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "auth_"

// tokenBytes gives 128 bits of randomness, rendered as 32 hex characters.
const tokenBytes = 16

// RedisStore implements Store on top of Redis (or any RESP-compatible
// server such as Dragonfly).
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore constructs a store issuing tokens with the given TTL.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Issue(ctx context.Context, userID string) (string, error) {
	token, err := shared.MakeRandHexString(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("token generation error: %w", err)
	}
	// A token collision would silently overwrite the older session; with a
	// 128-bit space this is an accepted risk.
	if err := s.client.Set(ctx, keyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("session store error: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", common.ErrorUnauthorized
	}
	userID, err := s.client.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrorUnauthorized
		}
		return "", fmt.Errorf("session store error: %w", err)
	}
	return userID, nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("session store error: %w", err)
	}
	return nil
}
