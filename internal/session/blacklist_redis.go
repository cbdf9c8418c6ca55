package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:jti:"

// BlacklistRedis stores revoked jtis as keys that expire with the token.
type BlacklistRedis struct {
	client  redis.UniversalClient
	timeout time.Duration
}

func NewBlacklistRedis(client redis.UniversalClient, timeout time.Duration) *BlacklistRedis {
	return &BlacklistRedis{client: client, timeout: timeout}
}

func (r *BlacklistRedis) AddToken(ctx context.Context, jti string, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.client.Set(timeoutCtx, revokedKeyPrefix+jti, userID, ttl).Err()
}

func (r *BlacklistRedis) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	n, err := r.client.Exists(timeoutCtx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
