package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/Abdurahmanit/rental-listing-service/internal/listing/domain"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const revokedKeyPrefix = "revoked:"

// RevocationCache fronts the blacklist collection. Only positive answers are cached:
// a token can become revoked at any time, but never becomes valid again.
type RevocationCache struct {
	client *redis.Client
	next   domain.TokenBlacklist
	ttl    time.Duration
	logger *logger.Logger
}

func NewRevocationCache(client *redis.Client, next domain.TokenBlacklist, ttl time.Duration, log *logger.Logger) *RevocationCache {
	return &RevocationCache{client: client, next: next, ttl: ttl, logger: log.Named("revocation_cache")}
}

func (c *RevocationCache) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := revokedKeyPrefix + tokenDigest(token)

	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Warn("Redis lookup failed, falling back to blacklist store", zap.Error(err))
	} else if n > 0 {
		return true, nil
	}

	revoked, err := c.next.IsRevoked(ctx, token)
	if err != nil {
		return false, err
	}
	if revoked {
		if err := c.client.Set(ctx, key, 1, c.ttl).Err(); err != nil {
			c.logger.Warn("Failed to cache revoked token", zap.Error(err))
		}
	}
	return revoked, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
