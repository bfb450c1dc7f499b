package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forgo/nonagon/internal/model"
)

const (
	claimKeyPrefix = "nonagon:idclaim:"

	// DefaultClaimTTL covers the gap between allocation and insert.
	DefaultClaimTTL = 30 * time.Second
)

// RedisClaimer claims candidates with SET NX and a TTL, shared by every
// process using the same Redis.
type RedisClaimer struct {
	client redis.Cmdable
	ttl    time.Duration
}

// RedisClaimerOption configures a RedisClaimer.
type RedisClaimerOption func(*RedisClaimer)

// WithClaimTTL sets how long a claim is held.
func WithClaimTTL(ttl time.Duration) RedisClaimerOption {
	return func(c *RedisClaimer) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewRedisClaimer constructs a Redis-backed claimer.
func NewRedisClaimer(client redis.Cmdable, opts ...RedisClaimerOption) *RedisClaimer {
	c := &RedisClaimer{client: client, ttl: DefaultClaimTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// ClaimKey returns the Redis key for a candidate.
func ClaimKey(guildID int64, kind model.Kind, candidate string) string {
	return fmt.Sprintf("%s%d:%s:%s", claimKeyPrefix, guildID, kind.Name(), candidate)
}

// Claim reports whether this caller now holds the candidate.
func (c *RedisClaimer) Claim(ctx context.Context, guildID int64, kind model.Kind, candidate string) (bool, error) {
	ok, err := c.client.SetNX(ctx, ClaimKey(guildID, kind, candidate), "1", c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim: %w", err)
	}
	return ok, nil
}
