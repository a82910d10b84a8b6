package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vinylen2/ellabib-server/internal/domain"
	apperrors "github.com/vinylen2/ellabib-server/pkg/errors"
)

const keyPrefix = "leaderboard:"

// LeaderboardCache caches computed leaderboards in Redis, keyed by scope
// type. Entries are invalidated on every moderation action that changes
// qualifying reviews, so the TTL is only a backstop.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboardCache creates a Redis-backed leaderboard cache.
func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached leaderboard for the given scope type.
func (c *LeaderboardCache) Get(ctx context.Context, scopeType string) ([]domain.LeaderboardEntry, error) {
	key := keyPrefix + scopeType

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("leaderboard", scopeType)
		}
		return nil, fmt.Errorf("redis get leaderboard: %w", err)
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal leaderboard: %w", err)
	}

	return entries, nil
}

// Set stores a leaderboard for the given scope type with the configured TTL.
func (c *LeaderboardCache) Set(ctx context.Context, scopeType string, entries []domain.LeaderboardEntry) error {
	key := keyPrefix + scopeType

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set leaderboard: %w", err)
	}

	return nil
}

// Invalidate drops the cached leaderboards for every scope type. A review
// state change can move totals at all three scope levels at once.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	keys := []string{
		keyPrefix + domain.ScopeUser,
		keyPrefix + domain.ScopeClass,
		keyPrefix + domain.ScopeSchoolUnit,
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del leaderboards: %w", err)
	}

	return nil
}
