package redis

import (
	"alcyxob/runcoach-app/internal/domain"
	"alcyxob/runcoach-app/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	planKeyPrefix = "runcoach:plan:"
	legacySlotKey = "runcoach:postponed_workout"

	// Cached plans outlive the week they describe by a wide margin so the
	// postponement-recovery passes still have something to merge from, but
	// they do eventually age out. The durable tier is the authority.
	planCacheTTL = 45 * 24 * time.Hour
)

// planCache implements repository.PlanStore as the fast, evictable tier.
// It also carries the legacy single-slot postponement record written by
// pre-ledger clients.
type planCache struct {
	client *redis.Client
}

// NewPlanCache creates the cache-tier plan store.
func NewPlanCache(client *redis.Client) *planCache {
	return &planCache{client: client}
}

// Get retrieves the cached blob for a week key.
func (c *planCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, planKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.ErrNotFound
		}
		return "", repository.ErrUnavailable
	}
	return val, nil
}

// Set caches the blob for a week key.
func (c *planCache) Set(ctx context.Context, key string, value string) error {
	if err := c.client.Set(ctx, planKeyPrefix+key, value, planCacheTTL).Err(); err != nil {
		return repository.ErrUnavailable
	}
	return nil
}

// Remove evicts the cached blob for a week key.
func (c *planCache) Remove(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, planKeyPrefix+key).Err(); err != nil {
		return repository.ErrUnavailable
	}
	return nil
}

// GetLegacyPostponement reads the pre-ledger single-slot record, if one
// survived on this install. Corrupt blobs surface as ErrCorruptPlanData so
// migration can skip them without guessing.
func (c *planCache) GetLegacyPostponement(ctx context.Context) (*domain.LegacyPostponement, error) {
	val, err := c.client.Get(ctx, legacySlotKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, repository.ErrUnavailable
	}
	return domain.DecodeLegacyPostponement(val)
}
