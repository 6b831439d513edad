package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// OddsCache guarda o último snapshot de odds provisórias por páreo
type OddsCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewOddsCache(r *redis.Client, ttl time.Duration) *OddsCache {
	return &OddsCache{R: r, TTL: ttl}
}

func oddsKey(raceID string) string { return "odds:race:" + raceID }

func (c *OddsCache) GetOdds(ctx context.Context, raceID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, oddsKey(raceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *OddsCache) SetOdds(ctx context.Context, raceID string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, oddsKey(raceID), b, c.TTL).Err()
}
