package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository"
)

var _ repository.ResultCache = (*redisResultCache)(nil)

const resultKeyPrefix = "novelas:result:"

type redisResultCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisResultCache creates a Redis-backed result cache. Entries expire
// after ttl.
func NewRedisResultCache(client *goredis.Client, ttl time.Duration) repository.ResultCache {
	return &redisResultCache{client: client, ttl: ttl}
}

func (c *redisResultCache) Get(ctx context.Context, key string) (*domain.SolveResponse, error) {
	body, err := c.client.Get(ctx, resultKeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get result: %w", err)
	}

	resp := &domain.SolveResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, fmt.Errorf("redis: decode result: %w", err)
	}
	return resp, nil
}

func (c *redisResultCache) Set(ctx context.Context, key string, resp *domain.SolveResponse) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("redis: encode result: %w", err)
	}
	if err := c.client.Set(ctx, resultKeyPrefix+key, body, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set result: %w", err)
	}
	return nil
}
