package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"loan-origination/internal/domain/user"
)

// UserLRU is an in-process identity cache with per-entry TTL.
type UserLRU struct {
	lru *expirable.LRU[string, user.User]
}

func NewUserLRU(size int, ttl time.Duration) *UserLRU {
	if size <= 0 {
		size = 1024
	}
	return &UserLRU{lru: expirable.NewLRU[string, user.User](size, nil, ttl)}
}

func (c *UserLRU) Get(_ context.Context, key string) (*user.User, bool) {
	u, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return &u, true
}

func (c *UserLRU) Set(_ context.Context, key string, u *user.User) {
	c.lru.Add(key, *u)
}

func (c *UserLRU) Invalidate(_ context.Context, key string) {
	c.lru.Remove(key)
}

// UserRedis shares the identity cache across replicas.
type UserRedis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewUserRedis(rdb *redis.Client, ttl time.Duration) *UserRedis {
	return &UserRedis{rdb: rdb, ttl: ttl, prefix: "identity:user:"}
}

// Get treats any Redis failure as a miss.
func (c *UserRedis) Get(ctx context.Context, key string) (*user.User, bool) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var cu cachedUser
	if err := json.Unmarshal(b, &cu); err != nil {
		return nil, false
	}
	cu.User.ID = cu.ID
	return &cu.User, true
}

func (c *UserRedis) Set(ctx context.Context, key string, u *user.User) {
	b, err := json.Marshal(cachedUser{ID: u.ID, User: *u})
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, c.prefix+key, b, c.ttl).Err()
}

func (c *UserRedis) Invalidate(ctx context.Context, key string) {
	_ = c.rdb.Del(ctx, c.prefix+key).Err()
}

// cachedUser keeps the numeric primary key, which user.User hides from JSON.
type cachedUser struct {
	ID   uint64    `json:"id"`
	User user.User `json:"user"`
}
