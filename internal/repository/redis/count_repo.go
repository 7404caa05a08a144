package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"UEvents/internal/model"
)

const (
	CountKeyPrefix  = "rel:cnt"
	DefaultCountTTL = 10 * time.Minute
	LockKeyPrefix   = "lock"
	LockTTL         = 3 * time.Second
)

// CountRepository caches follower and RSVP counts. Writers invalidate, readers refill.
type CountRepository struct {
	RDB *redis.Client
	ttl time.Duration
}

func NewCountRepository(rdb *redis.Client, ttl time.Duration) *CountRepository {
	if ttl <= 0 {
		ttl = DefaultCountTTL
	}
	return &CountRepository{RDB: rdb, ttl: ttl}
}

func countKey(kind model.RelationKind, targetID string) string {
	return fmt.Sprintf("%s:%s:%s", CountKeyPrefix, kind, targetID)
}

func (r *CountRepository) Get(ctx context.Context, kind model.RelationKind, targetID string) (int64, bool, error) {
	n, err := r.RDB.Get(ctx, countKey(kind, targetID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (r *CountRepository) Set(ctx context.Context, kind model.RelationKind, targetID string, n int64) error {
	return r.RDB.Set(ctx, countKey(kind, targetID), n, r.ttl).Err()
}

func (r *CountRepository) Invalidate(ctx context.Context, kind model.RelationKind, targetID string) error {
	return r.RDB.Del(ctx, countKey(kind, targetID)).Err()
}

// DistLock is a SET NX lock released only by the token that took it.
type DistLock struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewDistLock(rdb *redis.Client) *DistLock {
	return &DistLock{RDB: rdb, TTL: LockTTL}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

func (l *DistLock) Acquire(ctx context.Context, key, token string) (bool, error) {
	return l.RDB.SetNX(ctx, LockKeyPrefix+":"+key, token, l.TTL).Result()
}

func (l *DistLock) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.RDB, []string{LockKeyPrefix + ":" + key}, token).Err()
}
