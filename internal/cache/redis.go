package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "calldata:sync:"

// RedisStore shares sync metadata across API replicas.
// One hash per tenant; every operation touches exactly one key, so tenants are isolated
// by Redis' per-command atomicity.
type RedisStore struct {
	rdb   *redis.Client
	clock func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, clock: time.Now}
}

// WithClock swaps the time source. Intended for tests.
func (s *RedisStore) WithClock(clock func() time.Time) *RedisStore {
	s.clock = clock
	return s
}

func redisKey(tenantID string) string { return redisKeyPrefix + tenantID }

var invalidateScript = redis.NewScript(`
-- KEYS[1] = sync hash
--
-- Returns:
--  1 if the entry existed and was marked invalidated
--  0 if there was no entry
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], 'invalidated', '1')
return 1
`)

func (s *RedisStore) ShouldRefetch(ctx context.Context, tenantID string, maxAge time.Duration) (bool, error) {
	e, ok, err := s.Get(ctx, tenantID)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return e.Stale(s.clock(), maxAge), nil
}

func (s *RedisStore) RecordSync(ctx context.Context, tenantID string, rowCount int) (Entry, error) {
	if tenantID == "" {
		return Entry{}, ErrTenantRequired
	}
	if s.rdb == nil {
		return Entry{}, fmt.Errorf("redis client is nil")
	}
	now := s.clock().UTC()
	err := s.rdb.HSet(ctx, redisKey(tenantID),
		"synced_at", strconv.FormatInt(now.UnixNano(), 10),
		"row_count", strconv.Itoa(rowCount),
		"invalidated", "0",
	).Err()
	if err != nil {
		return Entry{}, fmt.Errorf("cache: record sync: %w", err)
	}
	return Entry{TenantID: tenantID, LastSyncedAt: now, LastRowCount: rowCount}, nil
}

func (s *RedisStore) Invalidate(ctx context.Context, tenantID string) (bool, error) {
	if tenantID == "" {
		return false, ErrTenantRequired
	}
	if s.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	res, err := invalidateScript.Run(ctx, s.rdb, []string{redisKey(tenantID)}).Int()
	if err != nil {
		return false, fmt.Errorf("cache: invalidate: %w", err)
	}
	return res == 1, nil
}

func (s *RedisStore) Get(ctx context.Context, tenantID string) (Entry, bool, error) {
	if tenantID == "" {
		return Entry{}, false, ErrTenantRequired
	}
	if s.rdb == nil {
		return Entry{}, false, fmt.Errorf("redis client is nil")
	}
	vals, err := s.rdb.HGetAll(ctx, redisKey(tenantID)).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache: get: %w", err)
	}
	if len(vals) == 0 {
		return Entry{}, false, nil
	}
	return decodeEntry(tenantID, vals)
}

func (s *RedisStore) Delete(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrTenantRequired
	}
	if s.rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	return s.rdb.Del(ctx, redisKey(tenantID)).Err()
}

func decodeEntry(tenantID string, vals map[string]string) (Entry, bool, error) {
	e := Entry{TenantID: tenantID, Invalidated: vals["invalidated"] == "1"}
	if v := vals["synced_at"]; v != "" {
		ns, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Entry{}, false, fmt.Errorf("cache: bad synced_at %q: %w", v, err)
		}
		e.LastSyncedAt = time.Unix(0, ns).UTC()
	}
	if v := vals["row_count"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Entry{}, false, fmt.Errorf("cache: bad row_count %q: %w", v, err)
		}
		e.LastRowCount = n
	}
	return e, true, nil
}
