package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisConfig_Defaults(t *testing.T) {
	c := RedisConfig{MinIdleConns: -1}.withDefaults()
	if c.DialTimeout != 3*time.Second || c.PoolSize != 20 || c.PingTimeout != 2*time.Second {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.MinIdleConns != 0 {
		t.Fatalf("expected negative min idle clamped to 0, got %d", c.MinIdleConns)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error without addr")
	}
}

func TestOpenRedis_Pings(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb, err := OpenRedis(context.Background(), RedisConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rdb.Close()

	if err := rdb.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
}

func TestOpenRedis_FailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := OpenRedis(context.Background(), RedisConfig{Addr: addr, DialTimeout: 100 * time.Millisecond, PingTimeout: 200 * time.Millisecond}); err == nil {
		t.Fatalf("expected ping failure")
	}
}
