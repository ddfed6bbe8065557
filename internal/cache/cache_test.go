package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestCache creates a Cache backed by a miniredis server.
func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := Config{
		Addr:       mr.Addr(),
		Prefix:     "halcyon:",
		DefaultTTL: time.Hour,
	}
	return NewWithClient(cfg, client), mr
}

func TestCacheGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	if err := c.Set(ctx, "score:u1:2026-08-25", `{"total":82}`, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, err := c.Get(ctx, "score:u1:2026-08-25")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if val != `{"total":82}` {
		t.Errorf("Get = %q, want %q", val, `{"total":82}`)
	}

	if err := c.Delete(ctx, "score:u1:2026-08-25"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := c.Get(ctx, "score:u1:2026-08-25"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after delete: err = %v, want ErrMiss", err)
	}
}

func TestCacheMissIsErrMiss(t *testing.T) {
	c, _ := newTestCache(t)

	if _, err := c.Get(context.Background(), "never-set"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get of absent key: err = %v, want ErrMiss", err)
	}
}

func TestCacheKeyPrefix(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	if err := c.Set(ctx, "hello", "world", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	found := false
	for _, k := range mr.Keys() {
		if k == "halcyon:hello" {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected key %q in redis, got keys: %v", "halcyon:hello", mr.Keys())
	}
}

func TestCacheDefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	if err := c.Set(ctx, "ttl-key", "v", 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := mr.TTL("halcyon:ttl-key"); ttl != time.Hour {
		t.Errorf("TTL = %v, want %v", ttl, time.Hour)
	}

	if err := c.Set(ctx, "short-key", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if ttl := mr.TTL("halcyon:short-key"); ttl != time.Minute {
		t.Errorf("TTL = %v, want %v", ttl, time.Minute)
	}
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	if err := c.Set(ctx, "expiring", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := c.Get(ctx, "expiring"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after expiry: err = %v, want ErrMiss", err)
	}
}
