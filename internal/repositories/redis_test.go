package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/ytstream/internal/shared"
)

func setupRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisAssetStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return mr, NewRedisAssetStore(rdb, RedisAssetStoreOpts{TTL: ttl})
}

func TestRedisAssetStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert and Get", func(t *testing.T) {
		mr, store := setupRedis(t, time.Hour)
		in := testAsset("a", 1_700_000_000_000)

		if err := store.Upsert(ctx, in); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
		if !mr.Exists(DefaultRedisPrefix + "a") {
			t.Error("expected key under the default prefix")
		}
		if ttl := mr.TTL(DefaultRedisPrefix + "a"); ttl != time.Hour {
			t.Errorf("expected 1h ttl, got %v", ttl)
		}

		got, err := store.Get(ctx, "a")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Asset != in.Asset {
			t.Errorf("expected %+v, got %+v", in.Asset, got.Asset)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		_, store := setupRedis(t, 0)
		if _, err := store.Get(ctx, "nope"); !errors.Is(err, shared.ErrAssetNotFound) {
			t.Errorf("expected ErrAssetNotFound, got %v", err)
		}
	})

	t.Run("expired key is gone", func(t *testing.T) {
		mr, store := setupRedis(t, time.Minute)
		store.Upsert(ctx, testAsset("a", 1))
		mr.FastForward(2 * time.Minute)

		if _, err := store.Get(ctx, "a"); !errors.Is(err, shared.ErrAssetNotFound) {
			t.Errorf("expected ErrAssetNotFound, got %v", err)
		}
	})

	t.Run("UpdateURL keeps ttl and metadata", func(t *testing.T) {
		mr, store := setupRedis(t, time.Hour)
		store.Upsert(ctx, testAsset("a", 1))
		mr.FastForward(10 * time.Minute)

		if err := store.UpdateURL(ctx, "a", "https://refreshed", 42); err != nil {
			t.Fatalf("UpdateURL() error = %v", err)
		}
		got, _ := store.Get(ctx, "a")
		if got.Asset.StreamURL != "https://refreshed" || got.Asset.ExpiresAtMs != 42 || got.Asset.Title != "Title a" {
			t.Errorf("unexpected asset %+v", got.Asset)
		}
		if ttl := mr.TTL(DefaultRedisPrefix + "a"); ttl != 50*time.Minute {
			t.Errorf("expected remaining ttl of 50m, got %v", ttl)
		}

		if err := store.UpdateURL(ctx, "ghost", "u", 1); !errors.Is(err, shared.ErrAssetNotFound) {
			t.Errorf("expected ErrAssetNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		_, store := setupRedis(t, 0)
		store.Upsert(ctx, testAsset("a", 1))

		if err := store.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := store.Delete(ctx, "a"); !errors.Is(err, shared.ErrAssetNotFound) {
			t.Errorf("expected ErrAssetNotFound, got %v", err)
		}
	})

	t.Run("List and Clear stay inside the prefix", func(t *testing.T) {
		mr, store := setupRedis(t, 0)
		mr.Set("other:key", "untouched")
		store.Upsert(ctx, testAsset("late", 300))
		store.Upsert(ctx, testAsset("early", 100))

		assets, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(assets) != 2 || assets[0].ID() != "early" || assets[1].ID() != "late" {
			t.Errorf("unexpected list %+v", assets)
		}

		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if assets, _ := store.List(ctx); len(assets) != 0 {
			t.Errorf("expected empty store, got %d", len(assets))
		}
		if !mr.Exists("other:key") {
			t.Error("Clear removed a key outside the prefix")
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr, store := setupRedis(t, 0)
		mr.Close()

		if _, err := store.Get(ctx, "a"); err == nil || errors.Is(err, shared.ErrAssetNotFound) {
			t.Errorf("expected a connection error, got %v", err)
		}
	})
}

func TestNewAssetStoreRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	cfg := shared.DefaultConfig()
	cfg.Cache.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()

	stores, err := NewAssetStore(context.Background(), cfg, shared.NopLogger())
	if err != nil {
		t.Fatalf("NewAssetStore() error = %v", err)
	}
	defer stores.Close()

	if _, ok := stores.Assets.(*RedisAssetStore); !ok {
		t.Errorf("expected *RedisAssetStore, got %T", stores.Assets)
	}

	mr.Close()
	cfg.Redis.Addr = "127.0.0.1:1"
	if _, err := NewAssetStore(context.Background(), cfg, shared.NopLogger()); !errors.Is(err, shared.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}
