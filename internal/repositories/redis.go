package repositories

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// DefaultRedisPrefix namespaces asset keys.
const DefaultRedisPrefix = "ytstream:asset:"

// RedisAssetStoreOpts configures [NewRedisAssetStore].
type RedisAssetStoreOpts struct {
	Prefix string
	// TTL bounds how long a key lives. Zero keeps keys without expiry.
	TTL time.Duration
	Now func() time.Time
}

// RedisAssetStore keeps cached assets as JSON values under a key prefix.
type RedisAssetStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisAssetStore(rdb *redis.Client, opts RedisAssetStoreOpts) *RedisAssetStore {
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisPrefix
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &RedisAssetStore{rdb: rdb, prefix: opts.Prefix, ttl: opts.TTL, now: opts.Now}
}

func (s *RedisAssetStore) key(id string) string { return s.prefix + id }

func (s *RedisAssetStore) Get(ctx context.Context, id string) (*models.CachedAsset, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", id, err)
	}

	var c models.CachedAsset
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode cached asset %s: %w", id, err)
	}
	return &c, nil
}

func (s *RedisAssetStore) Upsert(ctx context.Context, c *models.CachedAsset) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := s.now()
	if existing, err := s.Get(ctx, c.ID()); err == nil {
		c.Created = existing.Created
	} else if c.Created.IsZero() {
		c.Created = now
	}
	c.Updated = now

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cached asset: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(c.ID()), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.ID(), err)
	}
	return nil
}

// UpdateURL rewrites the stored URL. The key keeps its remaining TTL.
func (s *RedisAssetStore) UpdateURL(ctx context.Context, id, streamURL string, expiresAtMs int64) error {
	c, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	c.Asset.StreamURL = streamURL
	c.Asset.ExpiresAtMs = expiresAtMs
	c.Updated = s.now()

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cached asset: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(id), raw, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", id, err)
	}
	return nil
}

func (s *RedisAssetStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrAssetNotFound, id)
	}
	return nil
}

func (s *RedisAssetStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// List returns every stored asset, soonest expiry first.
func (s *RedisAssetStore) List(ctx context.Context) ([]*models.CachedAsset, error) {
	keys, err := s.keys(ctx)
	if err != nil || len(keys) == 0 {
		return nil, err
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	assets := make([]*models.CachedAsset, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // expired between SCAN and MGET
		}
		var c models.CachedAsset
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("decode cached asset: %w", err)
		}
		assets = append(assets, &c)
	}

	slices.SortFunc(assets, func(a, b *models.CachedAsset) int {
		return cmp.Or(
			cmp.Compare(a.Asset.ExpiresAtMs, b.Asset.ExpiresAtMs),
			cmp.Compare(a.Asset.ID, b.Asset.ID),
		)
	})
	return assets, nil
}

func (s *RedisAssetStore) Clear(ctx context.Context) error {
	keys, err := s.keys(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
