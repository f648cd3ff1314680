package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytstream/internal/formatter"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// expiredPurger is implemented by stores that cannot rely on key TTLs.
type expiredPurger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

func (r *Runner) assetCache(ctx context.Context) (services.AssetStore, error) {
	stores, err := r.assetStores(ctx)
	if err != nil {
		return nil, err
	}
	if stores.Assets == nil {
		return nil, fmt.Errorf("%w: cache backend is %q", shared.ErrServiceUnavailable, r.config.Cache.Backend)
	}
	return stores.Assets, nil
}

// CacheList prints every cached asset, soonest expiry first.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.assetCache(ctx)
	if err != nil {
		return err
	}
	cached, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(cached, cmd.Bool("pretty"))
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if format == formatter.CSV {
		assets := make([]models.MediaAsset, len(cached))
		for i, c := range cached {
			assets[i] = c.Asset
		}
		data, err := formatter.AssetsToCSV(assets)
		if err != nil {
			return err
		}
		return formatter.WriteFile(r.output, cmd.String("output"), data)
	}

	if len(cached) == 0 {
		return r.writePlain("cache is empty\n")
	}
	now := r.now()
	for _, c := range cached {
		r.writePlain("%-12s %-40.40s %s\n", c.Asset.ID, c.Asset.Title, formatter.Expiry(c.Asset.ExpiresAtMs, now))
	}
	return r.writePlain("\n%d cached\n", len(cached))
}

// CacheClear deletes every cached asset.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	store, err := r.assetCache(ctx)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	r.logger.Info("cache cleared", "backend", r.config.Cache.Backend)
	return r.writePlain("✓ Cache cleared\n")
}

// CachePurge deletes expired entries. Stores that expire keys on their own
// have nothing to purge.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	store, err := r.assetCache(ctx)
	if err != nil {
		return err
	}
	purger, ok := store.(expiredPurger)
	if !ok {
		return r.writePlain("%s backend expires entries itself; nothing to purge\n", r.config.Cache.Backend)
	}
	n, err := purger.PurgeExpired(ctx, r.now())
	if err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	r.logger.Info("purged expired assets", "count", n)
	return r.writePlain("✓ Purged %d expired assets\n", n)
}
