// package repositories provides persistence layer implementations for the asset cache.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// Stores holds the persistence handles chosen by configuration. Close
// releases whatever was opened.
type Stores struct {
	Assets  services.AssetStore
	Matches services.MatchStore
	db      *sql.DB
	rdb     *redis.Client
}

func (s *Stores) Close() error {
	var firstErr error
	if s.rdb != nil {
		firstErr = s.rdb.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewAssetStore opens the cache backend named by cfg.Cache.Backend. The
// "none" backend returns empty Stores. Matches are always kept in SQLite
// when a database is opened.
func NewAssetStore(ctx context.Context, cfg *shared.Config, logger *log.Logger) (*Stores, error) {
	switch cfg.Cache.Backend {
	case "", "sqlite":
		db, err := shared.OpenDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		logger.Debug("asset cache on sqlite", "path", cfg.Database.Path)
		return &Stores{
			Assets:  NewAssetRepository(db),
			Matches: NewMatchRepository(db),
			db:      db,
		}, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("%w: redis %s: %v", shared.ErrServiceUnavailable, cfg.Redis.Addr, err)
		}
		logger.Debug("asset cache on redis", "addr", cfg.Redis.Addr)
		return &Stores{
			Assets: NewRedisAssetStore(rdb, RedisAssetStoreOpts{
				Prefix: cfg.Redis.KeyPrefix,
				TTL:    cfg.Redis.TTL(),
			}),
			rdb: rdb,
		}, nil

	case "none":
		return &Stores{}, nil

	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", shared.ErrInvalidConfig, cfg.Cache.Backend)
	}
}

var (
	_ services.AssetStore = (*AssetRepository)(nil)
	_ services.AssetStore = (*RedisAssetStore)(nil)
	_ services.MatchStore = (*MatchRepository)(nil)
)

// checkAffected maps a zero-row result to notFound.
func checkAffected(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}
