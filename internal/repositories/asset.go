package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// AssetRepository implements models.Repository[*models.CachedAsset] on SQLite.
//
// Rows are keyed by video id and overwritten on every resolve; a refresh only
// touches the stream URL and its expiry.
type AssetRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewAssetRepository creates a new AssetRepository with the given database connection
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db, now: time.Now}
}

const assetColumns = `id, title, author, thumbnail_url, duration_ms, duration_text, stream_url, expires_at_ms, created_at, updated_at`

// Upsert inserts the asset or replaces the stored copy, keeping its creation time.
func (r *AssetRepository) Upsert(ctx context.Context, c *models.CachedAsset) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := r.now()
	if c.Created.IsZero() {
		c.Created = now
	}
	c.Updated = now

	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			thumbnail_url = excluded.thumbnail_url,
			duration_ms = excluded.duration_ms,
			duration_text = excluded.duration_text,
			stream_url = excluded.stream_url,
			expires_at_ms = excluded.expires_at_ms,
			updated_at = excluded.updated_at
	`

	a := c.Asset
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.Title,
		a.Author,
		a.Thumbnail.URL,
		a.DurationMs,
		a.DurationText,
		a.StreamURL,
		a.ExpiresAtMs,
		c.Created,
		c.Updated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}
	return nil
}

// Get retrieves an asset by video id.
func (r *AssetRepository) Get(ctx context.Context, id string) (*models.CachedAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = ?`
	return scanAsset(r.db.QueryRowContext(ctx, query, id))
}

// UpdateURL stores a refreshed stream URL.
func (r *AssetRepository) UpdateURL(ctx context.Context, id, streamURL string, expiresAtMs int64) error {
	query := `
		UPDATE assets
		SET stream_url = ?, expires_at_ms = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, streamURL, expiresAtMs, r.now(), id)
	if err != nil {
		return fmt.Errorf("failed to update asset url: %w", err)
	}
	return checkAffected(result, shared.ErrAssetNotFound, id)
}

// Delete removes an asset by video id.
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return checkAffected(result, shared.ErrAssetNotFound, id)
}

// List returns every stored asset, soonest expiry first.
func (r *AssetRepository) List(ctx context.Context) ([]*models.CachedAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY expires_at_ms ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []*models.CachedAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return assets, nil
}

// Clear deletes every stored asset.
func (r *AssetRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assets`); err != nil {
		return fmt.Errorf("failed to clear assets: %w", err)
	}
	return nil
}

// PurgeExpired deletes assets whose URL expired before now and returns how
// many were removed. Assets with unknown expiry are kept.
func (r *AssetRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM assets WHERE expires_at_ms > 0 AND expires_at_ms <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge assets: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*models.CachedAsset, error) {
	var (
		c     models.CachedAsset
		thumb string
	)
	err := row.Scan(
		&c.Asset.ID,
		&c.Asset.Title,
		&c.Asset.Author,
		&thumb,
		&c.Asset.DurationMs,
		&c.Asset.DurationText,
		&c.Asset.StreamURL,
		&c.Asset.ExpiresAtMs,
		&c.Created,
		&c.Updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	c.Asset.Thumbnail = models.Thumbnail{URL: thumb}
	return &c, nil
}
