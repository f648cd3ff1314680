// package services defines interface Service for resolving catalog items
// into playable assets
package services

import (
	"context"

	"github.com/desertthunder/ytstream/internal/models"
)

// Service resolves catalog searches and items into playable media assets.
type Service interface {
	// Search returns one page of results. An empty continuation asks for the
	// first page.
	Search(ctx context.Context, query, continuation string) (*models.SearchResponse, error)

	// Get resolves an item by id. An asset with an empty StreamURL means the
	// item exists but nothing playable was offered.
	Get(ctx context.Context, id string) (*models.MediaAsset, error)

	// GetByQuery searches for q, picks the best match and resolves it.
	// Returns [shared.ErrNoMatchFound] when the search is empty.
	GetByQuery(ctx context.Context, q models.Query) (*models.MediaAsset, error)

	// Name returns the name of the service
	Name() string
}

// Resolver is the part of [Service] needed to refresh a stream URL.
type Resolver interface {
	Get(ctx context.Context, id string) (*models.MediaAsset, error)
}

// AssetStore persists resolved assets between calls and runs.
type AssetStore interface {
	Get(ctx context.Context, id string) (*models.CachedAsset, error)
	Upsert(ctx context.Context, asset *models.CachedAsset) error
	UpdateURL(ctx context.Context, id, streamURL string, expiresAtMs int64) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.CachedAsset, error)
	Clear(ctx context.Context) error
}

// MatchStore remembers which item a free-text query resolved to.
type MatchStore interface {
	GetMatch(ctx context.Context, key string) (string, error)
	PutMatch(ctx context.Context, key, id string, score float64) error
}

var (
	_ Service  = (*YouTubeService)(nil)
	_ Service  = (*CachedService)(nil)
	_ Catalog  = (*InnerTubeClient)(nil)
	_ Resolver = (*CachedService)(nil)
)
