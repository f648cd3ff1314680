package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytstream/internal/matcher"
	"github.com/desertthunder/ytstream/internal/metrics"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// CachedService serves Get from an [AssetStore] while the stored URL is
// outside the refresh margin, and falls through to the wrapped service
// otherwise.
type CachedService struct {
	next    Service
	store   AssetStore
	matches MatchStore
	margin  time.Duration
	now     func() time.Time
	logger  *log.Logger
}

// CachedServiceOpts configures [NewCachedService].
type CachedServiceOpts struct {
	// Matches, when set, skips the search for queries resolved before.
	Matches MatchStore
	Margin  time.Duration
	Now     func() time.Time
	Logger  *log.Logger
}

// NewCachedService wraps next with store.
func NewCachedService(next Service, store AssetStore, opts CachedServiceOpts) *CachedService {
	if opts.Margin <= 0 {
		opts.Margin = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	return &CachedService{
		next:    next,
		store:   store,
		matches: opts.Matches,
		margin:  opts.Margin,
		now:     opts.Now,
		logger:  opts.Logger,
	}
}

func (c *CachedService) Name() string { return c.next.Name() + " (cached)" }

func (c *CachedService) Search(ctx context.Context, query, continuation string) (*models.SearchResponse, error) {
	return c.next.Search(ctx, query, continuation)
}

// Get returns the stored asset when fresh. Store failures are logged and
// never fail the call.
func (c *CachedService) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	cached, err := c.store.Get(ctx, id)
	switch {
	case err == nil && cached.Fresh(c.now(), c.margin):
		metrics.RecordCacheLookup("hit")
		asset := cached.Asset
		return &asset, nil
	case err == nil:
		metrics.RecordCacheLookup("stale")
	case errors.Is(err, shared.ErrAssetNotFound):
		metrics.RecordCacheLookup("miss")
	default:
		metrics.RecordCacheLookup("miss")
		c.logger.Warn("asset cache read failed", "id", id, "error", err)
	}

	asset, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := c.now()
	if err := c.store.Upsert(ctx, &models.CachedAsset{Asset: *asset, Created: now, Updated: now}); err != nil {
		c.logger.Warn("asset cache write failed", "id", id, "error", err)
	}
	return asset, nil
}

// GetByQuery searches through the wrapped service and resolves the match
// with the cached Get.
func (c *CachedService) GetByQuery(ctx context.Context, q models.Query) (*models.MediaAsset, error) {
	if q.Text() == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	key := MatchKey(q)
	if c.matches != nil {
		if id, err := c.matches.GetMatch(ctx, key); err == nil && id != "" {
			metrics.RecordCacheLookup("match_hit")
			return c.Get(ctx, id)
		}
	}

	page, err := c.next.Search(ctx, q.Text(), "")
	if err != nil {
		return nil, err
	}

	best, ok := matcher.BestMatch(q, page.Results)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrNoMatchFound, q.Text())
	}

	if c.matches != nil {
		if err := c.matches.PutMatch(ctx, key, best.ID, matcher.Score(q, best)); err != nil {
			c.logger.Warn("failed to remember match", "query", q.Text(), "error", err)
		}
	}
	return c.Get(ctx, best.ID)
}

// MatchKey is the normalized form of q used to remember resolutions.
func MatchKey(q models.Query) string {
	return strings.Join(matcher.Normalize(q.Primary).Sorted(), " ") + "|" +
		strings.Join(matcher.Normalize(q.Secondary).Sorted(), " ")
}

// Refreshed records a tracker refresh so the next Get sees the new URL.
func (c *CachedService) Refreshed(ctx context.Context, ev models.AssetRefreshed) {
	if err := c.store.UpdateURL(ctx, ev.ItemID, ev.URL, ev.ExpiresAtMs); err != nil && !errors.Is(err, shared.ErrAssetNotFound) {
		c.logger.Warn("failed to record refreshed url", "id", ev.ItemID, "error", err)
	}
}
