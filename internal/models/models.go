// package models defines the data model for the ytstream resolver
package models

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persisted models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Get(ctx context.Context, id string) (T, error)
	Upsert(ctx context.Context, model T) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]T, error)
}

// Query is a free-text request: Primary is usually a title and Secondary an
// artist or uploader name.
type Query struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Text joins the query parts for a provider search.
func (q Query) Text() string {
	return strings.TrimSpace(q.Primary + " " + q.Secondary)
}

// Thumbnail is an image URL with an optional data URI copy.
type Thumbnail struct {
	URL        string `json:"url"`
	InlineData string `json:"inlineData,omitempty"`
}

// Src returns the inline copy when present, the remote URL otherwise.
func (t Thumbnail) Src() string {
	if t.InlineData != "" {
		return t.InlineData
	}
	return t.URL
}

// SearchResult is one candidate item from a search page.
type SearchResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Thumbnail Thumbnail `json:"thumbnail"`
	Duration  string    `json:"duration"`
}

// SearchResponse is one page of results plus the token for the next page.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	Continuation string         `json:"continuation"`
}

// HasMore reports whether another page can be requested.
func (r SearchResponse) HasMore() bool {
	return r.Continuation != ""
}

// Format is one stream format entry from a player response.
type Format struct {
	MimeType string `json:"mimeType"`
	Bitrate  int64  `json:"bitrate"`
	URL      string `json:"url"`
}

// IsAudio reports whether the format carries audio only.
func (f Format) IsAudio() bool {
	return strings.HasPrefix(f.MimeType, "audio/")
}

// Selection is the chosen stream URL and its expiry in epoch milliseconds
// (0 when unknown).
type Selection struct {
	URL         string `json:"url"`
	ExpiresAtMs int64  `json:"expiresAtMs"`
}

// MediaAsset is the resolved, playable form of an item.
type MediaAsset struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Thumbnail    Thumbnail `json:"thumbnail"`
	DurationMs   int64     `json:"durationMs"`
	DurationText string    `json:"durationText"`
	StreamURL    string    `json:"streamUrl"`
	ExpiresAtMs  int64     `json:"expiresAtMs"`
}

// Playable reports whether a stream URL was selected.
func (a MediaAsset) Playable() bool {
	return a.StreamURL != ""
}

// ExpiresAt converts ExpiresAtMs to a time. The zero time means unknown.
func (a MediaAsset) ExpiresAt() time.Time {
	if a.ExpiresAtMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(a.ExpiresAtMs)
}

// AssetRefreshed is emitted when a bound item receives a new stream URL.
type AssetRefreshed struct {
	EventID     string `json:"eventId"`
	ItemID      string `json:"itemId"`
	Index       int    `json:"index"`
	URL         string `json:"url"`
	ExpiresAtMs int64  `json:"expiresAtMs"`
}

// CachedAsset is a [MediaAsset] persisted by an asset store.
type CachedAsset struct {
	Asset   MediaAsset `json:"asset"`
	Created time.Time  `json:"createdAt"`
	Updated time.Time  `json:"updatedAt"`
}

func (c *CachedAsset) ID() string           { return c.Asset.ID }
func (c *CachedAsset) CreatedAt() time.Time { return c.Created }
func (c *CachedAsset) UpdatedAt() time.Time { return c.Updated }

// Validate requires an id; an asset without a stream URL is still cacheable.
func (c *CachedAsset) Validate() error {
	if strings.TrimSpace(c.Asset.ID) == "" {
		return fmt.Errorf("asset id is required")
	}
	return nil
}

// Fresh reports whether the cached URL is still usable at now with margin to spare.
// Assets without a known expiry are never fresh.
func (c *CachedAsset) Fresh(now time.Time, margin time.Duration) bool {
	if c.Asset.StreamURL == "" || c.Asset.ExpiresAtMs == 0 {
		return false
	}
	return now.Add(margin).UnixMilli() < c.Asset.ExpiresAtMs
}
