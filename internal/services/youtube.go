// YouTube catalog [Service] implementation
//
// Composes the InnerTube client with the response extractor, the asset
// selector and the match resolver.
package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytstream/internal/extract"
	"github.com/desertthunder/ytstream/internal/matcher"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/desertthunder/ytstream/internal/tree"
)

// maxThumbnailBytes caps inline thumbnail downloads.
const maxThumbnailBytes = 2 << 20

// Catalog is the raw provider surface [YouTubeService] depends on.
type Catalog interface {
	Search(ctx context.Context, query, continuation string) (tree.Node, error)
	Player(ctx context.Context, id string) (tree.Node, error)
}

// YouTubeServiceOpts configures [NewYouTubeService].
type YouTubeServiceOpts struct {
	// InlineThumbnails downloads the item thumbnail on Get and stores it as a data URI.
	InlineThumbnails bool
	HTTPClient       *http.Client
	Logger           *log.Logger
}

// YouTubeService implements the Service interface on top of a [Catalog].
type YouTubeService struct {
	catalog    Catalog
	inline     bool
	httpClient *http.Client
	logger     *log.Logger
}

// NewYouTubeService creates a new YouTube service instance.
func NewYouTubeService(catalog Catalog, opts YouTubeServiceOpts) *YouTubeService {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	return &YouTubeService{
		catalog:    catalog,
		inline:     opts.InlineThumbnails,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Search returns one page of video results.
func (y *YouTubeService) Search(ctx context.Context, query, continuation string) (*models.SearchResponse, error) {
	if strings.TrimSpace(query) == "" && continuation == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	root, err := y.catalog.Search(ctx, query, continuation)
	if err != nil {
		return nil, err
	}

	resp := extract.SearchResults(root)
	y.logger.Debug("search", "query", query, "results", len(resp.Results), "more", resp.HasMore())
	return &resp, nil
}

// Get resolves id into an asset with the best stream URL.
func (y *YouTubeService) Get(ctx context.Context, id string) (*models.MediaAsset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id", shared.ErrInvalidInput)
	}

	root, err := y.catalog.Player(ctx, id)
	if err != nil {
		return nil, err
	}

	asset := extract.MediaAsset(root)
	if asset.ID == "" {
		asset.ID = id
	}
	if !asset.Playable() {
		y.logger.Warn("no playable stream", "id", id, "status", root.Path("playabilityStatus", "status").StringOr("-"))
	}

	if y.inline && asset.Thumbnail.URL != "" {
		data, err := y.inlineThumbnail(ctx, asset.Thumbnail.URL)
		if err != nil {
			y.logger.Warn("failed to inline thumbnail", "id", id, "error", err)
		} else {
			asset.Thumbnail.InlineData = data
		}
	}
	return &asset, nil
}

// GetByQuery searches for the joined query text and resolves the best match.
func (y *YouTubeService) GetByQuery(ctx context.Context, q models.Query) (*models.MediaAsset, error) {
	if q.Text() == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	page, err := y.Search(ctx, q.Text(), "")
	if err != nil {
		return nil, err
	}

	best, ok := matcher.BestMatch(q, page.Results)
	if !ok {
		return nil, fmt.Errorf("%w: %q", shared.ErrNoMatchFound, q.Text())
	}
	y.logger.Debug("matched", "query", q.Text(), "id", best.ID, "title", best.Title)
	return y.Get(ctx, best.ID)
}

// inlineThumbnail downloads url and encodes it as a data URI. The mime type
// comes from the file extension, defaulting to jpeg.
func (y *YouTubeService) inlineThumbnail(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := y.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		return "", err
	}
	return "data:" + imageMime(url) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func imageMime(url string) string {
	path := strings.ToLower(url)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch {
	case strings.HasSuffix(path, ".png"):
		return "image/png"
	case strings.HasSuffix(path, ".webp"):
		return "image/webp"
	case strings.HasSuffix(path, ".gif"):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
