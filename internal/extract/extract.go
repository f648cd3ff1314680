// package extract turns raw provider responses into search pages and media
// assets. Malformed or missing fields degrade to empty values, never errors.
package extract

import (
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/desertthunder/ytstream/internal/tree"
)

const unknownDuration = "-"

// SearchResults collects every item carrying a videoId, first occurrence wins,
// and the continuation token for the next page.
func SearchResults(root tree.Node) models.SearchResponse {
	resp := models.SearchResponse{Results: []models.SearchResult{}}
	seen := make(map[string]struct{})

	for _, item := range root.FindParents("videoId") {
		id := item.Get("videoId").StringOr("")
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}

		title := item.Get("title").Runs()
		if title == "" {
			continue
		}

		byline := item.Get("bylineText")
		if item.Has("longBylineText") {
			byline = item.Get("longBylineText")
		}

		resp.Results = append(resp.Results, models.SearchResult{
			ID:        id,
			Title:     title,
			Author:    byline.Runs(),
			Thumbnail: models.Thumbnail{URL: lastThumbnail(item)},
			Duration:  lengthText(item.Get("lengthText")),
		})
		seen[id] = struct{}{}
	}

	resp.Continuation = Continuation(root)
	return resp
}

// Continuation returns the first continuationCommand token, falling back to
// the first nextContinuationData continuation.
func Continuation(root tree.Node) string {
	if cmd := root.FindFirst("continuationCommand"); !cmd.Missing() {
		return cmd.Get("token").StringOr("")
	}
	if next := root.FindFirst("nextContinuationData"); !next.Missing() {
		return next.Get("continuation").StringOr("")
	}
	return ""
}

func lengthText(n tree.Node) string {
	if s, ok := n.Get("simpleText").String(); ok {
		return s
	}
	if n.Has("runs") {
		return n.Runs()
	}
	return unknownDuration
}

func lastThumbnail(n tree.Node) string {
	return n.Path("thumbnail", "thumbnails").Last().Get("url").StringOr("")
}

// MediaAsset builds an asset from a player response. An asset without any
// usable format has an empty StreamURL.
func MediaAsset(root tree.Node) models.MediaAsset {
	details := root.Get("videoDetails")
	seconds := details.Get("lengthSeconds").IntOr(0)
	if seconds < 0 {
		seconds = 0
	}

	sel := SelectBest(Formats(root))

	return models.MediaAsset{
		ID:           details.Get("videoId").StringOr(""),
		Title:        details.Get("title").StringOr(""),
		Author:       details.Get("author").StringOr(""),
		Thumbnail:    models.Thumbnail{URL: lastThumbnail(details)},
		DurationMs:   seconds * 1000,
		DurationText: FormatDuration(seconds),
		StreamURL:    sel.URL,
		ExpiresAtMs:  sel.ExpiresAtMs,
	}
}

// Formats gathers streamingData.formats followed by streamingData.adaptiveFormats.
func Formats(root tree.Node) []models.Format {
	var out []models.Format
	for _, key := range []string{"formats", "adaptiveFormats"} {
		entries, _ := root.Path("streamingData", key).Array()
		for _, f := range entries {
			out = append(out, models.Format{
				MimeType: f.Get("mimeType").StringOr(""),
				Bitrate:  f.Get("bitrate").IntOr(0),
				URL:      f.Get("url").StringOr(""),
			})
		}
	}
	return out
}

// FormatDuration renders seconds as M:SS, or H:MM:SS from one hour up.
func FormatDuration(seconds int64) string {
	return shared.FormatDuration(seconds)
}
