package extract

import (
	"testing"

	tu "github.com/desertthunder/ytstream/internal/testing"
	"github.com/desertthunder/ytstream/internal/tree"
)

func TestSearchResults(t *testing.T) {
	resp := SearchResults(tree.MustParse(tu.SearchJSON))

	t.Run("dedup and title filter", func(t *testing.T) {
		var ids []string
		for _, r := range resp.Results {
			ids = append(ids, r.ID)
		}
		want := []string{"fJ9rUzIMcZQ", "remix00001", "nolength01"}
		if len(ids) != len(want) {
			t.Fatalf("expected %v, got %v", want, ids)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("result %d: expected %s, got %s", i, want[i], ids[i])
			}
		}
	})

	t.Run("first occurrence wins", func(t *testing.T) {
		if got := resp.Results[0].Title; got != "Queen - Bohemian Rhapsody (Official Video)" {
			t.Errorf("unexpected title %q", got)
		}
	})

	t.Run("long byline preferred", func(t *testing.T) {
		if got := resp.Results[0].Author; got != "Queen Official" {
			t.Errorf("expected Queen Official, got %q", got)
		}
		if got := resp.Results[1].Author; got != "DJ Someone" {
			t.Errorf("expected byline fallback, got %q", got)
		}
	})

	t.Run("last thumbnail", func(t *testing.T) {
		if got := resp.Results[0].Thumbnail.URL; got != "https://i.ytimg.com/vi/fJ9rUzIMcZQ/hqdefault.jpg" {
			t.Errorf("unexpected thumbnail %q", got)
		}
		if got := resp.Results[1].Thumbnail.URL; got != "" {
			t.Errorf("expected empty thumbnail, got %q", got)
		}
	})

	t.Run("duration variants", func(t *testing.T) {
		want := []string{"5:59", "4:10", "-"}
		for i, w := range want {
			if got := resp.Results[i].Duration; got != w {
				t.Errorf("result %d: expected %q, got %q", i, w, got)
			}
		}
	})

	t.Run("continuation command", func(t *testing.T) {
		if resp.Continuation != "EpcDEgVxdWVlbg" {
			t.Errorf("unexpected continuation %q", resp.Continuation)
		}
	})

	t.Run("next continuation fallback", func(t *testing.T) {
		page := SearchResults(tree.MustParse(tu.SearchPageTwoJSON))
		if page.Continuation != "page3token" {
			t.Errorf("expected page3token, got %q", page.Continuation)
		}
		if len(page.Results) != 1 || page.Results[0].ID != "page2video1" {
			t.Errorf("unexpected results %+v", page.Results)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		page := SearchResults(tree.MustParse(`{}`))
		if page.Results == nil || len(page.Results) != 0 || page.Continuation != "" {
			t.Errorf("expected an empty page, got %+v", page)
		}
	})

	t.Run("ids are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for _, r := range resp.Results {
			if seen[r.ID] {
				t.Errorf("duplicate id %s", r.ID)
			}
			seen[r.ID] = true
		}
	})
}

func TestMediaAsset(t *testing.T) {
	t.Run("playable", func(t *testing.T) {
		asset := MediaAsset(tree.MustParse(tu.PlayerJSON("fJ9rUzIMcZQ", 1700000000)))

		if asset.ID != "fJ9rUzIMcZQ" || asset.Title != "Bohemian Rhapsody" || asset.Author != "Queen Official" {
			t.Errorf("unexpected details %+v", asset)
		}
		if asset.DurationMs != 359000 {
			t.Errorf("expected 359000ms, got %d", asset.DurationMs)
		}
		if asset.DurationText != "5:59" {
			t.Errorf("expected 5:59, got %s", asset.DurationText)
		}
		if asset.Thumbnail.URL != "https://i.ytimg.com/vi/fJ9rUzIMcZQ/maxresdefault.jpg" {
			t.Errorf("unexpected thumbnail %s", asset.Thumbnail.URL)
		}
		want := "https://rr1.googlevideo.com/videoplayback?id=fJ9rUzIMcZQ&itag=251&expire=1700000000"
		if asset.StreamURL != want {
			t.Errorf("expected %s, got %s", want, asset.StreamURL)
		}
		if asset.ExpiresAtMs != 1700000000000 {
			t.Errorf("expected expiry in ms, got %d", asset.ExpiresAtMs)
		}
		if !asset.Playable() {
			t.Error("expected a playable asset")
		}
	})

	t.Run("no streaming data", func(t *testing.T) {
		asset := MediaAsset(tree.MustParse(tu.UnplayableJSON))
		if asset.Playable() || asset.ExpiresAtMs != 0 {
			t.Errorf("expected no stream, got %+v", asset)
		}
		if asset.DurationText != "1:02:05" {
			t.Errorf("expected 1:02:05, got %s", asset.DurationText)
		}
	})

	t.Run("empty document", func(t *testing.T) {
		asset := MediaAsset(tree.MustParse(`{}`))
		if asset.ID != "" || asset.DurationMs != 0 || asset.DurationText != "0:00" || asset.StreamURL != "" {
			t.Errorf("expected zero asset, got %+v", asset)
		}
	})
}

func TestFormats(t *testing.T) {
	formats := Formats(tree.MustParse(tu.PlayerJSON("x", 1)))
	if len(formats) != 4 {
		t.Fatalf("expected 4 formats, got %d", len(formats))
	}
	if formats[0].MimeType[:5] != "video" {
		t.Errorf("expected muxed formats first, got %s", formats[0].MimeType)
	}
	if formats[2].Bitrate != 160000 {
		t.Errorf("expected string bitrate to parse, got %d", formats[2].Bitrate)
	}
	if formats[3].URL != "" {
		t.Errorf("expected ciphered format to have no url, got %s", formats[3].URL)
	}
}
