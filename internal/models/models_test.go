package models

import (
	"testing"
	"time"
)

func TestQueryText(t *testing.T) {
	tc := []struct {
		q    Query
		want string
	}{
		{Query{"Song", "Artist"}, "Song Artist"},
		{Query{"Song", ""}, "Song"},
		{Query{"", "Artist"}, "Artist"},
	}
	for _, tt := range tc {
		if got := tt.q.Text(); got != tt.want {
			t.Errorf("%+v.Text() = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestCachedAssetFresh(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	margin := 10 * time.Second

	tc := []struct {
		name  string
		asset MediaAsset
		want  bool
	}{
		{"well ahead", MediaAsset{ID: "a", StreamURL: "u", ExpiresAtMs: 1_000_000 + 15_000}, true},
		{"inside margin", MediaAsset{ID: "a", StreamURL: "u", ExpiresAtMs: 1_000_000 + 5_000}, false},
		{"exactly at margin", MediaAsset{ID: "a", StreamURL: "u", ExpiresAtMs: 1_000_000 + 10_000}, false},
		{"unknown expiry", MediaAsset{ID: "a", StreamURL: "u"}, false},
		{"no stream", MediaAsset{ID: "a", ExpiresAtMs: 9_000_000}, false},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			c := &CachedAsset{Asset: tt.asset}
			if got := c.Fresh(now, margin); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCachedAssetValidate(t *testing.T) {
	if err := (&CachedAsset{}).Validate(); err == nil {
		t.Error("expected an error for an empty id")
	}
	if err := (&CachedAsset{Asset: MediaAsset{ID: "x"}}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestThumbnailSrc(t *testing.T) {
	th := Thumbnail{URL: "https://i.ytimg.com/a.jpg"}
	if th.Src() != th.URL {
		t.Errorf("expected remote url, got %s", th.Src())
	}
	th.InlineData = "data:image/jpeg;base64,AAAA"
	if th.Src() != th.InlineData {
		t.Errorf("expected inline data, got %s", th.Src())
	}
}
