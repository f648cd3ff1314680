package extract

import (
	"net/url"
	"strconv"

	"github.com/desertthunder/ytstream/internal/models"
)

// SelectBest picks the highest bitrate audio-only format with a URL. When
// there is none it falls back to the highest bitrate format of any kind.
// Ties keep the earliest entry.
func SelectBest(formats []models.Format) models.Selection {
	best := pick(formats, models.Format.IsAudio)
	if best == nil {
		best = pick(formats, func(models.Format) bool { return true })
	}
	if best == nil {
		return models.Selection{}
	}
	return models.Selection{URL: best.URL, ExpiresAtMs: ExpiryFromURL(best.URL)}
}

func pick(formats []models.Format, accept func(models.Format) bool) *models.Format {
	var best *models.Format
	for i := range formats {
		f := &formats[i]
		if f.URL == "" || !accept(*f) {
			continue
		}
		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

// ExpiryFromURL reads the expire query parameter (epoch seconds) and returns
// it in milliseconds, or 0 when absent or malformed.
func ExpiryFromURL(raw string) int64 {
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	secs, err := strconv.ParseInt(u.Query().Get("expire"), 10, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return secs * 1000
}
