// package formatter renders search pages and resolved assets as plain text, Markdown or CSV
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// Format names an output format accepted by the CLI.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
)

// ParseFormat accepts text, markdown (or md) and csv. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// SearchToCSV writes one row per result with columns: ID, Title, Author, Duration, Thumbnail
func SearchToCSV(resp *models.SearchResponse) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Author", "Duration", "Thumbnail"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range resp.Results {
		if err := writer.Write([]string{r.ID, r.Title, r.Author, r.Duration, r.Thumbnail.URL}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// SearchToMarkdown renders a numbered result list under the query heading.
func SearchToMarkdown(query string, resp *models.SearchResponse) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", query)
	fmt.Fprintf(&buf, "**Results**: %d\n", len(resp.Results))
	if resp.HasMore() {
		fmt.Fprintf(&buf, "**Next**: `%s`\n", resp.Continuation)
	}
	buf.WriteString("\n")

	for i, r := range resp.Results {
		durationPart := ""
		if r.Duration != "" {
			durationPart = fmt.Sprintf(" [%s]", r.Duration)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s (`%s`)\n", i+1, r.Author, r.Title, durationPart, r.ID)
	}
	return buf.Bytes(), nil
}

func SearchToText(resp *models.SearchResponse) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range resp.Results {
		fmt.Fprintf(&buf, "%2d. %s  %s - %s", i+1, r.ID, r.Author, r.Title)
		if r.Duration != "" {
			fmt.Fprintf(&buf, " (%s)", r.Duration)
		}
		buf.WriteString("\n")
	}
	if resp.HasMore() {
		fmt.Fprintf(&buf, "\nnext: %s\n", resp.Continuation)
	}
	return buf.Bytes(), nil
}

// RenderSearch dispatches on f.
func RenderSearch(f Format, query string, resp *models.SearchResponse) ([]byte, error) {
	switch f {
	case Markdown:
		return SearchToMarkdown(query, resp)
	case CSV:
		return SearchToCSV(resp)
	default:
		return SearchToText(resp)
	}
}

// Expiry describes an expiry relative to now, e.g. "in 5h59m" or "unknown".
func Expiry(expiresAtMs int64, now time.Time) string {
	if expiresAtMs == 0 {
		return "unknown"
	}
	left := time.UnixMilli(expiresAtMs).Sub(now).Round(time.Second)
	if left <= 0 {
		return "expired"
	}
	return "in " + left.String()
}

func assetDuration(a *models.MediaAsset) string {
	if a.DurationText != "" {
		return a.DurationText
	}
	return shared.FormatDuration(a.DurationMs / 1000)
}

// AssetToText renders the asset as aligned key/value lines.
func AssetToText(a *models.MediaAsset, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "ID:       %s\n", a.ID)
	fmt.Fprintf(&buf, "Title:    %s\n", a.Title)
	fmt.Fprintf(&buf, "Author:   %s\n", a.Author)
	fmt.Fprintf(&buf, "Duration: %s\n", assetDuration(a))
	if a.Playable() {
		fmt.Fprintf(&buf, "Expires:  %s\n", Expiry(a.ExpiresAtMs, now))
		fmt.Fprintf(&buf, "Stream:   %s\n", a.StreamURL)
	} else {
		buf.WriteString("Stream:   none\n")
	}
	return buf.Bytes(), nil
}

// AssetToMarkdown renders the asset with an optional cover image reference.
func AssetToMarkdown(a *models.MediaAsset, imageFilename string, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", a.Title)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}
	fmt.Fprintf(&buf, "**Author**: %s\n", a.Author)
	fmt.Fprintf(&buf, "**Duration**: %s\n", assetDuration(a))
	fmt.Fprintf(&buf, "**ID**: `%s`\n", a.ID)
	if a.Playable() {
		fmt.Fprintf(&buf, "**Expires**: %s\n\n", Expiry(a.ExpiresAtMs, now))
		fmt.Fprintf(&buf, "[Stream](%s)\n", a.StreamURL)
	}
	return buf.Bytes(), nil
}

// AssetsToCSV writes one row per asset with columns: ID, Title, Author, DurationMs, ExpiresAtMs, StreamURL
func AssetsToCSV(assets []models.MediaAsset) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Author", "DurationMs", "ExpiresAtMs", "StreamURL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, a := range assets {
		record := []string{
			a.ID,
			a.Title,
			a.Author,
			strconv.FormatInt(a.DurationMs, 10),
			strconv.FormatInt(a.ExpiresAtMs, 10),
			a.StreamURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderAsset dispatches on f.
func RenderAsset(f Format, a *models.MediaAsset, now time.Time) ([]byte, error) {
	switch f {
	case Markdown:
		return AssetToMarkdown(a, "", now)
	case CSV:
		return AssetsToCSV([]models.MediaAsset{*a})
	default:
		return AssetToText(a, now)
	}
}

// DownloadImage fetches url and returns the raw bytes.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return data, nil
}

// MarkdownExportResult lists the files written by [WriteAssetMarkdown].
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteAssetMarkdown writes {dir}/README.md and, when the asset has a
// thumbnail that downloads, {dir}/cover.jpg. The directory defaults to the
// asset id. A failed cover download is reported through warn and skipped.
func WriteAssetMarkdown(
	ctx context.Context,
	client *http.Client,
	a *models.MediaAsset,
	outputDir string,
	now time.Time,
	warn func(error),
) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = a.ID
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir}

	var cover string
	if a.Thumbnail.URL != "" {
		data, err := DownloadImage(ctx, client, a.Thumbnail.URL)
		if err == nil {
			path := filepath.Join(outputDir, "cover.jpg")
			err = os.WriteFile(path, data, 0644)
			if err == nil {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
		if err != nil && warn != nil {
			warn(err)
		}
	}

	md, err := AssetToMarkdown(a, cover, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}
	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteFile writes data to path, or to w when path is empty.
func WriteFile(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
