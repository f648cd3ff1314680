package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ytstream/internal/models"
)

var (
	_ list.Item = resultItem{}
)

// resultItem wraps [models.SearchResult] to implement [list.Item].
type resultItem struct {
	result models.SearchResult
}

func (i resultItem) FilterValue() string { return i.result.Title + " " + i.result.Author }
func (i resultItem) Title() string       { return i.result.Title }
func (i resultItem) Description() string {
	desc := i.result.Author
	if i.result.Duration != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.result.Duration)
	}
	return desc
}

func resultItems(results []models.SearchResult) []list.Item {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = resultItem{result: r}
	}
	return items
}
