package player

import (
	"slices"
	"sync"

	"github.com/desertthunder/ytstream/internal/models"
)

// Item is one entry in a playback queue.
type Item struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	DurationMs  int64  `json:"durationMs"`
	URL         string `json:"url"`
	ExpiresAtMs int64  `json:"expiresAtMs"`
}

// ItemFromAsset copies the fields a queue needs from a resolved asset.
func ItemFromAsset(a *models.MediaAsset) Item {
	return Item{
		ID:          a.ID,
		Title:       a.Title,
		Author:      a.Author,
		DurationMs:  a.DurationMs,
		URL:         a.StreamURL,
		ExpiresAtMs: a.ExpiresAtMs,
	}
}

// Queue is an ordered, concurrency-safe list of items. The same id may
// appear more than once.
type Queue struct {
	mu    sync.RWMutex
	items []Item
}

func NewQueue(items ...Item) *Queue {
	return &Queue{items: slices.Clone(items)}
}

// Set replaces the queue's contents.
func (q *Queue) Set(items []Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = slices.Clone(items)
}

func (q *Queue) Append(items ...Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Remove deletes the item at index.
func (q *Queue) Remove(index int) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.items) {
		return Item{}, false
	}
	it := q.items[index]
	q.items = slices.Delete(q.items, index, index+1)
	return it, true
}

// Move relocates the item at from so it ends up at to.
func (q *Queue) Move(from, to int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	it := q.items[from]
	q.items = slices.Delete(q.items, from, from+1)
	q.items = slices.Insert(q.items, to, it)
	return true
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// ItemAt returns the id at index.
func (q *Queue) ItemAt(index int) (string, bool) {
	it, ok := q.Item(index)
	return it.ID, ok
}

// Item returns a copy of the entry at index.
func (q *Queue) Item(index int) (Item, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if index < 0 || index >= len(q.items) {
		return Item{}, false
	}
	return q.items[index], true
}

// IndexOf returns the first index holding id, or -1.
func (q *Queue) IndexOf(id string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.IndexFunc(q.items, func(it Item) bool { return it.ID == id })
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Items returns a copy of the queue.
func (q *Queue) Items() []Item {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return slices.Clone(q.items)
}

// ReplaceURL swaps the stream URL at index if that slot still holds id.
func (q *Queue) ReplaceURL(index int, id, url string, expiresAtMs int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if index < 0 || index >= len(q.items) || q.items[index].ID != id {
		return false
	}
	q.items[index].URL = url
	q.items[index].ExpiresAtMs = expiresAtMs
	return true
}
