package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/ytstream/internal/metrics"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// DefaultMargin is how long before expiry a stream URL is considered due.
const DefaultMargin = 10 * time.Second

// State is the refresh state of a tracked item.
type State int

const (
	StateFresh State = iota
	StateDue
	StateRefreshing
	StateStaleDiscarded
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateDue:
		return "due"
	case StateRefreshing:
		return "refreshing"
	case StateStaleDiscarded:
		return "stale"
	default:
		return "unknown"
	}
}

// Queue is the view of the playback queue the tracker validates against.
type Queue interface {
	// ItemAt returns the id at index, false when out of range.
	ItemAt(index int) (string, bool)
	// IndexOf returns the first index holding id, or -1.
	IndexOf(id string) int
}

// Binding is a snapshot of a tracked item's stream URL.
type Binding struct {
	ItemID      string
	Index       int
	URL         string
	ExpiresAtMs int64
	State       State
}

type binding struct {
	itemID      string
	index       int
	url         string
	expiresAtMs int64
	// phase holds StateRefreshing or StateStaleDiscarded; otherwise the
	// state is derived from the clock.
	phase State
}

// TrackerOpts configures [NewTracker].
type TrackerOpts struct {
	Resolver services.Resolver
	Queue    Queue
	Margin   time.Duration
	// TrustUnknownExpiry treats a zero expiry as fresh. By default such
	// bindings are always due.
	TrustUnknownExpiry bool
	Now                func() time.Time
	// Events receives refresh notifications. Sends never block: when the
	// consumer is not ready the event is dropped and logged.
	Events  chan<- models.AssetRefreshed
	Workers int
	Logger  *log.Logger
}

// Tracker keeps queue items' signed stream URLs ahead of their expiry.
type Tracker struct {
	resolver     services.Resolver
	queue        Queue
	margin       time.Duration
	trustUnknown bool
	now          func() time.Time
	events       chan<- models.AssetRefreshed
	logger       *log.Logger

	mu       sync.Mutex
	bindings map[string]*binding

	flights singleflight.Group
	pool    *Pool
}

// NewTracker creates a tracker. Resolver and Queue are required.
func NewTracker(opts TrackerOpts) *Tracker {
	if opts.Margin <= 0 {
		opts.Margin = DefaultMargin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	return &Tracker{
		resolver:     opts.Resolver,
		queue:        opts.Queue,
		margin:       opts.Margin,
		trustUnknown: opts.TrustUnknownExpiry,
		now:          opts.Now,
		events:       opts.Events,
		logger:       opts.Logger,
		bindings:     make(map[string]*binding),
		pool:         NewPool(opts.Workers, opts.Workers*4),
	}
}

// Close stops the neighbor refresh workers after queued checks finish.
func (t *Tracker) Close() {
	t.pool.Close()
}

// Bind starts tracking id at index with its current URL. A previous binding
// for id is replaced and any refresh in flight for it will be dropped.
func (t *Tracker) Bind(index int, id, url string, expiresAtMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings[id] = &binding{itemID: id, index: index, url: url, expiresAtMs: expiresAtMs}
	metrics.SetTrackedItems(len(t.bindings))
}

// Unbind stops tracking id.
func (t *Tracker) Unbind(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bindings, id)
	metrics.SetTrackedItems(len(t.bindings))
}

// Reset drops every binding. Refreshes still in flight are discarded when
// they complete.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bindings = make(map[string]*binding)
	metrics.SetTrackedItems(0)
}

// Resync moves every binding to its item's current queue index and drops
// the ones whose item left the queue. Call after structural queue edits.
func (t *Tracker) Resync() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, b := range t.bindings {
		idx := t.queue.IndexOf(id)
		if idx < 0 {
			delete(t.bindings, id)
			continue
		}
		b.index = idx
	}
	metrics.SetTrackedItems(len(t.bindings))
}

// Len returns the number of tracked items.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.bindings)
}

// Binding returns a snapshot of id's binding.
func (t *Tracker) Binding(id string) (Binding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.bindings[id]
	if !ok {
		return Binding{}, false
	}
	return t.snapshot(b), true
}

// State returns id's current state. Untracked ids report [StateDue].
func (t *Tracker) State(id string) State {
	b, ok := t.Binding(id)
	if !ok {
		return StateDue
	}
	return b.State
}

func (t *Tracker) stateOf(b *binding) State {
	if b.phase == StateRefreshing || b.phase == StateStaleDiscarded {
		return b.phase
	}
	if b.expiresAtMs == 0 {
		if t.trustUnknown {
			return StateFresh
		}
		return StateDue
	}
	if t.now().UnixMilli() >= b.expiresAtMs-t.margin.Milliseconds() {
		return StateDue
	}
	return StateFresh
}

func (t *Tracker) snapshot(b *binding) Binding {
	return Binding{
		ItemID:      b.itemID,
		Index:       b.index,
		URL:         b.url,
		ExpiresAtMs: b.expiresAtMs,
		State:       t.stateOf(b),
	}
}

// CheckAndRefresh re-resolves id when its URL is due.
//
// A fresh binding is returned untouched. A due binding is refreshed once no
// matter how many callers ask concurrently. The result is applied only if the
// queue still holds id at the binding's index; otherwise the binding is
// marked stale and nothing is emitted. A stale binding is relocated on the
// next call, or dropped with [shared.ErrNotTracked] if id left the queue.
// Resolver failures leave the binding due and are returned.
func (t *Tracker) CheckAndRefresh(ctx context.Context, id string) (Binding, error) {
	t.mu.Lock()
	b, ok := t.bindings[id]
	if !ok {
		t.mu.Unlock()
		return Binding{}, fmt.Errorf("%w: %s", shared.ErrNotTracked, id)
	}

	if b.phase == StateStaleDiscarded {
		idx := t.queue.IndexOf(id)
		if idx < 0 {
			delete(t.bindings, id)
			metrics.SetTrackedItems(len(t.bindings))
			t.mu.Unlock()
			t.logger.Debug("dropped stale binding", "id", id)
			return Binding{}, fmt.Errorf("%w: %s left the queue", shared.ErrNotTracked, id)
		}
		t.logger.Debug("relocated stale binding", "id", id, "from", b.index, "to", idx)
		b.index = idx
		b.phase = StateFresh
	}

	if t.stateOf(b) == StateFresh {
		snap := t.snapshot(b)
		t.mu.Unlock()
		metrics.RecordRefresh(metrics.RefreshSkipped)
		return snap, nil
	}
	snap := t.snapshot(b)
	t.mu.Unlock()

	// The flight outlives any single waiter so a canceled caller does not
	// fail the others sharing it.
	ch := t.flights.DoChan(id, func() (any, error) {
		return t.refresh(context.WithoutCancel(ctx), id, b)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return res.Val.(Binding), res.Err
		}
		return res.Val.(Binding), nil
	case <-ctx.Done():
		return snap, ctx.Err()
	}
}

func (t *Tracker) refresh(ctx context.Context, id string, want *binding) (Binding, error) {
	t.mu.Lock()
	b, ok := t.bindings[id]
	if !ok || b != want {
		t.mu.Unlock()
		return Binding{}, fmt.Errorf("%w: %s was rebound", shared.ErrNotTracked, id)
	}
	if t.stateOf(b) != StateDue {
		// Another flight finished between the caller's check and this one.
		snap := t.snapshot(b)
		t.mu.Unlock()
		return snap, nil
	}
	index := b.index
	b.phase = StateRefreshing
	t.mu.Unlock()

	t.logger.Debug("refreshing stream url", "id", id, "index", index)
	asset, err := t.resolver.Get(ctx, id)

	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.bindings[id]; !ok || cur != b {
		// Unbound, rebound or reset while the request was out.
		metrics.RecordRefresh(metrics.RefreshDiscarded)
		t.logger.Debug("discarded refresh for released binding", "id", id)
		return Binding{}, fmt.Errorf("%w: %s was released", shared.ErrNotTracked, id)
	}

	if err == nil && !asset.Playable() {
		err = fmt.Errorf("%w: %s", shared.ErrNoPlayableAsset, id)
	}
	if err != nil {
		b.phase = StateFresh
		metrics.RecordRefresh(metrics.RefreshFailed)
		t.logger.Warn("stream url refresh failed", "id", id, "error", err)
		return t.snapshot(b), err
	}

	if current, ok := t.queue.ItemAt(index); !ok || current != id {
		b.phase = StateStaleDiscarded
		metrics.RecordRefresh(metrics.RefreshDiscarded)
		t.logger.Debug("queue moved during refresh, result discarded", "id", id, "index", index)
		return t.snapshot(b), nil
	}

	b.url = asset.StreamURL
	b.expiresAtMs = asset.ExpiresAtMs
	b.phase = StateFresh
	metrics.RecordRefresh(metrics.RefreshApplied)

	t.emit(models.AssetRefreshed{
		EventID:     shared.GenerateID(),
		ItemID:      id,
		Index:       index,
		URL:         b.url,
		ExpiresAtMs: b.expiresAtMs,
	})
	return t.snapshot(b), nil
}

// emit sends ev without blocking.
func (t *Tracker) emit(ev models.AssetRefreshed) {
	if t.events == nil {
		return
	}
	select {
	case t.events <- ev:
	default:
		metrics.RecordDroppedEvent()
		t.logger.Warn("refresh event dropped, consumer busy", "id", ev.ItemID)
	}
}

// OnQueuePositionChanged schedules background checks for the items on
// either side of active. It returns immediately.
func (t *Tracker) OnQueuePositionChanged(ctx context.Context, active int) {
	ctx = context.WithoutCancel(ctx)
	for _, idx := range []int{active - 1, active + 1} {
		id, ok := t.queue.ItemAt(idx)
		if !ok {
			continue
		}
		if _, tracked := t.Binding(id); !tracked {
			continue
		}

		submitted := t.pool.Submit(func() {
			if _, err := t.CheckAndRefresh(ctx, id); err != nil {
				t.logger.Debug("neighbor refresh failed", "id", id, "index", idx, "error", err)
			}
		})
		if !submitted {
			t.logger.Warn("neighbor refresh not scheduled, workers busy", "id", id)
		}
	}
}

// ResolveBeforeOpen returns a URL safe to open for id, refreshing it first
// when due. On failure the existing URL is returned, even if expired. An
// untracked id yields "".
func (t *Tracker) ResolveBeforeOpen(ctx context.Context, id string) string {
	before, ok := t.Binding(id)
	if !ok {
		return ""
	}

	after, err := t.CheckAndRefresh(ctx, id)
	if err != nil || after.URL == "" {
		if err != nil {
			t.logger.Warn("opening with previous url", "id", id, "error", err)
		}
		return before.URL
	}
	return after.URL
}
