// Package player bridges a playback queue to the stream URL tracker.
//
// A [Session] owns a [Queue] and a [tasks.Tracker]. Loading resolves every
// item up front; afterwards the tracker keeps URLs valid as the active
// position moves, and [Session.Run] swaps refreshed URLs into the queue and
// fans them out to listeners.
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/desertthunder/ytstream/internal/tasks"
)

// Listener receives every refresh the session applies.
type Listener func(ctx context.Context, ev models.AssetRefreshed)

// SessionOpts configures [NewSession].
type SessionOpts struct {
	Service            services.Service
	Margin             time.Duration
	TrustUnknownExpiry bool
	Workers            int
	RateLimit          float64
	EventBuffer        int
	Now                func() time.Time
	Logger             *log.Logger
}

// Session is a playback queue with live stream URL tracking.
type Session struct {
	id      string
	queue   *Queue
	tracker *tasks.Tracker
	engine  *tasks.Engine
	events  chan models.AssetRefreshed
	opts    SessionOpts
	logger  *log.Logger

	mu     sync.Mutex
	active int

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextLID   int
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID     string `json:"id"`
	Active int    `json:"active"`
	Items  []Item `json:"items"`
}

func NewSession(opts SessionOpts) *Session {
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}

	id := shared.GenerateID()
	logger := opts.Logger.With("session", id[:8])
	s := &Session{
		id:        id,
		queue:     NewQueue(),
		events:    make(chan models.AssetRefreshed, opts.EventBuffer),
		opts:      opts,
		logger:    logger,
		active:    -1,
		listeners: make(map[int]Listener),
	}
	s.engine = tasks.NewEngine(opts.Service, logger)
	s.tracker = tasks.NewTracker(tasks.TrackerOpts{
		Resolver:           opts.Service,
		Queue:              s.queue,
		Margin:             opts.Margin,
		TrustUnknownExpiry: opts.TrustUnknownExpiry,
		Now:                opts.Now,
		Events:             s.events,
		Workers:            opts.Workers,
		Logger:             logger,
	})
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Queue() *Queue { return s.queue }

func (s *Session) Tracker() *tasks.Tracker { return s.tracker }

func (s *Session) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{ID: s.id, Active: s.Active(), Items: s.queue.Items()}
}

// Load resolves reqs and replaces the queue with the playable results.
// Items that fail to resolve are left out and reported in the result.
func (s *Session) Load(
	ctx context.Context,
	reqs []tasks.ResolveRequest,
	active int,
	prog chan<- tasks.ProgressUpdate,
) (*tasks.BulkResolveResult, error) {
	res, err := s.engine.BulkResolve(ctx, prog, reqs, tasks.BulkResolveOpts{
		NumWorkers: s.opts.Workers,
		RateLimit:  s.opts.RateLimit,
	})
	if err != nil {
		return res, err
	}

	assets := res.Assets()
	items := make([]Item, len(assets))
	for i, a := range assets {
		items[i] = ItemFromAsset(a)
	}

	s.tracker.Reset()
	s.queue.Set(items)
	for i, it := range items {
		s.tracker.Bind(i, it.ID, it.URL, it.ExpiresAtMs)
	}
	s.logger.Info("queue loaded", "items", len(items), "failed", res.Failed)

	if len(items) == 0 {
		s.setActive(-1)
		return res, nil
	}
	if active < 0 || active >= len(items) {
		active = 0
	}
	return res, s.SetActive(ctx, active)
}

// LoadIDs is [Session.Load] for plain video ids.
func (s *Session) LoadIDs(ctx context.Context, ids []string, active int) (*tasks.BulkResolveResult, error) {
	reqs := make([]tasks.ResolveRequest, len(ids))
	for i, id := range ids {
		reqs[i] = tasks.ResolveRequest{ID: id}
	}
	return s.Load(ctx, reqs, active, nil)
}

func (s *Session) setActive(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = i
}

// SetActive moves the play position and refreshes its neighbors in the
// background.
func (s *Session) SetActive(ctx context.Context, index int) error {
	if _, ok := s.queue.Item(index); !ok {
		return fmt.Errorf("%w: index %d out of range", shared.ErrInvalidArgument, index)
	}
	s.setActive(index)
	s.tracker.OnQueuePositionChanged(ctx, index)
	return nil
}

// Open returns a URL for the item at index that is safe to hand to a
// player, refreshing it first when it is close to expiry.
func (s *Session) Open(ctx context.Context, index int) (string, error) {
	it, ok := s.queue.Item(index)
	if !ok {
		return "", fmt.Errorf("%w: index %d out of range", shared.ErrInvalidArgument, index)
	}

	url := s.tracker.ResolveBeforeOpen(ctx, it.ID)
	if url == "" {
		url = it.URL
	}
	if url == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrNoPlayableAsset, it.ID)
	}
	return url, nil
}

// Remove deletes the item at index. When the active item or one of its
// neighbors changes, the new neighbors are refreshed in the background.
func (s *Session) Remove(ctx context.Context, index int) (Item, error) {
	s.mu.Lock()
	before := s.window(s.active)
	it, ok := s.queue.Remove(index)
	if !ok {
		s.mu.Unlock()
		return Item{}, fmt.Errorf("%w: index %d out of range", shared.ErrInvalidArgument, index)
	}
	s.tracker.Resync()
	if s.active > index || s.active >= s.queue.Len() {
		s.active--
	}
	active, after := s.active, s.window(s.active)
	s.mu.Unlock()

	if active >= 0 && before != after {
		s.tracker.OnQueuePositionChanged(ctx, active)
	}
	return it, nil
}

// Move relocates an item. The active position follows the item it pointed
// at, and its neighbors are refreshed when they change.
func (s *Session) Move(ctx context.Context, from, to int) error {
	s.mu.Lock()
	before := s.window(s.active)
	if !s.queue.Move(from, to) {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot move %d to %d", shared.ErrInvalidArgument, from, to)
	}
	s.tracker.Resync()
	switch {
	case s.active == from:
		s.active = to
	case from < s.active && to >= s.active:
		s.active--
	case from > s.active && to <= s.active:
		s.active++
	}
	active, after := s.active, s.window(s.active)
	s.mu.Unlock()

	s.logger.Debug("queue item moved", "from", from, "to", to, "active", active)
	if active >= 0 && before != after {
		s.tracker.OnQueuePositionChanged(ctx, active)
	}
	return nil
}

// window returns the ids before, at and after active. Callers hold s.mu.
func (s *Session) window(active int) [3]string {
	var w [3]string
	for i := range w {
		w[i], _ = s.queue.ItemAt(active - 1 + i)
	}
	return w
}

// Subscribe registers fn for refresh events and returns its cancel func.
func (s *Session) Subscribe(fn Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	id := s.nextLID
	s.nextLID++
	s.listeners[id] = fn
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

// Run applies refresh events to the queue until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-s.events:
			s.apply(ctx, ev)
		}
	}
}

func (s *Session) apply(ctx context.Context, ev models.AssetRefreshed) {
	if !s.queue.ReplaceURL(ev.Index, ev.ItemID, ev.URL, ev.ExpiresAtMs) {
		s.logger.Debug("refresh no longer matches queue", "id", ev.ItemID, "index", ev.Index)
		return
	}
	s.logger.Info("stream url refreshed", "id", ev.ItemID, "index", ev.Index, "expires", time.UnixMilli(ev.ExpiresAtMs).Format(time.TimeOnly))

	s.lmu.RLock()
	defer s.lmu.RUnlock()
	for _, fn := range s.listeners {
		fn(ctx, ev)
	}
}

// Close clears the queue and drops all tracking. Refreshes still in flight
// are discarded. The session cannot be reused.
func (s *Session) Close() {
	s.queue.Clear()
	s.tracker.Reset()
	s.tracker.Close()
	s.setActive(-1)
}
