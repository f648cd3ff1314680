package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytstream/internal/formatter"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/player"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/desertthunder/ytstream/internal/tasks"
)

func (r *Runner) newSession(svc services.Service) *player.Session {
	lc := r.config.Lifecycle
	return player.NewSession(player.SessionOpts{
		Service:            svc,
		Margin:             lc.Margin(),
		TrustUnknownExpiry: !lc.RefreshUnknownExpiry,
		Workers:            lc.Workers,
		RateLimit:          r.config.Provider.RequestsPerSecond,
		Now:                r.now,
		Logger:             r.logger,
	})
}

// Play loads the id arguments into a session and keeps it running until
// interrupted or, with --advance, until the last item has been opened.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one id is required", shared.ErrMissingArgument)
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := r.newSession(svc)
	defer session.Close()
	session.Subscribe(func(_ context.Context, ev models.AssetRefreshed) {
		r.writePlain("↻ %d %s  expires %s\n", ev.Index, ev.ItemID, formatter.Expiry(ev.ExpiresAtMs, r.now()))
	})

	reqs := make([]tasks.ResolveRequest, len(ids))
	for i, id := range ids {
		reqs[i] = tasks.ResolveRequest{ID: id}
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	res, err := session.Load(ctx, reqs, int(cmd.Int("active")), progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}

	r.writePlainHeader(fmt.Sprintf("Session %s", session.ID()))
	for _, it := range res.Items {
		if it.Error != nil {
			r.writePlain("  ✗ %s: %v\n", it.Request.ID, it.Error)
		}
	}
	for i, it := range session.Queue().Items() {
		r.writePlain("%2d. %s - %s  (%s)\n", i, it.Author, it.Title, formatter.Expiry(it.ExpiresAtMs, r.now()))
	}
	if session.Queue().Len() == 0 {
		return fmt.Errorf("%w: nothing in the queue is playable", shared.ErrNoPlayableAsset)
	}

	go session.Run(ctx)

	if err := r.openActive(ctx, session); err != nil {
		return err
	}
	return r.playLoop(ctx, session, cmd.Duration("check"), cmd.Duration("advance"))
}

func (r *Runner) openActive(ctx context.Context, session *player.Session) error {
	active := session.Active()
	url, err := session.Open(ctx, active)
	if err != nil {
		return err
	}
	it, _ := session.Queue().Item(active)
	r.writePlain("▶ %d %s\n  %s\n", active, it.Title, url)
	return nil
}

// playLoop keeps the active item's URL fresh every check interval and moves
// to the next item every advance interval.
func (r *Runner) playLoop(ctx context.Context, session *player.Session, check, advance time.Duration) error {
	if check <= 0 {
		check = 5 * time.Second
	}
	checkTicker := time.NewTicker(check)
	defer checkTicker.Stop()

	var next <-chan time.Time
	if advance > 0 {
		t := time.NewTicker(advance)
		defer t.Stop()
		next = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-checkTicker.C:
			id, ok := session.Queue().ItemAt(session.Active())
			if !ok {
				continue
			}
			if _, err := session.Tracker().CheckAndRefresh(ctx, id); err != nil {
				r.logger.Warn("refresh failed", "id", id, "error", err)
			}

		case <-next:
			i := session.Active() + 1
			if i >= session.Queue().Len() {
				r.writePlain("■ end of queue\n")
				return nil
			}
			if err := session.SetActive(ctx, i); err != nil {
				return err
			}
			if err := r.openActive(ctx, session); err != nil {
				r.logger.Warn("failed to open item", "index", i, "error", err)
			}
		}
	}
}
