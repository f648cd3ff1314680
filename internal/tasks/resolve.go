package tasks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// ResolveRequest names one item to resolve, by id or by query.
type ResolveRequest struct {
	ID    string
	Query models.Query
}

func (r ResolveRequest) label() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Query.Text()
}

// ItemResult is the outcome for one request.
type ItemResult struct {
	Index   int
	Request ResolveRequest
	Asset   *models.MediaAsset
	Error   error
}

// BulkResolveResult holds per-item outcomes in request order.
type BulkResolveResult struct {
	Total    int
	Resolved int
	Failed   int
	Items    []ItemResult
}

// Assets returns the resolved assets in request order, skipping failures.
func (r *BulkResolveResult) Assets() []*models.MediaAsset {
	out := make([]*models.MediaAsset, 0, r.Resolved)
	for _, it := range r.Items {
		if it.Error == nil && it.Asset != nil {
			out = append(out, it.Asset)
		}
	}
	return out
}

// BulkResolveOpts contains configuration for [Engine.BulkResolve].
type BulkResolveOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max 10)
	RateLimit  float64 // Requests per second (default: 5)
}

type resolveJob struct {
	index int
	req   ResolveRequest
}

// BulkResolve resolves reqs concurrently with rate limiting and progress
// tracking. Individual failures are recorded on their [ItemResult]; the
// returned error is non-nil only when the engine cannot run at all or ctx
// ends first.
func (e *Engine) BulkResolve(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	reqs []ResolveRequest,
	opts BulkResolveOpts,
) (*BulkResolveResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &BulkResolveResult{Total: len(reqs), Items: make([]ItemResult, len(reqs))}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan resolveJob, len(reqs))
	results := make(chan ItemResult, len(reqs))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.resolveWorker(ctx, &wg, limiter, jobs, results)
	}

	e.sendProgress(prog, resolvingUpdate(len(reqs)))
	for i, req := range reqs {
		jobs <- resolveJob{index: i, req: req}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Items[res.Index] = res
		if res.Error == nil {
			result.Resolved++
			e.sendProgress(prog, resolvedUpdate(completed, len(reqs), res.Asset))
		} else {
			result.Failed++
			e.sendProgress(prog, resolveFailedUpdate(completed, len(reqs), res.Request.label(), res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.logger.Debug("bulk resolve finished", "total", result.Total, "resolved", result.Resolved, "failed", result.Failed)
	e.sendProgress(prog, resolveDoneUpdate(result))
	return result, nil
}

// resolveWorker resolves jobs until the channel closes. Once ctx ends the
// remaining jobs are reported with its error.
func (e *Engine) resolveWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan resolveJob,
	results chan<- ItemResult,
) {
	defer wg.Done()

	for job := range jobs {
		res := ItemResult{Index: job.index, Request: job.req}
		if err := limiter.Wait(ctx); err != nil {
			res.Error = err
			results <- res
			continue
		}
		res.Asset, res.Error = e.resolveOne(ctx, job.req)
		results <- res
	}
}

func (e *Engine) resolveOne(ctx context.Context, req ResolveRequest) (*models.MediaAsset, error) {
	var (
		asset *models.MediaAsset
		err   error
	)
	switch {
	case req.ID != "":
		asset, err = e.svc.Get(ctx, req.ID)
	case req.Query.Text() != "":
		asset, err = e.svc.GetByQuery(ctx, req.Query)
	default:
		return nil, fmt.Errorf("%w: empty request", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}
	if !asset.Playable() {
		return asset, fmt.Errorf("%w: %s", shared.ErrNoPlayableAsset, asset.ID)
	}
	return asset, nil
}
