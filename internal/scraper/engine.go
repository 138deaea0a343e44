// internal/scraper/engine.go
package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valpere/ORDScrapexter/internal/browser"
	"github.com/valpere/ORDScrapexter/internal/errors"
	"github.com/valpere/ORDScrapexter/internal/ord"
	"github.com/valpere/ORDScrapexter/internal/ranges"
	"github.com/valpere/ORDScrapexter/internal/utils"
)

// Pool hands out browser pages to workers. *browser.Pool implements it.
type Pool interface {
	Get(ctx context.Context) (browser.Page, error)
	Put(page browser.Page) error
	Discard(page browser.Page)
}

// Engine scrapes datasets with a bounded number of concurrent workers, each
// driving its own browser page.
type Engine struct {
	pool     Pool
	sites    Sites
	opts     Options
	retry    *errors.Service
	logger   utils.Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an engine using the default site layout.
func NewEngine(pool Pool, opts Options) *Engine {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 1
	}
	return &Engine{
		pool:     pool,
		sites:    DefaultSites(),
		opts:     opts,
		retry:    errors.NewServiceWithRetry(opts.Retry),
		logger:   utils.NewNopLogger(),
		observer: NopObserver{},
		sleep:    sleepContext,
	}
}

// WithSites overrides the site layout.
func (e *Engine) WithSites(sites Sites) *Engine {
	e.sites = sites
	return e
}

// WithLogger sets the progress logger.
func (e *Engine) WithLogger(logger utils.Logger) *Engine {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// WithObserver sets the progress observer.
func (e *Engine) WithObserver(observer Observer) *Engine {
	if observer != nil {
		e.observer = observer
	}
	return e
}

// Options returns the engine options.
func (e *Engine) Options() Options {
	return e.opts
}

type unit struct {
	datasetID string
	reactions ranges.Window
}

// Run executes job and returns one result per dataset in completion order.
// A dataset that fails records its error in its result. When ctx is
// cancelled the results gathered so far are returned with ctx's error.
func (e *Engine) Run(ctx context.Context, job Job) ([]DatasetResult, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	units, err := e.plan(ctx, job)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, ErrNoDatasets
	}

	workers := e.opts.MaxWorkers
	if job.Mode == ModeSingle {
		workers = 1
	}

	e.logger.WithFields(map[string]interface{}{
		"mode":     string(job.Mode),
		"datasets": len(units),
		"workers":  workers,
	}).Info("Starting scrape")

	var (
		mu      sync.Mutex
		results = make([]DatasetResult, 0, len(units))
	)

	var g errgroup.Group
	g.SetLimit(workers)

	for _, u := range units {
		u := u
		g.Go(func() error {
			res := e.scrapeDataset(ctx, u)

			mu.Lock()
			results = append(results, res)
			done := len(results)
			mu.Unlock()

			if res.Error != "" {
				e.logger.Errorf("Failed dataset %s: %s", res.DatasetID, utils.Truncate(res.Error, 100))
			} else {
				e.logger.Infof("Completed dataset %d/%d: %s", done, len(units), res.DatasetID)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

// plan turns a job into units of work, discovering dataset ids when the
// mode selects datasets by position.
func (e *Engine) plan(ctx context.Context, job Job) ([]unit, error) {
	switch job.Mode {
	case ModeSpecific:
		ids := dedupe(job.DatasetIDs)
		units := make([]unit, 0, len(ids))
		for _, id := range ids {
			units = append(units, unit{datasetID: id, reactions: job.Reactions})
		}
		return units, nil

	case ModeCustom:
		seen := make(map[string]struct{}, len(job.DatasetRanges))
		units := make([]unit, 0, len(job.DatasetRanges))
		for _, dr := range job.DatasetRanges {
			if dr.ID == "" {
				continue
			}
			if _, dup := seen[dr.ID]; dup {
				continue
			}
			seen[dr.ID] = struct{}{}
			units = append(units, unit{datasetID: dr.ID, reactions: dr.Reactions})
		}
		return units, nil
	}

	datasets, reactions := job.windows()
	ids, err := e.discover(ctx, datasets)
	if err != nil {
		return nil, err
	}

	units := make([]unit, 0, len(ids))
	for _, id := range ids {
		units = append(units, unit{datasetID: id, reactions: reactions})
	}
	return units, nil
}

func (e *Engine) discover(ctx context.Context, w ranges.Window) ([]string, error) {
	page, err := e.pool.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("dataset discovery: %w", err)
	}

	e.logger.Infof("Discovering datasets %s", w)
	ids, err := e.ListDatasetIDs(ctx, page, w)
	if err != nil {
		e.pool.Discard(page)
		return nil, fmt.Errorf("dataset discovery: %w", err)
	}
	e.release(page)

	e.logger.Infof("Found %d datasets to scrape", len(ids))
	return ids, nil
}

// scrapeDataset lists and fetches the reactions of one dataset on a single
// page, one reaction at a time.
func (e *Engine) scrapeDataset(ctx context.Context, u unit) DatasetResult {
	start := time.Now()
	res := DatasetResult{DatasetID: u.datasetID, Reactions: []*ord.Reaction{}}
	logger := e.logger.WithField("dataset", u.datasetID)

	finish := func(err error) DatasetResult {
		res.Duration = time.Since(start)
		status := DatasetCompleted
		if err != nil {
			res.Error = err.Error()
			status = DatasetFailed
		}
		e.observer.DatasetFinished(status)
		return res
	}

	page, err := e.pool.Get(ctx)
	if err != nil {
		return finish(fmt.Errorf("failed to get browser: %w", err))
	}

	logger.Infof("Processing dataset: %s", u.datasetID)
	reactionIDs, err := e.ListReactionIDs(ctx, page, u.datasetID, u.reactions)
	if err != nil {
		e.pool.Discard(page)
		return finish(err)
	}
	if len(reactionIDs) == 0 {
		e.release(page)
		logger.Warn("No reactions found")
		return finish(nil)
	}

	limiter := utils.NewRateLimiter(e.opts.RateLimit)
	for i, rid := range reactionIDs {
		if err := limiter.Wait(ctx); err != nil {
			e.release(page)
			return finish(err)
		}

		logger.Infof("[%d/%d] Scraping %s...", i+1, len(reactionIDs), rid)
		fetchStart := time.Now()
		env := e.FetchReaction(ctx, page, rid)
		res.TotalReactions++

		status := StatusFailed
		if env.Success {
			if r, ok := ord.Normalize(env.Raw()); ok {
				res.Reactions = append(res.Reactions, r)
				res.SuccessfulScrapes++
				status = StatusSuccess
			} else {
				status = StatusInvalid
				logger.Warnf("Record %s could not be normalized", rid)
			}
		}
		e.observer.ReactionFinished(status, time.Since(fetchStart))

		if ctx.Err() != nil {
			e.release(page)
			return finish(ctx.Err())
		}
	}

	e.release(page)
	logger.Infof("Dataset done: %d/%d reactions scraped", res.SuccessfulScrapes, res.TotalReactions)
	return finish(nil)
}

// release returns page to the pool. A page the pool refuses has already been
// closed by it.
func (e *Engine) release(page browser.Page) {
	if err := e.pool.Put(page); err != nil {
		e.logger.Debugf("Browser not returned to pool: %v", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
