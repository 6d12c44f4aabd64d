package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scuttlekit/scuttle/internal/fetch"
	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/navigator"
	"github.com/scuttlekit/scuttle/internal/parser"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/store"
	"github.com/scuttlekit/scuttle/internal/validator"
)

// DefaultConcurrency is the number of fetch workers when none is configured.
const DefaultConcurrency = 4

// DefaultBatchSize is how many pages one claim round leases at most.
const DefaultBatchSize = 100

// Stats summarizes a single crawl run.
type Stats struct {
	// RunID uniquely identifies this run in logs.
	RunID string

	// Reclaimed counts stale leases returned to New before claiming began.
	Reclaimed int64

	// Claimed counts pages leased during the run.
	Claimed int

	// Downloaded counts pages that reached Downloaded.
	Downloaded int

	// Failed counts pages that reached Failed, whether by transport
	// exhaustion or validator rejection.
	Failed int

	// LinksInserted counts edges written by cascading navigation.
	LinksInserted int

	// RecordsWritten counts records written by cascading parsing.
	RecordsWritten int

	// RuleErrors counts cascade invocations that failed. The affected
	// pages stay Downloaded.
	RuleErrors int

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Crawler claims pending pages and fetches them under bounded concurrency.
type Crawler struct {
	// store is the page store the crawler leases from and commits to.
	store *store.Store

	// client performs the HTTP fetches.
	client *fetch.Client

	// retry decides which fetch failures are worth another attempt.
	retry *fetch.RetryPolicy

	// policy judges fetched responses before they are stored.
	policy validator.Policy

	// pool provides isolated rule engines for cascade work. It is nil
	// when neither cascade flag is set.
	pool *rule.Pool

	// concurrency bounds the number of in-flight fetch workers.
	concurrency int

	// batchSize bounds how many pages one claim round leases.
	batchSize int

	// delay is the politeness pause between dispatched fetches.
	delay time.Duration

	// cascadeNavigate runs the navigate rule right after a successful
	// download instead of waiting for a separate pass.
	cascadeNavigate bool

	// cascadeParse runs the parse rule right after a successful download.
	cascadeParse bool

	// logger receives run progress. Defaults to slog.Default().
	logger *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the number of concurrent fetch workers.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithBatchSize sets how many pages are leased per claim round.
func WithBatchSize(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithDelay sets the politeness delay between dispatched fetches.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) {
		c.delay = d
	}
}

// WithRetryPolicy replaces the default transport retry policy.
func WithRetryPolicy(p *fetch.RetryPolicy) Option {
	return func(c *Crawler) {
		c.retry = p
	}
}

// WithValidator replaces the default accept policy.
func WithValidator(p validator.Policy) Option {
	return func(c *Crawler) {
		c.policy = p
	}
}

// WithCascade enables navigate and/or parse cascading on the given rule
// pool. The pool should hold at least as many engines as there are fetch
// workers, or cascading workers will wait on each other.
func WithCascade(pool *rule.Pool, navigate, parse bool) Option {
	return func(c *Crawler) {
		c.pool = pool
		c.cascadeNavigate = navigate
		c.cascadeParse = parse
	}
}

// WithLogger sets the logger for run progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler over the given store and HTTP client.
func New(s *store.Store, client *fetch.Client, opts ...Option) *Crawler {
	c := &Crawler{
		store:       s,
		client:      client,
		retry:       fetch.NewRetryPolicy(fetch.DefaultRetryBudget, fetch.DefaultBackoffBase, fetch.DefaultBackoffMax),
		policy:      validator.NewDefaultPolicy(),
		concurrency: DefaultConcurrency,
		batchSize:   DefaultBatchSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drains the frontier: it reclaims stale leases, then repeatedly claims
// a batch of pending pages and fetches them until no pending pages remain
// or the context is cancelled. Per-page failures are committed and counted;
// only storage errors abort the run.
//
// Cancellation stops further claiming. Already dispatched workers finish
// their commit so no page is left leased.
func (c *Crawler) Run(ctx context.Context) (Stats, error) {
	stats := Stats{RunID: uuid.NewString()}
	start := time.Now()

	reclaimed, err := c.store.ReclaimStaleLeases(ctx)
	if err != nil {
		return stats, fmt.Errorf("reclaim stale leases: %w", err)
	}
	stats.Reclaimed = reclaimed
	if reclaimed > 0 {
		c.logger.Warn("reclaimed stale leases", "run_id", stats.RunID, "pages", reclaimed)
	}

	c.logger.Info("crawl started",
		"run_id", stats.RunID,
		"concurrency", c.concurrency,
		"cascade_navigate", c.cascadeNavigate,
		"cascade_parse", c.cascadeParse,
	)

	var mu sync.Mutex
	for {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}

		pages, err := c.store.ClaimPending(ctx, c.batchSize)
		if err != nil {
			stats.Elapsed = time.Since(start)
			return stats, fmt.Errorf("claim pending pages: %w", err)
		}
		if len(pages) == 0 {
			break
		}
		stats.Claimed += len(pages)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)

		for i, page := range pages {
			if c.delay > 0 && i > 0 {
				select {
				case <-gctx.Done():
				case <-time.After(c.delay):
				}
			}

			page := page
			g.Go(func() error {
				outcome, err := c.crawlPage(gctx, page)
				if err != nil {
					return err
				}
				mu.Lock()
				stats.add(outcome)
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			stats.Elapsed = time.Since(start)
			return stats, err
		}
	}

	stats.Elapsed = time.Since(start)
	c.logger.Info("crawl finished",
		"run_id", stats.RunID,
		"claimed", stats.Claimed,
		"downloaded", stats.Downloaded,
		"failed", stats.Failed,
		"links", stats.LinksInserted,
		"records", stats.RecordsWritten,
		"rule_errors", stats.RuleErrors,
		"elapsed", stats.Elapsed,
	)
	return stats, nil
}

// outcome is what a single page's worker reports back for stats.
type outcome struct {
	downloaded bool
	failed     bool
	links      int
	records    int
	ruleErrors int
}

func (s *Stats) add(o outcome) {
	if o.downloaded {
		s.Downloaded++
	}
	if o.failed {
		s.Failed++
	}
	s.LinksInserted += o.links
	s.RecordsWritten += o.records
	s.RuleErrors += o.ruleErrors
}

// crawlPage takes one leased page to its terminal state. The returned error
// is non-nil only for storage failures; fetch, validation, and rule
// problems are committed to the page and reported in the outcome.
//
// When the run context is cancelled mid-fetch the page is left leased for
// the next run's reclamation rather than committed as Failed. Commits
// themselves use context.WithoutCancel so a cancel arriving after a
// successful fetch cannot lose the body.
func (c *Crawler) crawlPage(ctx context.Context, page model.Page) (outcome, error) {
	var out outcome
	commitCtx := context.WithoutCancel(ctx)

	resp, err := c.client.FetchWithRetry(ctx, page.URL, c.retry)
	if err != nil {
		if ctx.Err() != nil {
			return out, nil
		}
		reason := fmt.Sprintf("transient fetch failure: %v", err)
		c.logger.Warn("fetch failed", "page_id", page.ID, "url", page.URL, "error", err)
		if err := c.store.CommitFailed(commitCtx, page.ID, reason); err != nil {
			return out, fmt.Errorf("commit failed page %d: %w", page.ID, err)
		}
		out.failed = true
		return out, nil
	}

	if err := c.policy.Check(&resp); err != nil {
		var rejection *validator.Rejection
		reason := err.Error()
		if errors.As(err, &rejection) {
			reason = rejection.Reason
		}
		c.logger.Info("page rejected", "page_id", page.ID, "url", page.URL, "reason", reason)
		if err := c.store.CommitFailed(commitCtx, page.ID, reason); err != nil {
			return out, fmt.Errorf("commit failed page %d: %w", page.ID, err)
		}
		out.failed = true
		return out, nil
	}

	meta := model.FetchMeta{
		HTTPStatus:  resp.Status,
		ContentType: resp.ContentType(),
		Headers:     resp.Headers,
		FetchedAt:   time.Now().UTC(),
	}
	if err := c.store.CommitDownloaded(commitCtx, page.ID, resp.Body, meta); err != nil {
		return out, fmt.Errorf("commit downloaded page %d: %w", page.ID, err)
	}
	out.downloaded = true
	c.logger.Debug("page downloaded", "page_id", page.ID, "url", page.URL, "status", resp.Status)

	if c.pool == nil || (!c.cascadeNavigate && !c.cascadeParse) {
		return out, nil
	}
	if err := c.cascade(ctx, page, &out); err != nil {
		return out, err
	}
	return out, nil
}

// cascade runs navigate and then parse for a freshly downloaded page on a
// single engine acquired from the pool. Rule failures are logged and
// counted; the page stays Downloaded.
func (c *Crawler) cascade(ctx context.Context, page model.Page, out *outcome) error {
	engine, err := c.pool.Acquire(ctx)
	if err != nil {
		// Cancelled while waiting for an engine. The page is already
		// committed, so the cascade is simply skipped.
		return nil
	}
	defer c.pool.Release(engine)

	// Refresh the page so the cascade sees its downloaded state.
	fresh, err := c.store.Get(ctx, page.ID)
	if err != nil {
		return fmt.Errorf("reload page %d: %w", page.ID, err)
	}

	if c.cascadeNavigate {
		inserted, err := navigator.New(c.store).Navigate(ctx, engine, fresh)
		switch {
		case err == nil:
			out.links += inserted
		case errors.Is(err, rule.ErrRuleOutput) || errors.Is(err, rule.ErrRuleExecution):
			c.logger.Warn("navigate rule failed", "page_id", page.ID, "error", err)
			out.ruleErrors++
		default:
			return fmt.Errorf("navigate page %d: %w", page.ID, err)
		}
	}

	if c.cascadeParse {
		written, err := parser.New(c.store).Parse(ctx, engine, fresh)
		switch {
		case err == nil:
			out.records += written
		case errors.Is(err, rule.ErrRuleOutput) || errors.Is(err, rule.ErrRuleExecution):
			c.logger.Warn("parse rule failed", "page_id", page.ID, "error", err)
			out.ruleErrors++
		default:
			return fmt.Errorf("parse page %d: %w", page.ID, err)
		}
	}
	return nil
}
