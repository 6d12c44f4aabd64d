package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/config"
	"github.com/scuttlekit/scuttle/internal/crawler"
	"github.com/scuttlekit/scuttle/internal/fetch"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/validator"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Fetch all pending pages",
		Long: `Crawl drains the frontier: it claims pending pages in batches and
fetches them concurrently until no pending pages remain. Pages the
previous run left leased (for example after a crash) are reclaimed first.

With cascading enabled (the default from scuttle.yml), each successfully
downloaded page immediately runs its navigate and parse rules, so pages
discovered by navigation are fetched in the same run.

Flags override the corresponding scuttle.yml settings for this run only.

Examples:
  # Crawl with workspace settings
  scuttle crawl

  # One polite worker, no cascading
  scuttle crawl --concurrency 1 --delay 2s --navigate=false --parse=false`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().IntP("concurrency", "c", 0, "Concurrent fetch workers (default from scuttle.yml)")
	cmd.Flags().IntP("batch", "b", 0, "Pages leased per claim round (default from scuttle.yml)")
	cmd.Flags().DurationP("delay", "D", -1, "Politeness delay between fetches (default from scuttle.yml)")
	cmd.Flags().DurationP("timeout", "t", 0, "Per-fetch timeout (default from scuttle.yml)")
	cmd.Flags().IntP("retries", "r", -1, "Retry budget per page (default from scuttle.yml)")
	cmd.Flags().Bool("navigate", true, "Run navigate rules after each download")
	cmd.Flags().Bool("parse", true, "Run parse rules after each download")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	cfg := *e.cfg
	applyCrawlFlags(cmd, &cfg)

	client := buildClient(&cfg)
	retry := fetch.NewRetryPolicy(cfg.RetryBudget, cfg.BackoffBase.Std(), cfg.BackoffMax.Std())

	opts := []crawler.Option{
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithBatchSize(cfg.BatchSize),
		crawler.WithDelay(cfg.Delay.Std()),
		crawler.WithRetryPolicy(retry),
		crawler.WithLogger(e.logger),
	}
	if len(cfg.AllowedContentTypes) > 0 {
		opts = append(opts, crawler.WithValidator(&validator.DefaultPolicy{
			AllowedContentTypes: cfg.AllowedContentTypes,
		}))
	}

	if cfg.CascadeNavigate || cfg.CascadeParse {
		sources, err := e.loadRuleSources()
		if err != nil {
			return err
		}
		pool, err := rule.NewPool(sources, cfg.Concurrency, rule.WithExecTimeout(cfg.RuleTimeout.Std()))
		if err != nil {
			return err
		}
		opts = append(opts, crawler.WithCascade(pool, cfg.CascadeNavigate, cfg.CascadeParse))
	}

	// Cancel claiming on interrupt; in-flight pages finish their commit.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		e.logger.Info("received shutdown signal, finishing in-flight pages...")
		cancel()
	}()

	stats, err := crawler.New(e.store, client, opts...).Run(ctx)
	printStats(cmd, stats)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// applyCrawlFlags overlays the command line onto the workspace config.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) {
	if n, err := cmd.Flags().GetInt("concurrency"); err == nil && n > 0 {
		cfg.Concurrency = n
	}
	if n, err := cmd.Flags().GetInt("batch"); err == nil && n > 0 {
		cfg.BatchSize = n
	}
	if d, err := cmd.Flags().GetDuration("delay"); err == nil && d >= 0 {
		cfg.Delay = config.Duration(d)
	}
	if d, err := cmd.Flags().GetDuration("timeout"); err == nil && d > 0 {
		cfg.FetchTimeout = config.Duration(d)
	}
	if n, err := cmd.Flags().GetInt("retries"); err == nil && n >= 0 {
		cfg.RetryBudget = n
	}
	if cmd.Flags().Changed("navigate") {
		cfg.CascadeNavigate, _ = cmd.Flags().GetBool("navigate")
	}
	if cmd.Flags().Changed("parse") {
		cfg.CascadeParse, _ = cmd.Flags().GetBool("parse")
	}
}

// buildClient constructs the HTTP client from the effective config.
func buildClient(cfg *config.Config) *fetch.Client {
	opts := []fetch.ClientOption{
		fetch.WithTimeout(cfg.FetchTimeout.Std()),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(cfg.UserAgent))
	}
	return fetch.NewClient(opts...)
}

// printStats writes the run summary.
func printStats(cmd *cobra.Command, stats crawler.Stats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s finished in %s\n", stats.RunID, stats.Elapsed.Round(time.Millisecond))
	if stats.Reclaimed > 0 {
		fmt.Fprintf(out, "  reclaimed:  %d\n", stats.Reclaimed)
	}
	fmt.Fprintf(out, "  claimed:    %d\n", stats.Claimed)
	fmt.Fprintf(out, "  downloaded: %d\n", stats.Downloaded)
	fmt.Fprintf(out, "  failed:     %d\n", stats.Failed)
	fmt.Fprintf(out, "  links:      %d\n", stats.LinksInserted)
	fmt.Fprintf(out, "  records:    %d\n", stats.RecordsWritten)
	if stats.RuleErrors > 0 {
		fmt.Fprintf(out, "  rule errors: %d\n", stats.RuleErrors)
	}
}
