package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/recipecrawl/internal/model"
)

// DefaultConcurrency crawls one site at a time.
const DefaultConcurrency = 1

// SiteCrawler crawls a single site.
type SiteCrawler interface {
	Crawl(ctx context.Context, site string) model.SiteResult
}

// BatchCrawler crawls a list of sites with bounded concurrency.
type BatchCrawler struct {
	crawler     SiteCrawler
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchCrawler.
type BatchOption func(*BatchCrawler)

// WithBatchLogger sets a custom logger for batch crawling.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchCrawler) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of sites crawled at once.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchCrawler) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchCrawler creates a BatchCrawler over crawler.
func NewBatchCrawler(crawler SiteCrawler, opts ...BatchOption) *BatchCrawler {
	b := &BatchCrawler{
		crawler:     crawler,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// CrawlAll crawls sites and returns one result per site in the order of
// sites, regardless of completion order. Sites not started before ctx is
// cancelled get an empty cancelled result.
func (b *BatchCrawler) CrawlAll(ctx context.Context, sites []string) []model.SiteResult {
	results := make([]model.SiteResult, len(sites))
	_ = b.CrawlAllWithCallback(ctx, sites, func(r model.SiteResult, i int) { //nolint:errcheck // never fails
		results[i] = r
	})
	return results
}

// CrawlAllWithCallback crawls sites and calls callback with each result
// and its index in sites. With concurrency above one the callback is
// called from several goroutines, each with a distinct index.
func (b *BatchCrawler) CrawlAllWithCallback(
	ctx context.Context,
	sites []string,
	callback func(result model.SiteResult, index int),
) error {
	b.logger.Info("starting site crawl",
		"total_sites", len(sites),
		"concurrency", b.concurrency,
	)
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for i, site := range sites {
		g.Go(func() error {
			if ctx.Err() != nil {
				callback(model.SiteResult{
					Site:       site,
					Recipes:    []model.Recipe{},
					StopReason: model.StopCancelled,
				}, i)
				return nil
			}

			b.logger.Info("crawling site",
				"site", site,
				"index", i+1,
				"total", len(sites),
			)
			callback(b.crawler.Crawl(ctx, site), i)
			return nil
		})
	}

	err := g.Wait()

	b.logger.Info("site crawl complete",
		"total_sites", len(sites),
		"elapsed", time.Since(startTime),
	)
	return err
}
