package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/recipecrawl/internal/model"
)

// fakeSiteCrawler returns one recipe per site and tracks concurrency.
type fakeSiteCrawler struct {
	delay   time.Duration
	active  atomic.Int32
	maxSeen atomic.Int32
	mu      sync.Mutex
	visited []string
}

func (f *fakeSiteCrawler) Crawl(ctx context.Context, site string) model.SiteResult {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		old := f.maxSeen.Load()
		if n <= old || f.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}

	f.mu.Lock()
	f.visited = append(f.visited, site)
	f.mu.Unlock()

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
	}

	return model.SiteResult{
		Site: site,
		Recipes: []model.Recipe{
			{Title: "Dish from " + site, Ingredients: []string{"salt"}, Instructions: "Cook.", SourceURL: site + "dish"},
		},
		PagesFetched: 1,
		StopReason:   model.StopNoNextPage,
	}
}

func TestNewBatchCrawler(t *testing.T) {
	t.Parallel()

	t.Run("defaults to sequential crawling", func(t *testing.T) {
		t.Parallel()

		if b := NewBatchCrawler(&fakeSiteCrawler{}); b.concurrency != DefaultConcurrency {
			t.Errorf("concurrency = %d, want %d", b.concurrency, DefaultConcurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		if b := NewBatchCrawler(&fakeSiteCrawler{}, WithConcurrency(0)); b.concurrency != DefaultConcurrency {
			t.Errorf("concurrency = %d", b.concurrency)
		}
	})
}

func TestBatchCrawler_CrawlAll(t *testing.T) {
	t.Parallel()

	sites := []string{"https://a.test/", "https://b.test/", "https://c.test/", "https://d.test/"}

	t.Run("sequential crawl visits sites in order", func(t *testing.T) {
		t.Parallel()

		fc := &fakeSiteCrawler{}
		results := NewBatchCrawler(fc, WithBatchLogger(quietLogger())).CrawlAll(context.Background(), sites)

		if len(results) != len(sites) {
			t.Fatalf("results = %d, want %d", len(results), len(sites))
		}
		for i, site := range sites {
			if fc.visited[i] != site {
				t.Errorf("visited[%d] = %q, want %q", i, fc.visited[i], site)
			}
		}
		if fc.maxSeen.Load() != 1 {
			t.Errorf("max concurrent crawls = %d, want 1", fc.maxSeen.Load())
		}
	})

	t.Run("concurrent crawl keeps catalog order", func(t *testing.T) {
		t.Parallel()

		fc := &fakeSiteCrawler{delay: 20 * time.Millisecond}
		results := NewBatchCrawler(fc, WithConcurrency(2), WithBatchLogger(quietLogger())).CrawlAll(context.Background(), sites)

		for i, site := range sites {
			if results[i].Site != site {
				t.Errorf("results[%d].Site = %q, want %q", i, results[i].Site, site)
			}
		}
		if fc.maxSeen.Load() > 2 {
			t.Errorf("max concurrent crawls = %d, want <= 2", fc.maxSeen.Load())
		}
	})

	t.Run("cancelled before start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fc := &fakeSiteCrawler{}
		results := NewBatchCrawler(fc, WithBatchLogger(quietLogger())).CrawlAll(ctx, sites)

		if len(fc.visited) != 0 {
			t.Errorf("visited = %v, want none", fc.visited)
		}
		for i, r := range results {
			if r.StopReason != model.StopCancelled || r.Site != sites[i] {
				t.Errorf("results[%d] = %+v", i, r)
			}
		}
	})
}
