package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/recipecrawl/internal/fetcher"
	"github.com/nao1215/recipecrawl/internal/model"
)

const (
	// DefaultDelay is the pause between consecutive extraction attempts.
	DefaultDelay = time.Second

	// DefaultMaxPages caps the number of listing pages processed per site.
	DefaultMaxPages = 100
)

// PageFetcher retrieves and parses a listing page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error)
}

// Extractor turns a recipe page URL into a record.
// A nil record with a nil error means the page is not a recipe.
type Extractor interface {
	Extract(ctx context.Context, pageURL string) (*model.Recipe, error)
}

// State is a crawl loop state.
type State int

const (
	// StateStart is the initial state of a site.
	StateStart State = iota
	// StateFetchPage fetches the current listing page.
	StateFetchPage
	// StateExtract extracts every recipe linked from the current page.
	StateExtract
	// StateAdvance decides whether and where to continue.
	StateAdvance
	// StateDone is terminal.
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateFetchPage:
		return "FETCH_PAGE"
	case StateExtract:
		return "EXTRACT"
	case StateAdvance:
		return "ADVANCE"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Loop drives the traversal of one site at a time.
// A Loop holds no per-site state and may be shared by concurrent crawls.
type Loop struct {
	fetcher   PageFetcher
	extractor Extractor
	selectors []LinkSelector
	heuristic *Heuristic
	resolver  *Resolver
	delay     time.Duration
	maxPages  int
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithDelay sets the pause between extraction attempts.
func WithDelay(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d >= 0 {
			l.delay = d
		}
	}
}

// WithMaxPages lowers the listing page cap. Values outside
// 1..DefaultMaxPages are clamped into that range.
func WithMaxPages(n int) LoopOption {
	return func(l *Loop) {
		l.maxPages = min(max(n, 1), DefaultMaxPages)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithSelectors replaces the default link selection strategies.
func WithSelectors(selectors ...LinkSelector) LoopOption {
	return func(l *Loop) {
		if len(selectors) > 0 {
			l.selectors = selectors
		}
	}
}

// NewLoop creates a crawl loop. The extractor validates recipe pages and
// the lister supplies the last-resort link strategy.
func NewLoop(f PageFetcher, extractor Extractor, lister LinkLister, opts ...LoopOption) *Loop {
	l := &Loop{
		fetcher:   f,
		extractor: extractor,
		resolver:  NewResolver(f),
		delay:     DefaultDelay,
		maxPages:  DefaultMaxPages,
		logger:    slog.Default(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	if len(l.selectors) == 0 {
		l.selectors = DefaultSelectors(lister)
	}
	l.heuristic = NewHeuristic(l.logger, l.selectors...)
	return l
}

// Crawl traverses the listing pages of the site at baseURL and returns the
// records it found. Crawl never fails: fetch, parse, resolution and
// extraction errors end the traversal or skip a link, and cancellation of
// ctx ends it with the records gathered so far.
func (l *Loop) Crawl(ctx context.Context, baseURL string) model.SiteResult {
	start := time.Now()
	logger := l.logger.With("site", baseURL)

	result := model.SiteResult{
		Site:    baseURL,
		Recipes: make([]model.Recipe, 0),
	}

	var (
		target   *model.CrawlTarget
		page     *fetcher.Page
		found    int
		attempts int
	)

	state := StateStart
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			result.StopReason = model.StopCancelled
			break
		}

		switch state {
		case StateStart:
			target = model.NewCrawlTarget(baseURL)
			state = StateFetchPage

		case StateFetchPage:
			p, err := l.fetcher.Fetch(ctx, target.PageURL)
			if err != nil {
				if ctx.Err() != nil {
					result.StopReason = model.StopCancelled
				} else {
					logger.Warn("listing page fetch failed", "page", target.CurrentPage, "url", target.PageURL,
						"kind", errorKind(err, model.KindTransport).String(), "error", err)
					result.StopReason = model.StopFetchFailed
					result.Error = err.Error()
				}
				state = StateDone
				continue
			}
			target.PagesFetched++
			page = p
			state = StateExtract

		case StateExtract:
			links := l.heuristic.FindRecipeLinks(ctx, page)
			found = 0
			for _, link := range links {
				if ctx.Err() != nil {
					break
				}
				recipeURL := page.Resolve(link.Href)
				if recipeURL == "" {
					result.Skipped++
					continue
				}
				if attempts > 0 {
					if err := l.sleep(ctx, l.delay); err != nil {
						break
					}
				}
				attempts++

				recipe, err := l.extract(ctx, recipeURL)
				if err != nil {
					logger.Debug("recipe skipped", "url", recipeURL,
						"kind", errorKind(err, model.KindExtraction).String(), "error", err)
					result.Skipped++
					continue
				}
				if recipe == nil || !model.HasTitle(recipe.Title) {
					result.Skipped++
					continue
				}
				if recipe.SourceURL == "" {
					recipe.SourceURL = recipeURL
				}
				result.Recipes = append(result.Recipes, *recipe)
				found++
			}
			logger.Info("listing page processed", "page", target.CurrentPage, "links", len(links), "recipes", found)
			state = StateAdvance

		case StateAdvance:
			switch {
			case found == 0:
				result.StopReason = model.StopEmptyPage
				state = StateDone
			case target.CurrentPage >= l.maxPages:
				result.StopReason = model.StopPageLimit
				state = StateDone
			default:
				next, err := l.resolver.ResolveFromPage(page, target.CurrentPage+1)
				if err != nil {
					logger.Debug("no next page", "page", target.CurrentPage, "error", err)
					result.StopReason = model.StopNoNextPage
					state = StateDone
					continue
				}
				target.Advance(next)
				state = StateFetchPage
			}
		}
	}

	if target != nil {
		result.PagesFetched = target.PagesFetched
	}
	result.Duration = time.Since(start)

	logger.Info("site crawl finished",
		"pages", result.PagesFetched,
		"recipes", len(result.Recipes),
		"skipped", result.Skipped,
		"stop", result.StopReason,
	)
	return result
}

// extract calls the extractor, converting a panic raised while parsing a
// third-party page into an extraction error.
func (l *Loop) extract(ctx context.Context, recipeURL string) (recipe *model.Recipe, err error) {
	defer func() {
		if r := recover(); r != nil {
			recipe = nil
			err = model.NewCrawlError(model.KindExtraction, recipeURL, fmt.Errorf("parser panic: %v", r))
		}
	}()

	recipe, err = l.extractor.Extract(ctx, recipeURL)
	if err != nil {
		var ce *model.CrawlError
		if !errors.As(err, &ce) {
			err = model.NewCrawlError(model.KindExtraction, recipeURL, err)
		}
		return nil, err
	}
	return recipe, nil
}

// errorKind returns the CrawlError kind of err, or fallback for other errors.
func errorKind(err error, fallback model.ErrorKind) model.ErrorKind {
	if kind, ok := model.KindOf(err); ok {
		return kind
	}
	return fallback
}

// sleepContext waits for d or until ctx is done.
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
