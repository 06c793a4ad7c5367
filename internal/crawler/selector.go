package crawler

import (
	"context"
	"log/slog"

	"github.com/nao1215/recipecrawl/internal/fetcher"
	"github.com/nao1215/recipecrawl/internal/model"
)

// Class tokens recognised on listing pages.
const (
	// RecipeTitleClass marks anchors of dedicated recipe index markup.
	RecipeTitleClass = "recipe-title"

	// PageClass marks anchors of generic pagers.
	PageClass = "page"
)

// LinkSelector is one strategy for locating recipe links on a listing page.
type LinkSelector interface {
	// Name identifies the strategy in logs.
	Name() string

	// Select returns the candidates found on page, in document order.
	// An empty result means the strategy found nothing.
	Select(ctx context.Context, page *fetcher.Page) ([]model.LinkCandidate, error)
}

// LinkLister enumerates every link of a page, as a site parser sees it.
type LinkLister interface {
	Links(ctx context.Context, pageURL string) ([]string, error)
}

// PageLinker lists the links of an already fetched page.
// A LinkLister implementing it is consulted without a second fetch.
type PageLinker interface {
	PageLinks(page *fetcher.Page) []string
}

// ClassSelector selects anchors whose class token set contains Class.
type ClassSelector struct {
	Class string
}

// Name implements LinkSelector.
func (s ClassSelector) Name() string {
	return "class:" + s.Class
}

// Select implements LinkSelector.
func (s ClassSelector) Select(_ context.Context, page *fetcher.Page) ([]model.LinkCandidate, error) {
	selected := make([]model.LinkCandidate, 0)
	for _, a := range page.Anchors() {
		if a.HasClass(s.Class) {
			selected = append(selected, a)
		}
	}
	return selected, nil
}

// DelegateSelector treats the page as a single recipe page and returns
// every link the site parser reports for it.
type DelegateSelector struct {
	Lister LinkLister
}

// Name implements LinkSelector.
func (s DelegateSelector) Name() string {
	return "site-parser"
}

// Select implements LinkSelector.
func (s DelegateSelector) Select(ctx context.Context, page *fetcher.Page) ([]model.LinkCandidate, error) {
	if s.Lister == nil {
		return nil, nil
	}
	var links []string
	if pl, ok := s.Lister.(PageLinker); ok {
		links = pl.PageLinks(page)
	} else {
		var err error
		if links, err = s.Lister.Links(ctx, page.URL); err != nil {
			return nil, err
		}
	}
	selected := make([]model.LinkCandidate, 0, len(links))
	for _, href := range links {
		if href != "" {
			selected = append(selected, model.LinkCandidate{Href: href})
		}
	}
	return selected, nil
}

// Heuristic tries its selectors in order; the first non-empty result wins.
type Heuristic struct {
	selectors []LinkSelector
	logger    *slog.Logger
}

// DefaultSelectors returns the three strategies in their fixed order:
// recipe-title anchors, pager anchors, then the site parser's own links.
func DefaultSelectors(lister LinkLister) []LinkSelector {
	return []LinkSelector{
		ClassSelector{Class: RecipeTitleClass},
		ClassSelector{Class: PageClass},
		DelegateSelector{Lister: lister},
	}
}

// NewHeuristic creates a Heuristic over the given selectors.
func NewHeuristic(logger *slog.Logger, selectors ...LinkSelector) *Heuristic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Heuristic{selectors: selectors, logger: logger}
}

// FindRecipeLinks returns the candidates of the first selector that finds
// any. A selector error counts as an empty result. An empty return value
// means the page has no recipes.
func (h *Heuristic) FindRecipeLinks(ctx context.Context, page *fetcher.Page) []model.LinkCandidate {
	for _, sel := range h.selectors {
		links, err := sel.Select(ctx, page)
		if err != nil {
			h.logger.Debug("link selector failed", "selector", sel.Name(), "url", page.URL, "error", err)
			continue
		}
		if len(links) > 0 {
			h.logger.Debug("recipe links found", "selector", sel.Name(), "url", page.URL, "count", len(links))
			return links
		}
	}
	return []model.LinkCandidate{}
}
