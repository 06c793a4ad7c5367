package model

// FirstPage is the page number of a site's base listing page.
const FirstPage = 1

// CrawlTarget is the traversal state of one site.
// A CrawlTarget is owned by exactly one crawl loop and is discarded when
// the site's traversal ends, so no counters are shared between sites.
type CrawlTarget struct {
	// BaseURL is the site's listing URL as returned by the catalog.
	BaseURL string

	// CurrentPage is the 1-based number of the listing page being processed.
	CurrentPage int

	// PageURL is the URL of the listing page being processed.
	PageURL string

	// PagesFetched counts listing pages that were fetched successfully.
	PagesFetched int
}

// NewCrawlTarget returns a target positioned on page 1, which is the base URL.
func NewCrawlTarget(baseURL string) *CrawlTarget {
	return &CrawlTarget{
		BaseURL:     baseURL,
		CurrentPage: FirstPage,
		PageURL:     baseURL,
	}
}

// Advance moves the target to the given listing page URL and increments
// the page counter.
func (t *CrawlTarget) Advance(nextURL string) {
	t.CurrentPage++
	t.PageURL = nextURL
}
