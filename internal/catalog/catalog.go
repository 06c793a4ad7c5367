// Package catalog discovers the recipe sites to crawl from an external
// index page.
package catalog

import (
	"context"
	"log/slog"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/recipecrawl/internal/fetcher"
)

// DefaultExclusions are hosts that appear on package index pages but are
// not recipe sites: the index itself, code hosting, download metrics and
// the language runtime. Subdomains are excluded too.
var DefaultExclusions = []string{
	"pypi.org",
	"pythonhosted.org",
	"github.com",
	"githubusercontent.com",
	"github.io",
	"pepy.tech",
	"python.org",
}

// PageFetcher fetches one parsed page.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error)
}

// Catalog lists candidate sites from an index page.
type Catalog struct {
	fetcher    PageFetcher
	indexURL   string
	exclusions []string
	logger     *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithExclusions adds hosts to the exclusion list.
func WithExclusions(hosts ...string) Option {
	return func(c *Catalog) {
		for _, h := range hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h != "" {
				c.exclusions = append(c.exclusions, h)
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// New creates a Catalog reading indexURL through f.
func New(f PageFetcher, indexURL string, opts ...Option) *Catalog {
	c := &Catalog{
		fetcher:    f,
		indexURL:   indexURL,
		exclusions: slices.Clone(DefaultExclusions),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IndexURL returns the index page URL.
func (c *Catalog) IndexURL() string {
	return c.indexURL
}

// ListCandidateSites fetches the index and returns the https targets of its
// nofollow links, in document order and without repeats. Links to excluded
// hosts and to the index's own host are dropped. An unreachable index
// yields an empty slice; the caller decides whether that is fatal.
func (c *Catalog) ListCandidateSites(ctx context.Context) []string {
	page, err := c.fetcher.Fetch(ctx, c.indexURL)
	if err != nil {
		c.logger.Warn("catalog index unreachable", "url", c.indexURL, "error", err)
		return []string{}
	}

	sites := c.Select(page)
	c.logger.Info("catalog loaded", "url", c.indexURL, "sites", len(sites))
	return sites
}

// Select applies the catalog rules to an already fetched index page.
func (c *Catalog) Select(page *fetcher.Page) []string {
	indexHost := ""
	if u, err := url.Parse(c.indexURL); err == nil {
		indexHost = strings.ToLower(u.Hostname())
	}

	sites := make([]string, 0)
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if site, ok := c.qualify(n, indexHost); ok && !seen[site] {
				seen[site] = true
				sites = append(sites, site)
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(page.Root)

	return sites
}

// qualify reports whether anchor n is a candidate site link and returns its URL.
func (c *Catalog) qualify(n *html.Node, indexHost string) (string, bool) {
	rel, _ := fetcher.Attr(n, "rel")
	if !slices.Contains(strings.Fields(strings.ToLower(rel)), "nofollow") {
		return "", false
	}

	href, _ := fetcher.Attr(n, "href")
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || !strings.EqualFold(u.Scheme, "https") || u.Host == "" {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	if indexHost != "" && matchesHost(host, indexHost) {
		return "", false
	}
	for _, excluded := range c.exclusions {
		if matchesHost(host, excluded) {
			return "", false
		}
	}

	return u.String(), true
}

// matchesHost reports whether host is domain or one of its subdomains.
func matchesHost(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
