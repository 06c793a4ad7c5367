package fetcher

import (
	"bytes"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/recipecrawl/internal/model"
)

// Page is a fetched and parsed HTML document.
type Page struct {
	// URL is the URL that was requested.
	URL string

	// FinalURL is the URL after redirects.
	FinalURL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// Root is the parsed document tree.
	Root *html.Node

	base *url.URL
}

// newPage wraps a parsed tree. Relative links resolve against finalURL.
func newPage(requestURL, finalURL string, status int, root *html.Node) (*Page, error) {
	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, model.NewCrawlError(model.KindParse, requestURL, err)
	}
	return &Page{
		URL:        requestURL,
		FinalURL:   finalURL,
		StatusCode: status,
		Root:       root,
		base:       base,
	}, nil
}

// ParseHTML builds a Page from markup without any network access.
// It is used for documents obtained elsewhere and by tests.
func ParseHTML(pageURL, markup string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, model.NewCrawlError(model.KindParse, pageURL, err)
	}
	return newPage(pageURL, pageURL, 200, root)
}

// Anchors returns every <a> element carrying an href, in document order.
func (p *Page) Anchors() []model.LinkCandidate {
	anchors := make([]model.LinkCandidate, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := Attr(n, "href"); ok && strings.TrimSpace(href) != "" {
				classes, _ := Attr(n, "class")
				anchors = append(anchors, model.LinkCandidate{
					Href:    strings.TrimSpace(href),
					Classes: strings.Fields(classes),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(p.Root)

	return anchors
}

// Markup renders the document tree back to HTML.
func (p *Page) Markup() string {
	var buf bytes.Buffer
	if err := html.Render(&buf, p.Root); err != nil {
		return ""
	}
	return buf.String()
}

// Fragments returns the rendered markup split on element boundaries.
// Each fragment starts just after a '<', so "a href=\"/x\">Next" is one
// fragment of `<a href="/x">Next</a>`.
func (p *Page) Fragments() []string {
	parts := strings.Split(p.Markup(), "<")
	fragments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			fragments = append(fragments, part)
		}
	}
	return fragments
}

// Resolve returns href resolved against the page URL.
// It returns an empty string for hrefs that cannot be followed.
func (p *Page) Resolve(href string) string {
	return ResolveReference(p.base, href)
}

// ResolveReference resolves href against base, skipping script, mail,
// telephone, data and bare-fragment references.
func ResolveReference(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}
	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// Attr retrieves an attribute value from an HTML node.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
