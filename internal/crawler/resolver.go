package crawler

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"

	"github.com/nao1215/recipecrawl/internal/fetcher"
	"github.com/nao1215/recipecrawl/internal/model"
)

var (
	// pageTokenRegex matches pager markup such as "page/3" or "Page 3".
	pageTokenRegex = regexp.MustCompile(`(?i)page.?\d+`)

	// nextTokenRegex is the fallback for pagers labelled "next".
	nextTokenRegex = regexp.MustCompile(`(?i)next.?\d+`)

	// hrefRegex extracts a double-quoted href attribute from a fragment.
	hrefRegex = regexp.MustCompile(`href="([^"]*)"`)

	// digitsRegex finds a run of digits.
	digitsRegex = regexp.MustCompile(`\d+`)
)

// ErrNoNextPage is returned, wrapped, when a listing page links no successor.
var ErrNoNextPage = model.ErrResolution

// Resolver finds the URL of a given listing page number.
type Resolver struct {
	fetcher PageFetcher
}

// NewResolver creates a Resolver. The fetcher is only used by ResolveNext.
func NewResolver(f PageFetcher) *Resolver {
	return &Resolver{fetcher: f}
}

// ResolveNext fetches the listing page at baseURL and resolves the URL of
// page target from its markup. It returns a KindResolution error when no
// candidate matches and the fetch error when the page cannot be read.
func (r *Resolver) ResolveNext(ctx context.Context, baseURL string, target int) (string, error) {
	page, err := r.fetcher.Fetch(ctx, baseURL)
	if err != nil {
		return "", err
	}
	return r.ResolveFromPage(page, target)
}

// ResolveFromPage resolves the URL of page target from an already fetched
// listing page. Fragments of the rendered markup mentioning "page" followed
// by digits are examined first; "next" followed by digits is the fallback.
// The first fragment, in document order, whose href carries target as its
// first number wins, and its href is resolved against the page URL.
func (r *Resolver) ResolveFromPage(page *fetcher.Page, target int) (string, error) {
	fragments := page.Fragments()

	candidates := matchingFragments(fragments, pageTokenRegex)
	if len(candidates) == 0 {
		candidates = matchingFragments(fragments, nextTokenRegex)
	}

	for _, fragment := range candidates {
		m := hrefRegex.FindStringSubmatch(fragment)
		if m == nil {
			continue
		}
		href := html.UnescapeString(m[1])

		n, ok := firstNumber(href)
		if !ok || n != target {
			continue
		}
		if resolved := page.Resolve(href); resolved != "" {
			return resolved, nil
		}
	}

	return "", model.NewCrawlError(model.KindResolution, page.URL, fmt.Errorf("page %d not linked", target))
}

// matchingFragments returns the fragments matching re, in order.
func matchingFragments(fragments []string, re *regexp.Regexp) []string {
	matched := make([]string, 0)
	for _, f := range fragments {
		if re.MatchString(f) {
			matched = append(matched, f)
		}
	}
	return matched
}

// firstNumber returns the first run of digits in href's path, query and
// fragment. Digits in the scheme and host, as in "food52.com", are ignored.
func firstNumber(href string) (int, bool) {
	subject := href
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		subject = u.EscapedPath()
		if u.RawQuery != "" {
			subject += "?" + u.RawQuery
		}
		if u.Fragment != "" {
			subject += "#" + u.Fragment
		}
	}

	digits := digitsRegex.FindString(subject)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
