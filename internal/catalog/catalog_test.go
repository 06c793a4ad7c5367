package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/nao1215/recipecrawl/internal/fetcher"
	"github.com/nao1215/recipecrawl/internal/log"
	"github.com/nao1215/recipecrawl/internal/model"
)

// fakeFetcher serves fixed markup or an error.
type fakeFetcher struct {
	markup string
	err    error
	calls  int
}

// Fetch implements PageFetcher.
func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*fetcher.Page, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return fetcher.ParseHTML(pageURL, f.markup)
}

const indexURL = "https://pypi.org/project/recipe-scrapers-ap-fork/"

// TestListCandidateSites tests catalog selection rules.
func TestListCandidateSites(t *testing.T) {
	t.Parallel()

	t.Run("keeps external https nofollow links in order", func(t *testing.T) {
		t.Parallel()

		f := &fakeFetcher{markup: `<html><body><ul>
			<li><a href="https://www.allrecipes.com/" rel="nofollow">allrecipes</a></li>
			<li><a href="https://pypi.org/project/other/" rel="nofollow">self</a></li>
			<li><a href="https://www.bbcgoodfood.com/" rel="nofollow">bbc</a></li>
			<li><a href="https://cookieandkate.com/" rel="noopener nofollow">kate</a></li>
		</ul></body></html>`}

		got := New(f, indexURL, WithLogger(log.Discard())).ListCandidateSites(context.Background())
		want := []string{
			"https://www.allrecipes.com/",
			"https://www.bbcgoodfood.com/",
			"https://cookieandkate.com/",
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("drops excluded hosts, insecure and followed links", func(t *testing.T) {
		t.Parallel()

		f := &fakeFetcher{markup: `<html><body>
			<a href="https://github.com/hhursev/recipe-scrapers" rel="nofollow">code</a>
			<a href="https://raw.githubusercontent.com/x" rel="nofollow">raw</a>
			<a href="https://static.pepy.tech/badge" rel="nofollow">badge</a>
			<a href="https://docs.python.org/3/" rel="nofollow">python</a>
			<a href="http://insecure-recipes.com/" rel="nofollow">http</a>
			<a href="https://followed-recipes.com/">followed</a>
			<a href="https://ads.example.net/" rel="nofollow">ads</a>
			<a href="https://www.seriouseats.com/" rel="nofollow">ok</a>
		</body></html>`}

		got := New(f, indexURL, WithExclusions("example.net"), WithLogger(log.Discard())).
			ListCandidateSites(context.Background())
		want := []string{"https://www.seriouseats.com/"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("repeated links are listed once", func(t *testing.T) {
		t.Parallel()

		f := &fakeFetcher{markup: `<html><body>
			<a href="https://a-recipes.com/" rel="nofollow">a</a>
			<a href="https://b-recipes.com/" rel="nofollow">b</a>
			<a href="https://a-recipes.com/" rel="nofollow">a again</a>
		</body></html>`}

		got := New(f, indexURL, WithLogger(log.Discard())).ListCandidateSites(context.Background())
		want := []string{"https://a-recipes.com/", "https://b-recipes.com/"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("unreachable index yields empty slice", func(t *testing.T) {
		t.Parallel()

		f := &fakeFetcher{err: model.NewCrawlError(model.KindTransport, indexURL, errors.New("dns"))}

		got := New(f, indexURL, WithLogger(log.Discard())).ListCandidateSites(context.Background())
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
		if f.calls != 1 {
			t.Errorf("expected one fetch, got %d", f.calls)
		}
	})

	t.Run("no qualifying links yields empty slice", func(t *testing.T) {
		t.Parallel()

		f := &fakeFetcher{markup: `<html><body><a href="/local">x</a></body></html>`}

		got := New(f, indexURL, WithLogger(log.Discard())).ListCandidateSites(context.Background())
		if len(got) != 0 {
			t.Errorf("expected no sites, got %v", got)
		}
	})
}

// TestMatchesHost tests domain and subdomain matching.
func TestMatchesHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host, domain string
		want         bool
	}{
		{"github.com", "github.com", true},
		{"gist.github.com", "github.com", true},
		{"notgithub.com", "github.com", false},
		{"github.com.evil.io", "github.com", false},
	}
	for _, tt := range tests {
		if got := matchesHost(tt.host, tt.domain); got != tt.want {
			t.Errorf("matchesHost(%q, %q) = %v, want %v", tt.host, tt.domain, got, tt.want)
		}
	}
}
