// Package fetcher performs the single HTTP GET and HTML parse behind every
// page the crawler reads.
//
// Each Fetch is a fresh round trip: there is no retry and no cache. Every
// failure is returned as a *model.CrawlError of kind Transport or Parse,
// carrying the URL and the cause, and never escapes as a panic.
//
// # Usage
//
//	f := fetcher.New(client, fetcher.WithUserAgent("recipecrawl/1.0"))
//	page, err := f.Fetch(ctx, "https://example.com/recipes/")
//	if err != nil {
//	    // skip this page
//	}
//	for _, a := range page.Anchors() { ... }
package fetcher
