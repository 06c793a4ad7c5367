// Package crawler walks the listing pages of one recipe site and collects
// the recipes linked from them.
//
// # Components
//
//   - Heuristic: finds recipe links on a listing page by trying a fixed
//     sequence of LinkSelector strategies
//   - Resolver: locates the URL of listing page N+1 in the markup of page N
//   - Loop: the per-site state machine driving fetch, extract and advance
//
// # Termination
//
// A site's traversal ends when a listing page cannot be fetched, yields no
// recipes, has no resolvable successor, or when the page counter reaches
// its cap (100 by default). Every failure is turned into one of these
// stops; none is returned to the caller.
//
// # Politeness
//
// Links are extracted one at a time, in document order, with a fixed delay
// between consecutive extraction attempts.
//
// # Usage
//
//	loop := crawler.NewLoop(fetcher, parser, parser, crawler.WithDelay(time.Second))
//	result := loop.Crawl(ctx, "https://example.com/recipes/")
package crawler
