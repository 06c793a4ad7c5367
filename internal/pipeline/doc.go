// Package pipeline runs a crawl as an ordered sequence of steps.
//
// A run is catalog, crawl, aggregate, persist, summary and history. Each
// step receives the shared RunReport and extends it. Steps that implement
// Finalizer still run after the run's context is cancelled, so an
// interrupted crawl writes the records gathered so far.
//
// Sites are crawled through BatchCrawler, which bounds concurrency with
// errgroup and keeps results in catalog order.
package pipeline
