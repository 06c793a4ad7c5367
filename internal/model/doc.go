// Package model defines the data structures shared by the recipe crawler.
//
// This package contains the following main types:
//   - Recipe: one record produced by a site parser
//   - CrawlTarget: per-site traversal state owned by a crawl loop
//   - LinkCandidate: an anchor found on a listing page
//   - Dataset: the deduplicated output of a run
//   - SiteResult and RunReport: per-site and per-run outcomes
//   - CrawlError: the error kinds every component reports
//
// Models live in their own package so that catalog, crawler, aggregate,
// report and database can share them without import cycles.
package model
