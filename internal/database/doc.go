// Package database provides SQLite-based crawl history for recipecrawl.
//
// CrawlDB stores one row per run and one row per site crawled in that run,
// so repeated runs can be compared without re-reading old datasets. Recipe
// records themselves are not stored; the CSV dataset is the only record
// sink. The driver is modernc.org/sqlite, which needs no cgo.
package database
