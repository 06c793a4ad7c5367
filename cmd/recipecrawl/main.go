// Package main provides the entry point for the recipecrawl CLI.
//
// recipecrawl discovers recipe websites from a package index page, crawls
// their paginated recipe listings and writes every complete recipe to a
// CSV dataset.
//
// Usage:
//
//	recipecrawl
//	recipecrawl --output data/recipes.csv --summary data/summary.md
//	recipecrawl history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
