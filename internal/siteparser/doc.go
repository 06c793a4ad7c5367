// Package siteparser extracts recipe records from individual recipe pages.
//
// Parser reads schema.org Recipe data, first from JSON-LD script blocks
// (including @graph containers and top-level arrays) and then from
// microdata itemprop attributes. Pages carrying neither are not recipes.
// It also lists the links of a page for crawls of sites whose listing
// markup carries no recognisable classes.
package siteparser
