// Package aggregate merges per-site crawl results into the run's dataset.
package aggregate

import (
	"github.com/nao1215/recipecrawl/internal/model"
)

// Aggregate concatenates the records of results in crawl order, drops
// incomplete records and keeps the first record of each exact title.
// Aggregating a dataset's own records again yields the same dataset.
func Aggregate(results []model.SiteResult) model.Dataset {
	total := 0
	for _, r := range results {
		total += len(r.Recipes)
	}

	records := make([]model.Recipe, 0, total)
	for _, r := range results {
		records = append(records, r.Recipes...)
	}
	return Dedup(records)
}

// Dedup filters records to complete ones with unique titles, first wins.
func Dedup(records []model.Recipe) model.Dataset {
	seen := make(map[string]struct{}, len(records))
	kept := make([]model.Recipe, 0, len(records))

	for i := range records {
		rec := &records[i]
		if !rec.IsComplete() {
			continue
		}
		if _, dup := seen[rec.Title]; dup {
			continue
		}
		seen[rec.Title] = struct{}{}
		kept = append(kept, *rec)
	}

	return model.Dataset{Recipes: kept}
}
