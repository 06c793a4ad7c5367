package model

import "strings"

// noneTitle is the placeholder some site parsers emit when a page has
// no discernible title.
const noneTitle = "none"

// Recipe is a single recipe extracted from one recipe page.
// It is created by a site parser and is not modified afterwards.
type Recipe struct {
	// Title is the recipe name as shown on the page.
	Title string `json:"title"`

	// Ingredients holds the ingredient lines in page order.
	Ingredients []string `json:"ingredients"`

	// Instructions is the preparation text. Multiple steps are joined
	// with newlines.
	Instructions string `json:"instructions"`

	// SourceURL is the absolute URL the recipe was extracted from.
	SourceURL string `json:"url"`
}

// IsComplete reports whether the recipe has a real title, at least one
// ingredient and non-empty instructions. Only complete recipes are
// written to the dataset.
func (r *Recipe) IsComplete() bool {
	if r == nil {
		return false
	}
	if !HasTitle(r.Title) {
		return false
	}
	if len(r.Ingredients) == 0 {
		return false
	}
	return strings.TrimSpace(r.Instructions) != ""
}

// HasTitle reports whether title is non-empty and not the "none" sentinel.
func HasTitle(title string) bool {
	t := strings.TrimSpace(title)
	return t != "" && !strings.EqualFold(t, noneTitle)
}
