package model

import "slices"

// LinkCandidate is an anchor found on a listing page.
// Candidates are produced per fetch and never persisted.
type LinkCandidate struct {
	// Href is the raw href attribute, possibly relative.
	Href string

	// Classes holds the anchor's class tokens in attribute order.
	Classes []string
}

// HasClass reports whether the anchor carries the given class token.
// The comparison is exact; "recipe-title-link" does not match "recipe-title".
func (l LinkCandidate) HasClass(class string) bool {
	return slices.Contains(l.Classes, class)
}
