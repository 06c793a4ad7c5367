package model

import "testing"

// TestRecipeIsComplete tests the completeness rule applied before aggregation.
func TestRecipeIsComplete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		recipe *Recipe
		want   bool
	}{
		{
			name:   "all fields populated",
			recipe: &Recipe{Title: "Pancakes", Ingredients: []string{"flour"}, Instructions: "Mix."},
			want:   true,
		},
		{
			name:   "empty title",
			recipe: &Recipe{Title: "", Ingredients: []string{"flour"}, Instructions: "Mix."},
			want:   false,
		},
		{
			name:   "none sentinel title",
			recipe: &Recipe{Title: "None", Ingredients: []string{"flour"}, Instructions: "Mix."},
			want:   false,
		},
		{
			name:   "whitespace title",
			recipe: &Recipe{Title: "   ", Ingredients: []string{"flour"}, Instructions: "Mix."},
			want:   false,
		},
		{
			name:   "no ingredients",
			recipe: &Recipe{Title: "Pancakes", Instructions: "Mix."},
			want:   false,
		},
		{
			name:   "blank instructions",
			recipe: &Recipe{Title: "Pancakes", Ingredients: []string{"flour"}, Instructions: " \n"},
			want:   false,
		},
		{
			name:   "nil recipe",
			recipe: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.recipe.IsComplete(); got != tt.want {
				t.Errorf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCrawlTargetAdvance tests page counter handling.
func TestCrawlTargetAdvance(t *testing.T) {
	t.Parallel()

	target := NewCrawlTarget("https://example.com/recipes/")
	if target.CurrentPage != FirstPage {
		t.Fatalf("expected page %d, got %d", FirstPage, target.CurrentPage)
	}
	if target.PageURL != target.BaseURL {
		t.Errorf("expected page URL to equal base URL, got %q", target.PageURL)
	}

	target.Advance("https://example.com/recipes/page/2/")
	if target.CurrentPage != 2 {
		t.Errorf("expected page 2, got %d", target.CurrentPage)
	}
	if target.PageURL != "https://example.com/recipes/page/2/" {
		t.Errorf("unexpected page URL %q", target.PageURL)
	}
	if target.BaseURL != "https://example.com/recipes/" {
		t.Errorf("base URL changed to %q", target.BaseURL)
	}
}

// TestLinkCandidateHasClass tests exact class token matching.
func TestLinkCandidateHasClass(t *testing.T) {
	t.Parallel()

	link := LinkCandidate{Href: "/a", Classes: []string{"card", "recipe-title-link"}}
	if link.HasClass("recipe-title") {
		t.Error("expected partial token not to match")
	}
	if !link.HasClass("card") {
		t.Error("expected card class to match")
	}
}
