package model

// Dataset is the final, ordered recipe collection of one run.
// No two recipes share a title and every recipe is complete.
type Dataset struct {
	Recipes []Recipe `json:"recipes"`
}

// Len returns the number of recipes in the dataset.
func (d Dataset) Len() int {
	return len(d.Recipes)
}

