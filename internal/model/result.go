package model

import "time"

// SiteResult is the outcome of crawling one site.
type SiteResult struct {
	// Site is the site's base listing URL.
	Site string `json:"site"`

	// Recipes holds every record the site parser returned, in crawl order.
	// Incomplete records are kept here and filtered during aggregation.
	Recipes []Recipe `json:"recipes"`

	// PagesFetched is the number of listing pages fetched successfully.
	PagesFetched int `json:"pages_fetched"`

	// Skipped counts recipe links that failed or had no title.
	Skipped int `json:"skipped"`

	// StopReason describes why the traversal ended.
	StopReason StopReason `json:"stop_reason"`

	// Error holds the message of the error that ended the crawl, if any.
	Error string `json:"error,omitempty"`

	// Duration is the wall time spent on the site.
	Duration time.Duration `json:"duration"`
}

// StopReason names the transition that moved a crawl loop to DONE.
type StopReason string

const (
	// StopFetchFailed means a listing page could not be fetched or parsed.
	StopFetchFailed StopReason = "fetch_failed"
	// StopEmptyPage means a listing page yielded zero recipes.
	StopEmptyPage StopReason = "empty_page"
	// StopNoNextPage means the next-page resolver found no successor.
	StopNoNextPage StopReason = "no_next_page"
	// StopPageLimit means the page counter reached its cap.
	StopPageLimit StopReason = "page_limit"
	// StopCancelled means the run context was cancelled.
	StopCancelled StopReason = "cancelled"
)

// RunReport accumulates the state of one catalog, crawl, aggregate and
// persist run. Pipeline steps read and extend it in order.
type RunReport struct {
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is set by the last pipeline step.
	FinishedAt time.Time `json:"finished_at"`

	// IndexURL is the catalog index page used to discover sites.
	IndexURL string `json:"index_url"`

	// Sites is the ordered list of sites to crawl.
	Sites []string `json:"sites"`

	// Results holds one entry per site, in the same order as Sites.
	Results []SiteResult `json:"results"`

	// Dataset is the aggregated output.
	Dataset Dataset `json:"dataset"`

	// OutputPath is where the dataset was written.
	OutputPath string `json:"output_path,omitempty"`

	// StepErrors records non-fatal step failures by step name.
	StepErrors map[string]string `json:"step_errors,omitempty"`
}

// NewRunReport creates a report for a run starting now.
func NewRunReport(indexURL string) *RunReport {
	return &RunReport{
		StartedAt:  time.Now(),
		IndexURL:   indexURL,
		Sites:      make([]string, 0),
		Results:    make([]SiteResult, 0),
		StepErrors: make(map[string]string),
	}
}

// TotalRecords returns the number of raw records across all sites.
func (r *RunReport) TotalRecords() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.Recipes)
	}
	return n
}

// TotalPages returns the number of listing pages fetched across all sites.
func (r *RunReport) TotalPages() int {
	n := 0
	for _, res := range r.Results {
		n += res.PagesFetched
	}
	return n
}

// RecordStepError stores a step failure without aborting the run.
func (r *RunReport) RecordStepError(step string, err error) {
	if r.StepErrors == nil {
		r.StepErrors = make(map[string]string)
	}
	r.StepErrors[step] = err.Error()
}

// Finish records the end of the run. Later calls keep the first time.
func (r *RunReport) Finish() {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
}
