package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/recipecrawl/internal/model"
)

// JSONWriter outputs the run summary as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONSummary is the document written by JSONWriter. Recipe bodies are
// left out; they live in the dataset file.
type JSONSummary struct {
	IndexURL     string            `json:"index_url"`
	StartedAt    string            `json:"started_at"`
	FinishedAt   string            `json:"finished_at,omitempty"`
	OutputPath   string            `json:"output_path,omitempty"`
	PagesFetched int               `json:"pages_fetched"`
	Records      int               `json:"records"`
	Recipes      int               `json:"recipes"`
	Sites        []JSONSite        `json:"sites"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// JSONSite is one site entry of a JSONSummary.
type JSONSite struct {
	Site         string `json:"site"`
	Records      int    `json:"records"`
	Skipped      int    `json:"skipped"`
	PagesFetched int    `json:"pages_fetched"`
	StopReason   string `json:"stop_reason"`
	Error        string `json:"error,omitempty"`
	DurationMS   int64  `json:"duration_ms"`
}

// NewJSONSummary builds the summary document of run.
func NewJSONSummary(run *model.RunReport) *JSONSummary {
	s := &JSONSummary{
		IndexURL:     run.IndexURL,
		StartedAt:    run.StartedAt.Format(timeLayout),
		OutputPath:   run.OutputPath,
		PagesFetched: run.TotalPages(),
		Records:      run.TotalRecords(),
		Recipes:      run.Dataset.Len(),
		Sites:        make([]JSONSite, 0, len(run.Results)),
		Errors:       run.StepErrors,
	}
	if !run.FinishedAt.IsZero() {
		s.FinishedAt = run.FinishedAt.Format(timeLayout)
	}
	for _, r := range run.Results {
		s.Sites = append(s.Sites, JSONSite{
			Site:         r.Site,
			Records:      len(r.Recipes),
			Skipped:      r.Skipped,
			PagesFetched: r.PagesFetched,
			StopReason:   string(r.StopReason),
			Error:        r.Error,
			DurationMS:   r.Duration.Milliseconds(),
		})
	}
	return s
}

// Write outputs the summary of run in JSON.
func (w *JSONWriter) Write(run *model.RunReport) (int, error) {
	var (
		data []byte
		err  error
	)
	summary := NewJSONSummary(run)
	if w.indent {
		data, err = json.MarshalIndent(summary, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(summary)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
