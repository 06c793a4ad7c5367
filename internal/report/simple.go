package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/recipecrawl/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs a human-readable text summary.
type SimpleWriter struct {
	baseWriter

	// verbose lists sites that produced no records.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose includes every site, not only the productive ones.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in plain text.
func (w *SimpleWriter) Write(run *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeSites(&sb, run)
	w.writeErrors(&sb, run)

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.RunReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                        RECIPE CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Index:          %s\n", run.IndexURL)
	fmt.Fprintf(sb, "Started:        %s\n", run.StartedAt.Format(timeLayout))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(sb, "Duration:       %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(sb, "Sites:          %d\n", len(run.Sites))
	fmt.Fprintf(sb, "Pages fetched:  %d\n", run.TotalPages())
	fmt.Fprintf(sb, "Records found:  %d\n", run.TotalRecords())
	fmt.Fprintf(sb, "Recipes kept:   %d\n", run.Dataset.Len())
	if run.OutputPath != "" {
		fmt.Fprintf(sb, "Output:         %s\n", run.OutputPath)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSites(sb *strings.Builder, run *model.RunReport) {
	if len(run.Results) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nSITES\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	for _, r := range run.Results {
		if len(r.Recipes) == 0 && !w.verbose {
			continue
		}
		fmt.Fprintf(sb, "  [%4d] %s (%d pages, %s)\n", len(r.Recipes), r.Site, r.PagesFetched, siteStatus(r))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeErrors(sb *strings.Builder, run *model.RunReport) {
	if len(run.StepErrors) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\nERRORS\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")

	for _, step := range sortedKeys(run.StepErrors) {
		fmt.Fprintf(sb, "  %s: %s\n", step, run.StepErrors[step])
	}
	sb.WriteString("\n")
}
