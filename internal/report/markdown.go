package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/recipecrawl/internal/model"
)

// MarkdownWriter outputs the run summary in Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the summary of run in Markdown.
func (w *MarkdownWriter) Write(run *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeSites(md, run)
	w.writeRecipeChart(md, run)
	w.writeErrors(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run metadata table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.RunReport) {
	md.H1("Recipe Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Index", "`" + run.IndexURL + "`"},
		{"Started", run.StartedAt.Format(timeLayout)},
	}
	if !run.FinishedAt.IsZero() {
		rows = append(rows, []string{"Finished", run.FinishedAt.Format(timeLayout)})
	}
	rows = append(rows,
		[]string{"Sites", strconv.Itoa(len(run.Sites))},
		[]string{"Pages Fetched", strconv.Itoa(run.TotalPages())},
		[]string{"Records Found", strconv.Itoa(run.TotalRecords())},
		[]string{"Recipes Kept", "**" + strconv.Itoa(run.Dataset.Len()) + "**"},
	)
	if run.OutputPath != "" {
		rows = append(rows, []string{"Dataset", "`" + run.OutputPath + "`"})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if run.Dataset.Len() == 0 {
		md.Warningf("No complete recipes were collected in this run.")
		md.PlainText("")
	}
}

// writeSites writes one table row per crawled site.
func (w *MarkdownWriter) writeSites(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Sites")
	md.PlainText("")

	if len(run.Results) == 0 {
		md.PlainText("No sites were crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Results))
	for i, r := range run.Results {
		rows[i] = []string{
			truncateString(r.Site, 60),
			strconv.Itoa(len(r.Recipes)),
			strconv.Itoa(r.Skipped),
			strconv.Itoa(r.PagesFetched),
			siteStatus(r),
			r.Duration.Round(time.Millisecond).String(),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Site", "Records", "Skipped", "Pages", "Status", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeRecipeChart writes a pie chart of records per productive site.
func (w *MarkdownWriter) writeRecipeChart(md *markdown.Markdown, run *model.RunReport) {
	if run.TotalRecords() == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Recipes per Site"),
		piechart.WithShowData(true),
	)
	for _, r := range run.Results {
		if len(r.Recipes) > 0 {
			chart.LabelAndIntValue(siteLabel(r.Site), uint64(len(r.Recipes)))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeErrors writes step failures as an alert.
func (w *MarkdownWriter) writeErrors(md *markdown.Markdown, run *model.RunReport) {
	if len(run.StepErrors) == 0 {
		return
	}

	md.H2("Errors")
	md.PlainText("")

	items := make([]string, 0, len(run.StepErrors))
	for _, step := range sortedKeys(run.StepErrors) {
		items = append(items, "**"+step+"**: "+run.StepErrors[step])
	}
	md.Cautionf("%d pipeline step(s) failed.", len(items))
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by recipecrawl*")
}
