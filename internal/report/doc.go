// Package report writes the outputs of a crawl run.
//
// The dataset itself is written by CSVWriter. Run summaries are written by
// the Writer implementations:
//   - SimpleWriter: plain text for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with tables and a Mermaid pie chart
//
// Writers can be combined with MultiWriter.
package report
