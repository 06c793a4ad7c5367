package report

import (
	"io"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/recipecrawl/internal/model"
)

// timeLayout is the timestamp format of summaries.
const timeLayout = "2006-01-02 15:04:05 MST"

// Writer writes a run summary.
type Writer interface {
	// Write outputs the summary of run and returns the number of bytes written.
	Write(run *model.RunReport) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every Writer. It stops on the first error.
func (m *MultiWriter) Write(run *model.RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the output destination shared by the writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Format is a summary file format.
type Format string

const (
	// FormatMarkdown selects MarkdownWriter.
	FormatMarkdown Format = "markdown"
	// FormatJSON selects JSONWriter.
	FormatJSON Format = "json"
	// FormatText selects SimpleWriter.
	FormatText Format = "text"
)

// FormatFromPath picks a summary format from a file extension.
// Unknown extensions select Markdown.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".txt", ".log":
		return FormatText
	default:
		return FormatMarkdown
	}
}

// NewWriter returns the summary writer for format.
func NewWriter(format Format, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatText:
		return NewSimpleWriter(output)
	default:
		return NewMarkdownWriter(output)
	}
}

// siteStatus describes how a site's crawl ended.
func siteStatus(r model.SiteResult) string {
	switch r.StopReason {
	case model.StopFetchFailed:
		if r.PagesFetched == 0 {
			return "unreachable"
		}
		return "fetch failed"
	case model.StopEmptyPage:
		return "no more recipes"
	case model.StopNoNextPage:
		return "last page"
	case model.StopPageLimit:
		return "page limit"
	case model.StopCancelled:
		return "cancelled"
	default:
		return string(r.StopReason)
	}
}

// siteLabel shortens a site URL to its host for chart labels.
func siteLabel(site string) string {
	if u, err := url.Parse(site); err == nil && u.Host != "" {
		return u.Host
	}
	return site
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
