package model

import (
	"errors"
	"fmt"
)

// Error kinds used by the crawler. Every kind is handled at the narrowest
// scope (link, page or site) and turned into a skip.
var (
	// ErrTransport covers network, DNS, timeout and non-2xx failures.
	ErrTransport = errors.New("transport error")

	// ErrParse covers bodies that cannot be decoded or parsed as HTML.
	ErrParse = errors.New("parse error")

	// ErrResolution means no next-page candidate matched. It is the normal
	// end-of-site signal.
	ErrResolution = errors.New("no next page")

	// ErrExtraction means the site parser could not produce a recipe.
	ErrExtraction = errors.New("extraction failure")
)

// ErrorKind identifies which stage of the crawl failed.
type ErrorKind int

const (
	// KindTransport maps to ErrTransport.
	KindTransport ErrorKind = iota
	// KindParse maps to ErrParse.
	KindParse
	// KindResolution maps to ErrResolution.
	KindResolution
	// KindExtraction maps to ErrExtraction.
	KindExtraction
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	case KindResolution:
		return "resolution"
	case KindExtraction:
		return "extraction"
	default:
		return "unknown"
	}
}

// sentinel returns the package-level error matching the kind.
func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransport:
		return ErrTransport
	case KindParse:
		return ErrParse
	case KindResolution:
		return ErrResolution
	case KindExtraction:
		return ErrExtraction
	default:
		return nil
	}
}

// CrawlError carries the failing URL and the underlying cause.
// errors.Is matches both the kind's sentinel and the wrapped cause.
type CrawlError struct {
	Kind ErrorKind
	URL  string
	Err  error
}

// NewCrawlError wraps err as a CrawlError of the given kind.
func NewCrawlError(kind ErrorKind, url string, err error) *CrawlError {
	return &CrawlError{Kind: kind, URL: url, Err: err}
}

// Error implements error.
func (e *CrawlError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s", e.Kind.sentinel(), e.URL)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind.sentinel(), e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CrawlError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *CrawlError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the kind of err if it is (or wraps) a CrawlError.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
