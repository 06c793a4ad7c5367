package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/recipecrawl/internal/model"
)

// ErrBodyTooLarge is wrapped in the KindParse error returned when a
// response body exceeds the configured size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Fetcher fetches and parses HTML pages.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize limits the number of body bytes read. Zero means no limit.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using client for all requests.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   "recipecrawl",
		maxBodySize: 5 * 1024 * 1024,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs one GET of pageURL and parses the body as HTML.
// Transport failures and non-2xx responses return a KindTransport error;
// undecodable, oversized or non-HTML bodies return a KindParse error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, model.NewCrawlError(model.KindTransport, pageURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	f.logger.Debug("fetching page", "url", pageURL)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, model.NewCrawlError(model.KindTransport, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewCrawlError(model.KindTransport, pageURL,
			fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, model.NewCrawlError(model.KindParse, pageURL,
			fmt.Errorf("unsupported content type %q", contentType))
	}

	var body io.Reader = resp.Body
	if f.maxBodySize > 0 {
		body = io.LimitReader(resp.Body, f.maxBodySize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, model.NewCrawlError(model.KindTransport, pageURL, err)
	}
	if f.maxBodySize > 0 && int64(len(data)) > f.maxBodySize {
		f.logger.Warn("page body too large", "url", pageURL, "limit", f.maxBodySize)
		return nil, model.NewCrawlError(model.KindParse, pageURL,
			fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, f.maxBodySize))
	}

	decoded, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, model.NewCrawlError(model.KindParse, pageURL, err)
	}

	root, err := html.Parse(decoded)
	if err != nil {
		return nil, model.NewCrawlError(model.KindParse, pageURL, err)
	}

	finalURL := pageURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return newPage(pageURL, finalURL, resp.StatusCode, root)
}

// isHTML reports whether contentType can hold an HTML document.
// A missing header is accepted; many small sites omit it.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "html")
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain", "application/xml", "text/xml":
		return true
	default:
		return false
	}
}
