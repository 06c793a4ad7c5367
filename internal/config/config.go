package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "recipecrawl"

	// DefaultIndexURL is the index page listing the sites supported by the
	// recipe-scrapers project. Its outbound nofollow links are the crawl targets.
	DefaultIndexURL = "https://pypi.org/project/recipe-scrapers-ap-fork/"

	// DefaultOutput is the dataset path, relative to the working directory.
	DefaultOutput = "recipes/recipes.csv"

	// DefaultTimeout bounds each HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the pause between consecutive recipe fetches.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultMaxPages caps the listing pages processed per site. It is
	// also the upper bound for MaxPages.
	DefaultMaxPages = 100

	// DefaultConcurrency of 1 crawls sites strictly one after another.
	DefaultConcurrency = 1

	// DefaultUserAgent identifies recipecrawl in HTTP requests.
	DefaultUserAgent = "recipecrawl/1.0 (+https://github.com/nao1215/recipecrawl)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Config holds all configuration options for a crawl run.
// It is populated from defaults, the optional config file, and CLI flags,
// in that order, and then passed down explicitly.
type Config struct {
	// IndexURL is the catalog page scanned for candidate sites.
	IndexURL string

	// Sites, when non-empty, replaces catalog discovery with a fixed list.
	Sites []string

	// ExtraExclusions are additional hosts the catalog must skip.
	ExtraExclusions []string

	// Output is the CSV dataset path.
	Output string

	// SummaryFile is an optional Markdown run summary path.
	SummaryFile string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// CrawlDelay is the pause between consecutive recipe extractions.
	CrawlDelay time.Duration

	// MaxPages caps listing pages per site.
	MaxPages int

	// Concurrency is the number of sites crawled at once.
	// 1 keeps the crawl strictly sequential.
	Concurrency int

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// Verbose enables debug logging.
	Verbose bool

	// LogFile, when set, also writes logs to a rotating file.
	LogFile string

	// LogJSON selects JSON log records instead of text.
	LogJSON bool

	// DBDir is the directory holding the crawl history database.
	DBDir string

	// NoHistory disables recording the run in the history database.
	NoHistory bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		IndexURL:    DefaultIndexURL,
		Output:      DefaultOutput,
		Timeout:     DefaultTimeout,
		CrawlDelay:  DefaultCrawlDelay,
		MaxPages:    DefaultMaxPages,
		Concurrency: DefaultConcurrency,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for recipecrawl.
// On Linux: ~/.local/share/recipecrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for recipecrawl.
// On Linux: ~/.config/recipecrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.IndexURL == "" && len(c.Sites) == 0 {
		return ErrNoSource
	}
	if c.Output == "" {
		return ErrNoOutput
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.MaxPages <= 0 || c.MaxPages > DefaultMaxPages {
		return ErrInvalidMaxPages
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}

// ApplyFile overlays values present in the config file onto c.
// Zero values in the file leave the current setting untouched.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.IndexURL != "" {
		c.IndexURL = f.IndexURL
	}
	if len(f.Sites) > 0 {
		c.Sites = append([]string(nil), f.Sites...)
	}
	if len(f.Exclude) > 0 {
		c.ExtraExclusions = append(c.ExtraExclusions, f.Exclude...)
	}
	if f.Output != "" {
		c.Output = f.Output
	}
	if f.Summary != "" {
		c.SummaryFile = f.Summary
	}
	if f.Crawl.Timeout > 0 {
		c.Timeout = f.Crawl.Timeout
	}
	if f.Crawl.Delay != nil {
		c.CrawlDelay = *f.Crawl.Delay
	}
	if f.Crawl.MaxPages > 0 {
		c.MaxPages = f.Crawl.MaxPages
	}
	if f.Crawl.Concurrency > 0 {
		c.Concurrency = f.Crawl.Concurrency
	}
	if f.Crawl.UserAgent != "" {
		c.UserAgent = f.Crawl.UserAgent
	}
	if f.Crawl.MaxBodySize > 0 {
		c.MaxBodySize = f.Crawl.MaxBodySize
	}
	if f.Crawl.Proxy != "" {
		c.ProxyAddress = f.Crawl.Proxy
	}
	if f.LogFile != "" {
		c.LogFile = f.LogFile
	}
	if f.LogJSON {
		c.LogJSON = true
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
}
