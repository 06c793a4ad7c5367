package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSource is returned when neither an index URL nor a site list is set.
	ErrNoSource = errors.New("no crawl source: set an index URL or a site list")

	// ErrNoOutput is returned when the dataset path is empty.
	ErrNoOutput = errors.New("no output path specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxPages is returned when the page cap is outside 1..DefaultMaxPages.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be between 1 and 100")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to read bodies without a limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
