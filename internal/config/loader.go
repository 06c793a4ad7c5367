package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".recipecrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the configuration file.
//
//	index: https://pypi.org/project/recipe-scrapers-ap-fork/
//	exclude: [example.org]
//	output: data/recipes.csv
//	crawl:
//	  delay: 2s
//	  maxPages: 50
type File struct {
	// IndexURL overrides the catalog index page.
	IndexURL string `yaml:"index,omitempty"`

	// Sites is a fixed list of sites; when set the catalog is not consulted.
	Sites []string `yaml:"sites,omitempty"`

	// Exclude lists extra hosts the catalog must skip.
	Exclude []string `yaml:"exclude,omitempty"`

	// Output is the dataset CSV path.
	Output string `yaml:"output,omitempty"`

	// Summary is the Markdown summary path.
	Summary string `yaml:"summary,omitempty"`

	// LogFile is the rotating log file path.
	LogFile string `yaml:"logFile,omitempty"`

	// LogJSON writes log records as JSON.
	LogJSON bool `yaml:"logJSON,omitempty"`

	// DBDir is the history database directory.
	DBDir string `yaml:"dbDir,omitempty"`

	// Crawl holds crawl tuning options.
	Crawl CrawlOptions `yaml:"crawl,omitempty"`
}

// CrawlOptions holds the crawl section of the configuration file.
type CrawlOptions struct {
	Timeout     time.Duration  `yaml:"timeout,omitempty"`
	Delay       *time.Duration `yaml:"delay,omitempty"`
	MaxPages    int            `yaml:"maxPages,omitempty"`
	Concurrency int            `yaml:"concurrency,omitempty"`
	UserAgent   string         `yaml:"userAgent,omitempty"`
	MaxBodySize int64          `yaml:"maxBodySize,omitempty"`
	Proxy       string         `yaml:"proxy,omitempty"`
}

// LoadConfigFile loads a configuration file from path.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .recipecrawl in the current directory
// 3. Look for .recipecrawl in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
