package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns the documented defaults.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default index is the recipe-scrapers project page", func(t *testing.T) {
		t.Parallel()
		if cfg.IndexURL != DefaultIndexURL {
			t.Errorf("expected IndexURL %q, got %q", DefaultIndexURL, cfg.IndexURL)
		}
	})

	t.Run("default output is recipes/recipes.csv", func(t *testing.T) {
		t.Parallel()
		if cfg.Output != "recipes/recipes.csv" {
			t.Errorf("expected output 'recipes/recipes.csv', got %q", cfg.Output)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default CrawlDelay is 1 second", func(t *testing.T) {
		t.Parallel()
		if cfg.CrawlDelay != time.Second {
			t.Errorf("expected CrawlDelay 1s, got %v", cfg.CrawlDelay)
		}
	})

	t.Run("default MaxPages is 100", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 100 {
			t.Errorf("expected MaxPages 100, got %d", cfg.MaxPages)
		}
	})

	t.Run("default Concurrency is sequential", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != 1 {
			t.Errorf("expected Concurrency 1, got %d", cfg.Concurrency)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})
}

// TestConfigValidate tests each validation rule in isolation.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{name: "defaults are valid", modify: func(*Config) {}, want: nil},
		{name: "site list without index is valid", modify: func(c *Config) {
			c.IndexURL = ""
			c.Sites = []string{"https://example.com"}
		}, want: nil},
		{name: "no source", modify: func(c *Config) { c.IndexURL = "" }, want: ErrNoSource},
		{name: "no output", modify: func(c *Config) { c.Output = "" }, want: ErrNoOutput},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative delay", modify: func(c *Config) { c.CrawlDelay = -time.Second }, want: ErrInvalidCrawlDelay},
		{name: "zero delay is valid", modify: func(c *Config) { c.CrawlDelay = 0 }, want: nil},
		{name: "zero max pages", modify: func(c *Config) { c.MaxPages = 0 }, want: ErrInvalidMaxPages},
		{name: "lower max pages is valid", modify: func(c *Config) { c.MaxPages = 10 }, want: nil},
		{name: "max pages at the cap is valid", modify: func(c *Config) { c.MaxPages = DefaultMaxPages }, want: nil},
		{name: "max pages above the cap", modify: func(c *Config) { c.MaxPages = DefaultMaxPages + 1 }, want: ErrInvalidMaxPages},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, want: ErrInvalidConcurrency},
		{name: "negative body size", modify: func(c *Config) { c.MaxBodySize = -1 }, want: ErrInvalidMaxBodySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestLoadConfigFile tests YAML loading and overlay onto defaults.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("crawl: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("applies file values over defaults", func(t *testing.T) {
		t.Parallel()

		content := `
index: https://index.example.com/
exclude:
  - ads.example.net
output: out/data.csv
crawl:
  timeout: 10s
  delay: 0s
  maxPages: 5
  concurrency: 2
  proxy: 127.0.0.1:1080
`
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		cfg := NewConfig()
		cfg.ApplyFile(f)

		if cfg.IndexURL != "https://index.example.com/" {
			t.Errorf("unexpected IndexURL %q", cfg.IndexURL)
		}
		if len(cfg.ExtraExclusions) != 1 || cfg.ExtraExclusions[0] != "ads.example.net" {
			t.Errorf("unexpected exclusions %v", cfg.ExtraExclusions)
		}
		if cfg.Output != "out/data.csv" {
			t.Errorf("unexpected Output %q", cfg.Output)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("unexpected Timeout %v", cfg.Timeout)
		}
		if cfg.CrawlDelay != 0 {
			t.Errorf("expected explicit zero delay, got %v", cfg.CrawlDelay)
		}
		if cfg.MaxPages != 5 {
			t.Errorf("unexpected MaxPages %d", cfg.MaxPages)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("unexpected Concurrency %d", cfg.Concurrency)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("unexpected ProxyAddress %q", cfg.ProxyAddress)
		}
		if cfg.UserAgent != DefaultUserAgent {
			t.Errorf("expected default user agent to survive, got %q", cfg.UserAgent)
		}
	})

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil)
		if cfg.Output != DefaultOutput {
			t.Errorf("expected default output, got %q", cfg.Output)
		}
	})
}

// TestFindConfigFile tests explicit path lookup.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("output: x.csv\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty path, got %q", got)
		}
	})
}
