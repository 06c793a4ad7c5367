package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/recipecrawl/internal/config"
	rlog "github.com/nao1215/recipecrawl/internal/log"
	"github.com/nao1215/recipecrawl/internal/report"
)

// writeConfigFile writes content to a config file in a temp directory.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}
	return path
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("uses defaults with an empty config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--config", writeConfigFile(t, "")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.IndexURL != config.DefaultIndexURL || cfg.Output != config.DefaultOutput {
			t.Errorf("cfg = %+v, want defaults", cfg)
		}
		if cfg.MaxPages != config.DefaultMaxPages || cfg.Concurrency != config.DefaultConcurrency {
			t.Errorf("MaxPages = %d, Concurrency = %d", cfg.MaxPages, cfg.Concurrency)
		}
	})

	t.Run("flags override the config file", func(t *testing.T) {
		t.Parallel()

		path := writeConfigFile(t, `output: file.csv
exclude: [example.org]
crawl:
  delay: 3s
  maxPages: 10
`)
		cmd := NewRootCmd()
		args := []string{
			"--config", path,
			"-o", "flag.csv",
			"--exclude", "example.net",
			"--site", "https://a.example/recipes/",
			"--site", "https://b.example/",
			"--no-history",
			"--log-json",
			"-v",
		}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}

		if cfg.Output != "flag.csv" {
			t.Errorf("Output = %q, want flag.csv", cfg.Output)
		}
		if cfg.CrawlDelay != 3*time.Second {
			t.Errorf("CrawlDelay = %v, want 3s from file", cfg.CrawlDelay)
		}
		if cfg.MaxPages != 10 {
			t.Errorf("MaxPages = %d, want 10 from file", cfg.MaxPages)
		}
		if strings.Join(cfg.ExtraExclusions, ",") != "example.org,example.net" {
			t.Errorf("ExtraExclusions = %v", cfg.ExtraExclusions)
		}
		if len(cfg.Sites) != 2 {
			t.Errorf("Sites = %v", cfg.Sites)
		}
		if !cfg.NoHistory || !cfg.Verbose || !cfg.LogJSON {
			t.Errorf("NoHistory = %v, Verbose = %v, LogJSON = %v", cfg.NoHistory, cfg.Verbose, cfg.LogJSON)
		}
	})

	t.Run("zero delay from the file is kept", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--config", writeConfigFile(t, "crawl:\n  delay: 0s\n")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if cfg.CrawlDelay != 0 {
			t.Errorf("CrawlDelay = %v, want 0", cfg.CrawlDelay)
		}
	})

	t.Run("page cap above 100 fails validation", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--config", writeConfigFile(t, ""), "-p", "500"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("buildConfig() error = %v", err)
		}
		if err := cfg.Validate(); !errors.Is(err, config.ErrInvalidMaxPages) {
			t.Errorf("Validate() = %v, want ErrInvalidMaxPages", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		if _, err := buildConfig(cmd); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		if err := cmd.ParseFlags([]string{"--config", writeConfigFile(t, "crawl: [")}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}
		if _, err := buildConfig(cmd); err == nil {
			t.Error("expected error for invalid config file")
		}
	})
}

// newRecipeSite serves a two page listing with three recipes, one of which
// has no ingredients.
func newRecipeSite(t *testing.T) *httptest.Server {
	t.Helper()

	recipe := func(title, ingredient string) string {
		ingredients := "[]"
		if ingredient != "" {
			ingredients = fmt.Sprintf("[%q]", ingredient)
		}
		return fmt.Sprintf(`<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@type":"Recipe","name":%q,"recipeIngredient":%s,
"recipeInstructions":[{"@type":"HowToStep","text":"Cook it."}]}
</script></head><body><h1>%s</h1></body></html>`, title, ingredients, title)
	}

	pages := map[string]string{
		"/recipes/": `<html><body>
<a class="recipe-title" href="/recipes/soup">Soup</a>
<a class="recipe-title" href="/recipes/toast">Toast</a>
<div class="pager"><a href="/recipes/?page=2">2</a></div>
</body></html>`,
		"/recipes/?page=2": `<html><body>
<a class="recipe-title" href="/recipes/salad">Salad</a>
</body></html>`,
		"/recipes/soup":  recipe("Soup", "water"),
		"/recipes/toast": recipe("Toast", ""),
		"/recipes/salad": recipe("Salad", "lettuce"),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.RequestURI()]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, sites ...string) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Sites = sites
	cfg.Output = filepath.Join(t.TempDir(), "out", "recipes.csv")
	cfg.CrawlDelay = 0
	cfg.Timeout = 5 * time.Second
	cfg.NoHistory = true
	return cfg
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("writes the dataset and summaries", func(t *testing.T) {
		t.Parallel()

		server := newRecipeSite(t)
		cfg := testConfig(t, server.URL+"/recipes/")
		cfg.SummaryFile = filepath.Join(t.TempDir(), "summary", "run.json")

		var stdout bytes.Buffer
		if err := runCrawl(context.Background(), cfg, rlog.Discard(), &stdout); err != nil {
			t.Fatalf("runCrawl() error = %v", err)
		}

		data, err := os.ReadFile(cfg.Output)
		if err != nil {
			t.Fatalf("read dataset: %v", err)
		}
		rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("parse dataset: %v", err)
		}
		if strings.Join(rows[0], ",") != strings.Join(report.CSVHeader, ",") {
			t.Errorf("header = %q", rows[0])
		}
		if len(rows) != 3 || rows[1][0] != "Soup" || rows[2][0] != "Salad" {
			t.Fatalf("rows = %q, want Soup and Salad", rows)
		}
		if rows[2][3] != server.URL+"/recipes/salad" {
			t.Errorf("Salad URL = %q", rows[2][3])
		}

		if !strings.Contains(stdout.String(), "RECIPE CRAWL SUMMARY") {
			t.Errorf("stdout = %q, want console summary", stdout.String())
		}

		summary, err := os.ReadFile(cfg.SummaryFile)
		if err != nil {
			t.Fatalf("read summary: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(summary, &decoded); err != nil {
			t.Errorf("summary is not JSON: %v", err)
		}
	})

	t.Run("unreachable site still writes a dataset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		cfg := testConfig(t, url+"/")
		if err := runCrawl(context.Background(), cfg, rlog.Discard(), &bytes.Buffer{}); err != nil {
			t.Fatalf("runCrawl() error = %v", err)
		}

		data, err := os.ReadFile(cfg.Output)
		if err != nil {
			t.Fatalf("read dataset: %v", err)
		}
		rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			t.Fatalf("parse dataset: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("rows = %q, want only the header", rows)
		}
	})

	t.Run("cancelled run writes the partial dataset", func(t *testing.T) {
		t.Parallel()

		server := newRecipeSite(t)
		cfg := testConfig(t, server.URL+"/recipes/")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := runCrawl(ctx, cfg, rlog.Discard(), &bytes.Buffer{}); err != nil {
			t.Fatalf("runCrawl() error = %v", err)
		}
		if _, err := os.Stat(cfg.Output); err != nil {
			t.Errorf("expected dataset file after cancellation: %v", err)
		}
	})

	t.Run("unwritable output is an error", func(t *testing.T) {
		t.Parallel()

		server := newRecipeSite(t)
		cfg := testConfig(t, server.URL+"/recipes/")

		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
			t.Fatalf("write blocker: %v", err)
		}
		cfg.Output = filepath.Join(blocker, "recipes.csv")

		err := runCrawl(context.Background(), cfg, rlog.Discard(), &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "failed to write dataset") {
			t.Errorf("runCrawl() error = %v, want dataset write failure", err)
		}
	})

	t.Run("records history when enabled", func(t *testing.T) {
		t.Parallel()

		server := newRecipeSite(t)
		cfg := testConfig(t, server.URL+"/recipes/")
		cfg.NoHistory = false
		cfg.DBDir = t.TempDir()

		if err := runCrawl(context.Background(), cfg, rlog.Discard(), &bytes.Buffer{}); err != nil {
			t.Fatalf("runCrawl() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(cfg.DBDir, "recipecrawl.db")); err != nil {
			t.Errorf("expected history database: %v", err)
		}
	})
}
