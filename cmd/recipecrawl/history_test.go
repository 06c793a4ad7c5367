package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/recipecrawl/internal/database"
	"github.com/nao1215/recipecrawl/internal/model"
)

// seedHistory stores one run with two sites and returns the database dir.
func seedHistory(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	run := model.NewRunReport("https://index.example/")
	run.Sites = []string{"https://a.example/recipes/", "https://b.example/"}
	run.Results = []model.SiteResult{
		{
			Site:         "https://a.example/recipes/",
			PagesFetched: 3,
			Recipes:      []model.Recipe{{Title: "Soup", Ingredients: []string{"water"}, Instructions: "Boil."}},
			StopReason:   model.StopNoNextPage,
			Duration:     time.Second,
		},
		{
			Site:       "https://b.example/",
			StopReason: model.StopFetchFailed,
			Error:      "connection refused",
		},
	}
	run.OutputPath = "recipes/recipes.csv"
	run.Finish()

	if _, err := db.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	return dir
}

// runHistory executes the history subcommand through the root command.
func runHistory(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"history", "--config", writeConfigFile(t, "")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists runs", func(t *testing.T) {
		t.Parallel()

		out, err := runHistory(t, "--db-dir", seedHistory(t))
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		if !strings.Contains(out, "Crawl runs (1)") || !strings.Contains(out, "recipes/recipes.csv") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("shows one run", func(t *testing.T) {
		t.Parallel()

		out, err := runHistory(t, "--db-dir", seedHistory(t), "--run", "1")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		for _, want := range []string{"https://index.example/", "https://a.example/recipes/", "fetch_failed: connection refused"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got %q", want, out)
			}
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		if _, err := runHistory(t, "--db-dir", seedHistory(t), "--run", "42"); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("site history as JSON", func(t *testing.T) {
		t.Parallel()

		out, err := runHistory(t, "--db-dir", seedHistory(t), "--site", "https://a.example/recipes/", "--json")
		if err != nil {
			t.Fatalf("history error = %v", err)
		}
		var crawls []database.SiteCrawl
		if err := json.Unmarshal([]byte(out), &crawls); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if len(crawls) != 1 || crawls[0].Records != 1 || crawls[0].PagesFetched != 3 {
			t.Errorf("crawls = %+v", crawls)
		}
	})

	t.Run("missing database", func(t *testing.T) {
		t.Parallel()

		if _, err := runHistory(t, "--db-dir", t.TempDir()); err == nil {
			t.Error("expected error when no history database exists")
		}
	})
}
