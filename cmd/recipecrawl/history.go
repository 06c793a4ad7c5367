package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/recipecrawl/internal/database"
)

// defaultHistoryLimit is the number of rows listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It reads the runs recorded in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previous crawl runs",
		Long: `History lists the crawl runs recorded in the history database.

Every run that was not started with --no-history is stored with its
per-site results, so you can see which sites stopped yielding recipes
and when.

Examples:
  # List the most recent runs
  recipecrawl history

  # Show the per-site results of run 3
  recipecrawl history --run 3

  # Show how one site behaved across runs
  recipecrawl history --site https://www.example.com/recipes/

  # Machine readable output
  recipecrawl history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of rows to show")
	cmd.Flags().Int64P("run", "r", 0, "Show the per-site results of this run ID")
	cmd.Flags().String("site", "", "Show the history of this site")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	dbDir, err := historyDir(cmd)
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close() //nolint:errcheck // read-only use

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case runID > 0:
		return showRun(ctx, out, db, runID, jsonOutput)
	case site != "":
		return showSite(ctx, out, db, site, limit, jsonOutput)
	default:
		return listRuns(ctx, out, db, limit, jsonOutput)
	}
}

// historyDir returns the database directory from the config file or the
// --db-dir flag.
func historyDir(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cmd.Flags().Changed("db-dir") {
		return cmd.Flags().GetString("db-dir")
	}
	return cfg.DBDir, nil
}

// listRuns prints the most recent runs.
func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl runs recorded yet.")
		fmt.Fprintln(out, "\nRun 'recipecrawl' to crawl the recipe sites.")
		return nil
	}

	fmt.Fprintf(out, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %6s  %6s  %8s  %s\n", "ID", "Started", "Sites", "Pages", "Recipes", "Output")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 72))
	for _, r := range runs {
		fmt.Fprintf(out, "  %-6d  %-20s  %6d  %6d  %8d  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Sites, r.Pages, r.Recipes, r.OutputPath)
	}
	fmt.Fprintln(out, "\nUse 'recipecrawl history --run <id>' to see the per-site results.")
	return nil
}

// showRun prints one run with its per-site results.
func showRun(ctx context.Context, out io.Writer, db *database.CrawlDB, id int64, jsonOutput bool) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("run %d not found", id)
	}
	crawls, err := db.GetSiteCrawls(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get site results: %w", err)
	}

	if jsonOutput {
		return writeJSON(out, struct {
			Run   *database.RunRecord  `json:"run"`
			Sites []database.SiteCrawl `json:"sites"`
		}{run, crawls})
	}

	fmt.Fprintf(out, "Run %d started %s\n", run.ID, run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "  Index:   %s\n", run.IndexURL)
	fmt.Fprintf(out, "  Recipes: %d (from %d records)\n", run.Recipes, run.Records)
	if run.OutputPath != "" {
		fmt.Fprintf(out, "  Output:  %s\n", run.OutputPath)
	}
	fmt.Fprintln(out)
	writeSiteCrawls(out, crawls, false)
	return nil
}

// showSite prints the history of one site across runs.
func showSite(ctx context.Context, out io.Writer, db *database.CrawlDB, site string, limit int, jsonOutput bool) error {
	crawls, err := db.SiteHistory(ctx, site, limit)
	if err != nil {
		return fmt.Errorf("failed to get site history: %w", err)
	}
	if jsonOutput {
		return writeJSON(out, crawls)
	}
	if len(crawls) == 0 {
		fmt.Fprintf(out, "No history found for %s\n", site)
		return nil
	}

	fmt.Fprintf(out, "History for %s (%d runs):\n\n", site, len(crawls))
	writeSiteCrawls(out, crawls, true)
	return nil
}

// writeSiteCrawls prints a table of site results. byRun labels rows with
// the run ID instead of the site.
func writeSiteCrawls(out io.Writer, crawls []database.SiteCrawl, byRun bool) {
	label := "Site"
	if byRun {
		label = "Run"
	}
	fmt.Fprintf(out, "  %-40s  %7s  %7s  %5s  %s\n", label, "Records", "Skipped", "Pages", "Stop")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 76))
	for _, c := range crawls {
		name := c.Site
		if byRun {
			name = fmt.Sprintf("%d", c.RunID)
		}
		stop := string(c.StopReason)
		if c.Error != "" {
			stop += ": " + c.Error
		}
		fmt.Fprintf(out, "  %-40s  %7d  %7d  %5d  %s\n", name, c.Records, c.Skipped, c.PagesFetched, stop)
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
