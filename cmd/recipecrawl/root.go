package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/recipecrawl/internal/config"
)

// NewRootCmd creates the root command. Running it without a subcommand
// performs a full crawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipecrawl",
		Short: "Crawl recipe websites into a CSV dataset",
		Long: `recipecrawl discovers recipe websites listed on a package index page,
walks each site's paginated recipe listing and writes every complete recipe
(title, ingredients, instructions, URL) to a CSV file.

Sites are crawled one at a time with a polite delay between recipe pages.
Sites that cannot be reached or parsed are skipped. Press Ctrl+C to stop
early; the recipes collected so far are still written.

Examples:
  # Crawl with defaults, writing recipes/recipes.csv
  recipecrawl

  # Write the dataset elsewhere and keep a Markdown summary
  recipecrawl -o data/recipes.csv -s data/summary.md

  # Crawl only the given sites
  recipecrawl --site https://www.example.com/recipes/

  # Show previous runs
  recipecrawl history`,
		Args:          cobra.NoArgs,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCrawlCmd,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .recipecrawl in current or home directory)")
	cmd.PersistentFlags().String("db-dir", "",
		"History database directory (default: $XDG_DATA_HOME/recipecrawl)")

	addCrawlFlags(cmd)

	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// addCrawlFlags registers the flags of the crawl run.
func addCrawlFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.String("index", config.DefaultIndexURL, "Index page listing the recipe sites")
	flags.StringSlice("site", nil, "Crawl this site instead of the index (repeatable)")
	flags.StringSlice("exclude", nil, "Additional host to skip when reading the index (repeatable)")
	flags.StringP("output", "o", config.DefaultOutput, "Dataset CSV path (directories are created)")
	flags.StringP("summary", "s", "", "Also write a run summary (.md, .json or .txt)")

	flags.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each HTTP request")
	flags.Duration("delay", config.DefaultCrawlDelay, "Delay between recipe page requests")
	flags.IntP("max-pages", "p", config.DefaultMaxPages, "Maximum listing pages per site (1-100)")
	flags.IntP("concurrency", "n", config.DefaultConcurrency, "Number of sites crawled at once")
	flags.String("user-agent", config.DefaultUserAgent, "User-Agent header sent with requests")
	flags.Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response body size in bytes")
	flags.String("proxy", "", "SOCKS5 proxy address (host:port)")

	flags.String("log-file", "", "Also write logs to this rotating file")
	flags.Bool("log-json", false, "Write log records as JSON")
	flags.Bool("no-history", false, "Do not record the run in the history database")
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
