package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/recipecrawl/internal/catalog"
	"github.com/nao1215/recipecrawl/internal/config"
	"github.com/nao1215/recipecrawl/internal/crawler"
	"github.com/nao1215/recipecrawl/internal/database"
	"github.com/nao1215/recipecrawl/internal/fetcher"
	"github.com/nao1215/recipecrawl/internal/httpclient"
	rlog "github.com/nao1215/recipecrawl/internal/log"
	"github.com/nao1215/recipecrawl/internal/model"
	"github.com/nao1215/recipecrawl/internal/pipeline"
	"github.com/nao1215/recipecrawl/internal/report"
	"github.com/nao1215/recipecrawl/internal/siteparser"
)

// runCrawlCmd executes a crawl run.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, closer, err := rlog.NewLogger(rlog.Options{
		Writer:  cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
		JSON:    cfg.LogJSON,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer closer.Close() //nolint:errcheck // best effort on exit
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, finishing with the recipes collected so far")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the config file and flags.
// Only flags the user set explicitly override the config file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfig returns the defaults overlaid with the config file, if any.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; the default
	// locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(file)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}
	return cfg, nil
}

// applyFlags copies changed flag values onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("index") {
		if cfg.IndexURL, err = flags.GetString("index"); err != nil {
			return err
		}
	}
	if flags.Changed("site") {
		if cfg.Sites, err = flags.GetStringSlice("site"); err != nil {
			return err
		}
	}
	if flags.Changed("exclude") {
		extra, err := flags.GetStringSlice("exclude")
		if err != nil {
			return err
		}
		cfg.ExtraExclusions = append(cfg.ExtraExclusions, extra...)
	}
	if flags.Changed("output") {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("summary") {
		if cfg.SummaryFile, err = flags.GetString("summary"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flags.Changed("max-body-size") {
		if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("log-file") {
		if cfg.LogFile, err = flags.GetString("log-file"); err != nil {
			return err
		}
	}
	if flags.Changed("log-json") {
		if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
			return err
		}
	}
	if flags.Changed("no-history") {
		if cfg.NoHistory, err = flags.GetBool("no-history"); err != nil {
			return err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	return nil
}

// runCrawl builds the crawl stack from cfg and executes the pipeline.
// It returns an error only when the dataset could not be written; an
// interrupted run still writes what it collected.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	client, err := httpclient.New(httpclient.Options{
		Timeout:      cfg.Timeout,
		ProxyAddress: cfg.ProxyAddress,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	f := fetcher.New(client,
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithLogger(logger),
	)
	parser := siteparser.New(f, siteparser.WithLogger(logger))
	loop := crawler.NewLoop(f, parser, parser,
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithLogger(logger),
	)
	cat := catalog.New(f, cfg.IndexURL,
		catalog.WithExclusions(cfg.ExtraExclusions...),
		catalog.WithLogger(logger),
	)
	batch := pipeline.NewBatchCrawler(loop,
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.Concurrency),
	)

	summary, closeSummary, err := summaryWriter(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeSummary()

	p := pipeline.New(pipeline.WithLogger(logger), pipeline.WithContinueOnError(true))
	p.AddSteps(
		pipeline.NewCatalogStep(cat,
			pipeline.WithSites(cfg.Sites),
			pipeline.WithCatalogLogger(logger),
		),
		pipeline.NewCrawlStep(batch, logger),
		pipeline.NewAggregateStep(logger),
		pipeline.NewPersistStep(report.NewCSVWriter(cfg.Output), logger),
		pipeline.NewSummaryStep(summary),
	)

	if !cfg.NoHistory {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("crawl history disabled", "error", err)
		} else {
			defer db.Close() //nolint:errcheck // read-mostly store
			p.AddStep(pipeline.NewHistoryStep(db, logger))
		}
	}

	run := model.NewRunReport(cat.IndexURL())
	if err := p.Execute(ctx, run); err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("pipeline finished with errors", "error", err)
	}

	if msg, ok := run.StepErrors[pipeline.StepPersist]; ok {
		return fmt.Errorf("failed to write dataset: %s", msg)
	}
	return nil
}

// summaryWriter returns the console summary writer, fanned out to the
// summary file when one is configured.
func summaryWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func(), error) {
	console := report.NewSimpleWriter(stdout, report.WithVerbose(cfg.Verbose))
	if cfg.SummaryFile == "" {
		return console, func() {}, nil
	}

	dir := filepath.Dir(cfg.SummaryFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create summary directory: %w", err)
		}
	}
	file, err := os.OpenFile(cfg.SummaryFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create summary file: %w", err)
	}

	writer := report.NewMultiWriter(console, report.NewWriter(report.FormatFromPath(cfg.SummaryFile), file))
	return writer, func() { _ = file.Close() }, nil
}
