package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/recipecrawl/internal/aggregate"
	"github.com/nao1215/recipecrawl/internal/model"
	"github.com/nao1215/recipecrawl/internal/report"
)

// Step names.
const (
	StepCatalog   = "catalog"
	StepCrawl     = "crawl"
	StepAggregate = "aggregate"
	StepPersist   = "persist"
	StepSummary   = "summary"
	StepHistory   = "history"
)

// SiteLister discovers the sites to crawl.
type SiteLister interface {
	ListCandidateSites(ctx context.Context) []string
}

// CatalogStep fills run.Sites from the catalog, or from a fixed list.
type CatalogStep struct {
	lister SiteLister
	sites  []string
	logger *slog.Logger
}

// CatalogStepOption configures a CatalogStep.
type CatalogStepOption func(*CatalogStep)

// WithSites replaces catalog discovery with a fixed site list.
func WithSites(sites []string) CatalogStepOption {
	return func(s *CatalogStep) {
		s.sites = sites
	}
}

// WithCatalogLogger sets a custom logger for the catalog step.
func WithCatalogLogger(logger *slog.Logger) CatalogStepOption {
	return func(s *CatalogStep) {
		s.logger = logger
	}
}

// NewCatalogStep creates a catalog step.
func NewCatalogStep(lister SiteLister, opts ...CatalogStepOption) *CatalogStep {
	s := &CatalogStep{
		lister: lister,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *CatalogStep) Name() string {
	return StepCatalog
}

// Do executes the catalog step. An empty catalog is not an error; the run
// continues and writes an empty dataset.
func (s *CatalogStep) Do(ctx context.Context, run *model.RunReport) error {
	if len(s.sites) > 0 {
		run.Sites = append([]string(nil), s.sites...)
		s.logger.Info("using configured sites", "count", len(run.Sites))
		return nil
	}

	run.Sites = s.lister.ListCandidateSites(ctx)
	if len(run.Sites) == 0 {
		s.logger.Warn("catalog returned no sites", "index", run.IndexURL)
		return nil
	}
	s.logger.Info("catalog loaded", "index", run.IndexURL, "sites", len(run.Sites))
	return nil
}

// CrawlStep crawls every site of the run.
type CrawlStep struct {
	batch  *BatchCrawler
	logger *slog.Logger
}

// NewCrawlStep creates a crawl step over batch.
func NewCrawlStep(batch *BatchCrawler, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{batch: batch, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do executes the crawl step. Per-site failures are part of each result;
// the step itself never fails.
func (s *CrawlStep) Do(ctx context.Context, run *model.RunReport) error {
	run.Results = s.batch.CrawlAll(ctx, run.Sites)
	s.logger.Info("crawl finished",
		"sites", len(run.Results),
		"pages", run.TotalPages(),
		"records", run.TotalRecords(),
	)
	return nil
}

// AggregateStep builds the dataset from the crawl results.
type AggregateStep struct {
	logger *slog.Logger
}

// NewAggregateStep creates an aggregate step.
func NewAggregateStep(logger *slog.Logger) *AggregateStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateStep{logger: logger}
}

// Name returns the step name.
func (s *AggregateStep) Name() string {
	return StepAggregate
}

// Finalize implements Finalizer.
func (s *AggregateStep) Finalize() bool {
	return true
}

// Do executes the aggregate step.
func (s *AggregateStep) Do(_ context.Context, run *model.RunReport) error {
	run.Dataset = aggregate.Aggregate(run.Results)
	s.logger.Info("dataset aggregated",
		"records", run.TotalRecords(),
		"recipes", run.Dataset.Len(),
	)
	return nil
}

// DatasetWriter persists a dataset.
type DatasetWriter interface {
	WriteDataset(ds model.Dataset) error
	Path() string
}

// PersistStep writes the dataset once per run.
type PersistStep struct {
	writer DatasetWriter
	logger *slog.Logger
}

// NewPersistStep creates a persist step.
func NewPersistStep(writer DatasetWriter, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{writer: writer, logger: logger}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return StepPersist
}

// Finalize implements Finalizer.
func (s *PersistStep) Finalize() bool {
	return true
}

// Do executes the persist step.
func (s *PersistStep) Do(_ context.Context, run *model.RunReport) error {
	if err := s.writer.WriteDataset(run.Dataset); err != nil {
		return fmt.Errorf("failed to write dataset to %s: %w", s.writer.Path(), err)
	}
	run.OutputPath = s.writer.Path()
	s.logger.Info("dataset written", "path", run.OutputPath, "recipes", run.Dataset.Len())
	return nil
}

// SummaryStep writes the run summary.
type SummaryStep struct {
	writer report.Writer
}

// NewSummaryStep creates a summary step.
func NewSummaryStep(writer report.Writer) *SummaryStep {
	return &SummaryStep{writer: writer}
}

// Name returns the step name.
func (s *SummaryStep) Name() string {
	return StepSummary
}

// Finalize implements Finalizer.
func (s *SummaryStep) Finalize() bool {
	return true
}

// Do executes the summary step.
func (s *SummaryStep) Do(_ context.Context, run *model.RunReport) error {
	run.Finish()
	if _, err := s.writer.Write(run); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// RunStore records finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *model.RunReport) (int64, error)
}

// HistoryStep stores the run in the crawl history.
type HistoryStep struct {
	store  RunStore
	logger *slog.Logger
}

// NewHistoryStep creates a history step.
func NewHistoryStep(store RunStore, logger *slog.Logger) *HistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *HistoryStep) Name() string {
	return StepHistory
}

// Finalize implements Finalizer.
func (s *HistoryStep) Finalize() bool {
	return true
}

// Do executes the history step.
func (s *HistoryStep) Do(ctx context.Context, run *model.RunReport) error {
	run.Finish()
	id, err := s.store.SaveRun(ctx, run)
	if err != nil {
		return fmt.Errorf("failed to save run history: %w", err)
	}
	s.logger.Debug("run recorded", "run_id", id)
	return nil
}
