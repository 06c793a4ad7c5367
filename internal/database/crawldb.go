package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/recipecrawl/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "recipecrawl.db"

// CrawlDB stores the history of crawl runs.
type CrawlDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		index_url TEXT NOT NULL,
		sites INTEGER NOT NULL DEFAULT 0,
		pages INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		recipes INTEGER NOT NULL DEFAULT 0,
		output_path TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per site crawled in a run
	CREATE TABLE IF NOT EXISTS site_crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		site TEXT NOT NULL,
		pages_fetched INTEGER NOT NULL DEFAULT 0,
		records INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		stop_reason TEXT NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_site_crawls_run ON site_crawls(run_id);
	CREATE INDEX IF NOT EXISTS idx_site_crawls_site ON site_crawls(site);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// RunRecord is a stored run.
type RunRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	IndexURL   string
	Sites      int
	Pages      int
	Records    int
	Recipes    int
	OutputPath string
}

// NewRunRecord summarises run for storage.
func NewRunRecord(run *model.RunReport) *RunRecord {
	return &RunRecord{
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		IndexURL:   run.IndexURL,
		Sites:      len(run.Sites),
		Pages:      run.TotalPages(),
		Records:    run.TotalRecords(),
		Recipes:    run.Dataset.Len(),
		OutputPath: run.OutputPath,
	}
}

// SiteCrawl is a stored per-site result.
type SiteCrawl struct {
	ID           int64
	RunID        int64
	Position     int
	Site         string
	PagesFetched int
	Records      int
	Skipped      int
	StopReason   model.StopReason
	Error        string
	Duration     time.Duration
}

// NewSiteCrawl summarises the result at position in a run for storage.
func NewSiteCrawl(runID int64, position int, r model.SiteResult) *SiteCrawl {
	return &SiteCrawl{
		RunID:        runID,
		Position:     position,
		Site:         r.Site,
		PagesFetched: r.PagesFetched,
		Records:      len(r.Recipes),
		Skipped:      r.Skipped,
		StopReason:   r.StopReason,
		Error:        r.Error,
		Duration:     r.Duration,
	}
}

// InsertRun inserts a run row and returns its ID.
func (cdb *CrawlDB) InsertRun(ctx context.Context, rec *RunRecord) (int64, error) {
	return insertRun(ctx, cdb.db, rec)
}

func insertRun(ctx context.Context, ex execer, rec *RunRecord) (int64, error) {
	query := `
	INSERT INTO runs (started_at, finished_at, index_url, sites, pages, records, recipes, output_path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := ex.ExecContext(ctx, query,
		formatTimestamp(rec.StartedAt),
		formatTimestamp(rec.FinishedAt),
		rec.IndexURL,
		rec.Sites,
		rec.Pages,
		rec.Records,
		rec.Recipes,
		rec.OutputPath,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return result.LastInsertId()
}

// InsertSiteCrawl inserts a per-site row.
func (cdb *CrawlDB) InsertSiteCrawl(ctx context.Context, sc *SiteCrawl) error {
	return insertSiteCrawl(ctx, cdb.db, sc)
}

func insertSiteCrawl(ctx context.Context, ex execer, sc *SiteCrawl) error {
	query := `
	INSERT INTO site_crawls (run_id, position, site, pages_fetched, records, skipped, stop_reason, error, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := ex.ExecContext(ctx, query,
		sc.RunID,
		sc.Position,
		sc.Site,
		sc.PagesFetched,
		sc.Records,
		sc.Skipped,
		string(sc.StopReason),
		sc.Error,
		sc.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert site crawl: %w", err)
	}

	return nil
}

// SaveRun stores run and all of its site results in one transaction and
// returns the new run ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, run *model.RunReport) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	runID, err := insertRun(ctx, tx, NewRunRecord(run))
	if err != nil {
		return 0, err
	}

	for i, r := range run.Results {
		if err := insertSiteCrawl(ctx, tx, NewSiteCrawl(runID, i, r)); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// GetRun retrieves a run by ID. It returns nil when no such run exists.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, index_url, sites, pages, records, recipes, output_path
	FROM runs
	WHERE id = ?
	`

	rec, err := scanRun(cdb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return rec, nil
}

// ListRuns returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, index_url, sites, pages, records, recipes, output_path
	FROM runs
	ORDER BY id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *rec)
	}

	return runs, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec        RunRecord
		startedAt  string
		finishedAt sql.NullString
		outputPath sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&startedAt,
		&finishedAt,
		&rec.IndexURL,
		&rec.Sites,
		&rec.Pages,
		&rec.Records,
		&rec.Recipes,
		&outputPath,
	); err != nil {
		return nil, err
	}

	rec.StartedAt = parseTimestamp(startedAt)
	rec.FinishedAt = parseTimestamp(finishedAt.String)
	rec.OutputPath = outputPath.String
	return &rec, nil
}

// GetSiteCrawls returns the site rows of a run in crawl order.
func (cdb *CrawlDB) GetSiteCrawls(ctx context.Context, runID int64) ([]SiteCrawl, error) {
	query := `
	SELECT id, run_id, position, site, pages_fetched, records, skipped, stop_reason, error, duration_ms
	FROM site_crawls
	WHERE run_id = ?
	ORDER BY position
	`
	return cdb.querySiteCrawls(ctx, query, runID)
}

// SiteHistory returns the stored crawls of one site, newest first.
func (cdb *CrawlDB) SiteHistory(ctx context.Context, site string, limit int) ([]SiteCrawl, error) {
	query := `
	SELECT id, run_id, position, site, pages_fetched, records, skipped, stop_reason, error, duration_ms
	FROM site_crawls
	WHERE site = ?
	ORDER BY run_id DESC
	`
	args := []any{site}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return cdb.querySiteCrawls(ctx, query, args...)
}

func (cdb *CrawlDB) querySiteCrawls(ctx context.Context, query string, args ...any) ([]SiteCrawl, error) {
	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query site crawls: %w", err)
	}
	defer rows.Close()

	results := make([]SiteCrawl, 0)
	for rows.Next() {
		var (
			sc         SiteCrawl
			stopReason string
			errText    sql.NullString
			durationMS int64
		)
		if err := rows.Scan(
			&sc.ID,
			&sc.RunID,
			&sc.Position,
			&sc.Site,
			&sc.PagesFetched,
			&sc.Records,
			&sc.Skipped,
			&stopReason,
			&errText,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("failed to scan site crawl: %w", err)
		}
		sc.StopReason = model.StopReason(stopReason)
		sc.Error = errText.String
		sc.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, sc)
	}

	return results, rows.Err()
}

// storedTimestampFormat is how timestamps are written.
const storedTimestampFormat = time.RFC3339Nano

func formatTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(storedTimestampFormat)
}

// timestampFormats contains the timestamp formats that may be read back.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with each known format and returns the zero
// time when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
