package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/reviewscan/internal/model"
)

// DBFileName is the crawl database file name inside the data directory.
const DBFileName = "reviewscan.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// CrawlDB provides SQLite-based storage for crawl runs and their rows.
// One database file holds every run, so runs can be listed and re-exported.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
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
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run a crawl first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc creates it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
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
	-- One row per crawl run; the full summary is kept as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		total_links INTEGER NOT NULL DEFAULT 0,
		total_locations INTEGER NOT NULL DEFAULT 0,
		total_failures INTEGER NOT NULL DEFAULT 0,
		total_rows INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Locations extracted during a run
	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		organization TEXT NOT NULL,
		city TEXT NOT NULL,
		link TEXT NOT NULL,
		name TEXT NOT NULL,
		address TEXT NOT NULL,
		rating TEXT NOT NULL,
		missing TEXT,
		review_count INTEGER NOT NULL DEFAULT 0,
		UNIQUE(run_id, link)
	);

	CREATE INDEX IF NOT EXISTS idx_locations_run ON locations(run_id);

	-- Output rows of a run, with the language tag used for enrichment
	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		link TEXT NOT NULL,
		review_index INTEGER NOT NULL,
		organization TEXT NOT NULL,
		city TEXT NOT NULL,
		location_name TEXT NOT NULL,
		location_address TEXT NOT NULL,
		location_rating TEXT NOT NULL,
		text TEXT NOT NULL,
		date TEXT NOT NULL,
		language TEXT NOT NULL,
		UNIQUE(run_id, link, review_index)
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_run ON reviews(run_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_language ON reviews(language);

	-- Verbatim copy of the CSV artifact, replaced by each load
	CREATE TABLE IF NOT EXISTS raw_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		banque TEXT,
		ville TEXT,
		nom_agence TEXT,
		localisation TEXT,
		note TEXT,
		avis TEXT,
		date_avis TEXT,
		loaded_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a run summary and its rows in one transaction and
// returns the new run ID.
func (cdb *CrawlDB) SaveRun(ctx context.Context, summary *model.RunSummary, rows []model.OutputRow) (runID int64, err error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run summary: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var finishedAt any
	if !summary.FinishedAt.IsZero() {
		finishedAt = summary.FinishedAt.UTC().Format(storedTimeLayout)
	}
	var runErr any
	if summary.ErrorMessage != "" {
		runErr = summary.ErrorMessage
	}

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, total_links, total_locations, total_failures, total_rows, error, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		summary.StartedAt.UTC().Format(storedTimeLayout),
		finishedAt,
		summary.TotalLinks,
		summary.TotalLocations,
		summary.TotalFailures,
		len(rows),
		runErr,
		string(summaryJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	runID, err = result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	if err := insertLocations(ctx, tx, runID, summary); err != nil {
		return 0, err
	}
	if err := insertReviews(ctx, tx, runID, rows); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

func insertLocations(ctx context.Context, tx *sql.Tx, runID int64, summary *model.RunSummary) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO locations (run_id, organization, city, link, name, address, rating, missing, review_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare location insert: %w", err)
	}
	defer stmt.Close()

	for _, task := range summary.Tasks {
		for _, rec := range task.Locations {
			if rec.Location == nil {
				continue
			}
			if _, err := stmt.ExecContext(ctx,
				runID,
				task.Task.Organization,
				task.Task.City,
				rec.Link,
				rec.Location.Name,
				rec.Location.Address,
				rec.Location.Rating,
				strings.Join(rec.Location.Missing, ","),
				rec.ReviewCount,
			); err != nil {
				return fmt.Errorf("failed to save location %s: %w", rec.Link, err)
			}
		}
	}
	return nil
}

func insertReviews(ctx context.Context, tx *sql.Tx, runID int64, rows []model.OutputRow) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR IGNORE INTO reviews (run_id, link, review_index, organization, city, location_name,
		location_address, location_rating, text, date, language)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare review insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			runID,
			r.Link,
			r.ReviewIndex,
			r.Organization,
			r.City,
			r.LocationName,
			r.LocationAddress,
			r.LocationRating,
			r.ReviewText,
			r.ReviewDate,
			r.Language.Tag().String(),
		); err != nil {
			return fmt.Errorf("failed to save review %s: %w", r.Key(), err)
		}
	}
	return nil
}

// RunRecord is the metadata of a stored run.
type RunRecord struct {
	ID             int64     `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	TotalLinks     int       `json:"total_links"`
	TotalLocations int       `json:"total_locations"`
	TotalFailures  int       `json:"total_failures"`
	TotalRows      int       `json:"total_rows"`
	Error          string    `json:"error,omitempty"`
}

// ListRuns returns stored runs, newest first. A limit of zero returns all.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, COALESCE(finished_at, ''), total_links, total_locations,
		total_failures, total_rows, COALESCE(error, '')
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			rec               RunRecord
			started, finished string
		)
		if err := rows.Scan(&rec.ID, &started, &finished, &rec.TotalLinks, &rec.TotalLocations,
			&rec.TotalFailures, &rec.TotalRows, &rec.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		rec.StartedAt = parseTimestamp(started)
		rec.FinishedAt = parseTimestamp(finished)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetRun returns the stored summary of a run.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.RunSummary, error) {
	var summaryJSON string
	err := cdb.db.QueryRowContext(ctx, "SELECT summary_json FROM runs WHERE id = ?", id).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var summary model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("failed to parse run summary: %w", err)
	}
	return &summary, nil
}

// RunRows returns the output rows of a run in insertion order.
func (cdb *CrawlDB) RunRows(ctx context.Context, id int64) ([]model.OutputRow, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT link, review_index, organization, city, location_name, location_address,
		location_rating, text, date, language
	FROM reviews
	WHERE run_id = ?
	ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run rows: %w", err)
	}
	defer rows.Close()

	var out []model.OutputRow
	for rows.Next() {
		var (
			r   model.OutputRow
			tag string
		)
		if err := rows.Scan(&r.Link, &r.ReviewIndex, &r.Organization, &r.City, &r.LocationName,
			&r.LocationAddress, &r.LocationRating, &r.ReviewText, &r.ReviewDate, &tag); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if tag == model.LanguageArabic.Tag().String() {
			r.Language = model.LanguageArabic
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunPersister stores a run summary together with the rows handed to Persist.
// It satisfies crawler.Persister.
type RunPersister struct {
	db      *CrawlDB
	summary *model.RunSummary

	// RunID is set after a successful Persist.
	RunID int64
}

// RunPersister returns a persister that saves summary with its rows.
func (cdb *CrawlDB) RunPersister(summary *model.RunSummary) *RunPersister {
	return &RunPersister{db: cdb, summary: summary}
}

// Name implements crawler.Persister.
func (p *RunPersister) Name() string {
	return "sqlite:" + p.db.dbPath
}

// Persist implements crawler.Persister.
func (p *RunPersister) Persist(ctx context.Context, rows []model.OutputRow) error {
	id, err := p.db.SaveRun(ctx, p.summary, rows)
	if err != nil {
		return err
	}
	p.RunID = id
	return nil
}

// storedTimeLayout keeps a fixed-width fraction so stored timestamps sort
// as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats lists the formats SQLite timestamps are parsed with.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with the first matching format, or returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
