package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/lib/pq"

	"github.com/nao1215/reviewscan/internal/model"
)

// PostgresSchema is the schema holding the raw_reviews table.
const PostgresSchema = "public"

// PostgresLoader loads CSV artifacts into a PostgreSQL raw_reviews table.
type PostgresLoader struct {
	db   *sql.DB
	name string
}

// OpenPostgres connects to the database at dsn and creates raw_reviews
// if it does not exist.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresLoader, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &PostgresLoader{db: db, name: "postgres:" + redactDSN(dsn)}
	if err := p.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

func (p *PostgresLoader) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS public.raw_reviews (
		id SERIAL PRIMARY KEY,
		banque TEXT,
		ville TEXT,
		nom_agence TEXT,
		localisation TEXT,
		note TEXT,
		avis TEXT,
		date_avis TEXT,
		loaded_at TIMESTAMPTZ DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("failed to create raw_reviews: %w", err)
	}
	return nil
}

// Name implements RawLoader.
func (p *PostgresLoader) Name() string {
	return p.name
}

// Close implements RawLoader.
func (p *PostgresLoader) Close() error {
	return p.db.Close()
}

// LoadRawReviews implements RawLoader. Rows are streamed with COPY after
// the table is truncated; both happen in one transaction.
func (p *PostgresLoader) LoadRawReviews(ctx context.Context, rows []model.OutputRow) (loaded int64, err error) {
	if len(rows) == 0 {
		return 0, ErrNoRows
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE public.raw_reviews RESTART IDENTITY"); err != nil {
		return 0, fmt.Errorf("failed to truncate raw_reviews: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(PostgresSchema, "raw_reviews", RawColumns...))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy: %w", err)
	}

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, rawValues(row)...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("failed to copy raw row %d: %w", i+1, err)
		}
		loaded++
	}

	// An argument-less Exec flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close copy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit raw load: %w", err)
	}
	return loaded, nil
}

// RawStats implements RawLoader.
func (p *PostgresLoader) RawStats(ctx context.Context) (*RawStats, error) {
	return collectRawStats(ctx, p.db, PostgresSchema+".raw_reviews")
}

// redactDSN hides the password of a URL-style DSN. Keyword DSNs are
// not shown at all.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.Host != "" {
		return u.Redacted()
	}
	return "(dsn)"
}

var (
	_ RawLoader = (*PostgresLoader)(nil)
	_ RawLoader = (*CrawlDB)(nil)
)
